package firebase

import (
	"context"
	"errors"
	"strings"
)

const DevTokenPrefix = "dev:"

var ErrInvalidDevToken = errors.New("invalid development token")

// DevTokenVerifier accepts tokens of the form "dev:<uid>". It backs the
// in-memory local mode where no Firebase project is configured.
type DevTokenVerifier struct{}

func NewDevTokenVerifier() *DevTokenVerifier {
	return &DevTokenVerifier{}
}

func (DevTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, DevTokenPrefix) {
		return "", ErrInvalidDevToken
	}
	uid := strings.TrimSpace(strings.TrimPrefix(token, DevTokenPrefix))
	if uid == "" {
		return "", ErrInvalidDevToken
	}
	return uid, nil
}

func (DevTokenVerifier) TestConnection(ctx context.Context) error {
	return nil
}

func DevToken(uid string) string {
	return DevTokenPrefix + uid
}
