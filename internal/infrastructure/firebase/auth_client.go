package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

const healthProbeUID = "livemarket-health-probe"

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token and returns its uid.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// TestConnection makes one authenticated admin call. A not-found answer still
// proves the credentials work.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	_, err := f.client.GetUser(ctx, healthProbeUID)
	if err != nil && !auth.IsUserNotFound(err) {
		return err
	}
	return nil
}
