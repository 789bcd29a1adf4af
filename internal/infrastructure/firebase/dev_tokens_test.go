package firebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokenVerifier(t *testing.T) {
	verifier := NewDevTokenVerifier()

	uid, err := verifier.VerifyToken(context.Background(), DevToken("alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	_, err = verifier.VerifyToken(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrInvalidDevToken)

	_, err = verifier.VerifyToken(context.Background(), "dev:  ")
	assert.ErrorIs(t, err, ErrInvalidDevToken)
}
