package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-auth-token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiTokenValidator_KeyRotation(t *testing.T) {
	ctx := context.Background()

	retired := auth.NewTokenService(
		auth.NewSigningKeyProvider(auth.StaticSigningKey([]byte("retired-signing-secret-value")), &captureLogger{}),
		auth.NewClusterIdentity(auth.StaticClusterID(testClusterID), &captureLogger{}),
		nil, &captureLogger{},
	)
	current := newTestService(testClusterID, nil)

	validator := auth.NewMultiTokenValidator(current, nil, retired)

	oldRaw, err := retired.IssueForUser(ctx, &auth.UserToken{UserID: "user-old"})
	require.NoError(t, err)
	newRaw, err := current.IssueForUser(ctx, &auth.UserToken{UserID: "user-new"})
	require.NoError(t, err)

	token, err := validator.Validate(oldRaw)
	require.NoError(t, err)
	assert.Equal(t, "user-old", token.Subject())

	token, err = validator.Validate(newRaw)
	require.NoError(t, err)
	assert.Equal(t, "user-new", token.Subject())

	_, err = validator.Validate("garbage")
	assert.Equal(t, auth.KindInvalidSignature, auth.KindOf(err))
}

func TestMultiTokenValidator_StopsOnDecision(t *testing.T) {
	calls := 0
	first := auth.TokenValidatorFunc(func(string) (auth.Token, error) {
		calls++
		return newTestService("cluster-b", nil).Validate("")
	})
	second := auth.TokenValidatorFunc(func(string) (auth.Token, error) {
		calls++
		return &auth.UserToken{UserID: "user-1"}, nil
	})

	_, err := auth.NewMultiTokenValidator(first, second).Validate("anything")
	assert.Equal(t, auth.KindMissingToken, auth.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestMultiTokenValidator_Empty(t *testing.T) {
	_, err := auth.NewMultiTokenValidator().Validate("anything")
	assert.Equal(t, auth.KindInvalidSignature, auth.KindOf(err))
}
