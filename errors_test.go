package auth_test

import (
	"errors"
	"fmt"
	"testing"

	auth "github.com/goliatone/go-auth-token"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected auth.ErrorKind
	}{
		{name: "nil", err: nil, expected: auth.KindNone},
		{name: "plain error", err: errors.New("boom"), expected: auth.KindNone},
		{name: "missing", err: auth.ErrMissingToken, expected: auth.KindMissingToken},
		{name: "signature", err: auth.ErrInvalidSignature, expected: auth.KindInvalidSignature},
		{name: "expired", err: auth.ErrTokenExpired, expected: auth.KindExpired},
		{name: "issuer", err: auth.ErrIssuerMismatch, expected: auth.KindIssuerMismatch},
		{name: "unknown", err: auth.ErrUnknownAPIToken, expected: auth.KindUnknownAPIToken},
		{name: "revoked", err: auth.ErrTokenRevoked, expected: auth.KindRevoked},
		{name: "not yet valid", err: auth.ErrTokenNotYetValid, expected: auth.KindNotYetValid},
		{name: "invalid", err: auth.ErrTokenInvalid, expected: auth.KindInvalid},
		{name: "wrapped", err: fmt.Errorf("authenticate: %w", auth.ErrTokenRevoked), expected: auth.KindRevoked},
		{name: "configuration fault", err: auth.ErrSigningKeyUnavailable, expected: auth.KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.KindOf(tt.err))
			assert.Equal(t, tt.expected != auth.KindNone, auth.IsAuthError(tt.err))
		})
	}
}

func TestAuthErrorsAreUnauthorized(t *testing.T) {
	for _, err := range []*goerrors.Error{
		auth.ErrMissingToken,
		auth.ErrInvalidSignature,
		auth.ErrTokenExpired,
		auth.ErrIssuerMismatch,
		auth.ErrUnknownAPIToken,
		auth.ErrTokenRevoked,
		auth.ErrTokenNotYetValid,
		auth.ErrTokenInvalid,
	} {
		assert.Equal(t, goerrors.CategoryAuth, err.Category, err.TextCode)
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrTokenRevoked,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured signature error",
			err:      auth.ErrInvalidSignature,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Expired is not malformed",
			err:      auth.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsMalformedError(tt.err))
		})
	}
}

func TestIsAPITokenNotFound(t *testing.T) {
	assert.True(t, auth.IsAPITokenNotFound(auth.ErrAPITokenNotFound))
	assert.True(t, auth.IsAPITokenNotFound(fmt.Errorf("lookup: %w", auth.ErrAPITokenNotFound.Clone())))
	assert.False(t, auth.IsAPITokenNotFound(errors.New("not found")))
}
