package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// UserTokenOptions controls how MintUserToken issues session tokens.
type UserTokenOptions struct {
	// TTL overrides the default token expiration. Zero uses TokenService
	// defaults; a negative value mints a token without expiration.
	TTL time.Duration
	// ModDate is the modification date of the user, signed as xmod.
	ModDate time.Time
	// AllowFromNetwork restricts where the token may be used from.
	AllowFromNetwork string
	// Claims sets optional extension claims.
	Claims map[string]any
}

type tokenDefaults struct {
	ttl time.Duration
	now func() time.Time
}

type tokenDefaultsProvider interface {
	tokenDefaults() tokenDefaults
}

// MintUserToken mints a session token for userID and returns it with its
// expiration. It uses TokenService defaults for TTL when available.
func MintUserToken(ctx context.Context, issuer Issuer, userID string, opts UserTokenOptions) (string, time.Time, error) {
	if issuer == nil {
		return "", time.Time{}, goerrors.New("token issuer is required", goerrors.CategoryBadInput)
	}

	ttl := opts.TTL
	now := time.Now

	if defaultsProvider, ok := issuer.(tokenDefaultsProvider); ok {
		defaults := defaultsProvider.tokenDefaults()
		if ttl == 0 {
			ttl = defaults.ttl
		}
		if defaults.now != nil {
			now = defaults.now
		}
	}

	var expires time.Time
	if ttl > 0 {
		expires = now().Add(ttl)
	}

	token, err := issuer.IssueForUser(ctx, &UserToken{
		UserID:           userID,
		Expires:          expires,
		ModDate:          opts.ModDate,
		AllowFromNetwork: opts.AllowFromNetwork,
		Claims:           opts.Claims,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expires, nil
}
