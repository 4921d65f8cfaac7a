package auth

import "context"

var tokenCtxKey = &contextKey{"token"}

type contextKey struct {
	name string
}

// WithToken stores an authenticated token in the context.
func WithToken(ctx context.Context, token Token) context.Context {
	return context.WithValue(ctx, tokenCtxKey, token)
}

// TokenFromContext finds the token stored by WithToken.
func TokenFromContext(ctx context.Context) (Token, bool) {
	token, ok := ctx.Value(tokenCtxKey).(Token)
	if !ok || isNilToken(token) {
		return nil, false
	}
	return token, true
}

// UserTokenFromContext returns the token only when it is a user token.
func UserTokenFromContext(ctx context.Context) (*UserToken, bool) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return nil, false
	}
	user, ok := token.(*UserToken)
	return user, ok
}

// APITokenFromContext returns the token only when it is an API token.
func APITokenFromContext(ctx context.Context) (*APIToken, bool) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return nil, false
	}
	api, ok := token.(*APIToken)
	return api, ok
}

// AuthenticateContext authenticates raw and, on success, returns a child
// of ctx carrying the token.
func AuthenticateContext(ctx context.Context, authenticator Authenticator, raw string) (context.Context, Token, error) {
	token, err := authenticator.Authenticate(ctx, raw)
	if err != nil {
		return ctx, nil, err
	}
	return WithToken(ctx, token), token, nil
}
