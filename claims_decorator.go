package auth

import "context"

// ClaimsDecorator can mutate allowed claim extensions before a token is signed.
// Only Claims.Metadata survives decoration: registered claims and the xmod and
// xnet extensions are restored after Decorate returns so issuance semantics
// stay stable.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, token Token, claims *Claims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, token Token, claims *Claims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, token Token, claims *Claims) error {
	if f == nil {
		return nil
	}
	return f(ctx, token, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, Token, *Claims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}

// decorate runs d and puts back every protected field it may have touched.
func decorate(ctx context.Context, d ClaimsDecorator, token Token, claims *Claims) error {
	registered := claims.RegisteredClaims
	updatedAt := claims.UpdatedAt
	network := claims.AllowedNetwork

	if err := normalizeClaimsDecorator(d).Decorate(ctx, token, claims); err != nil {
		return err
	}

	claims.RegisteredClaims = registered
	claims.UpdatedAt = updatedAt
	claims.AllowedNetwork = network
	claims.Metadata = copyMetadata(claims.Metadata)
	return nil
}
