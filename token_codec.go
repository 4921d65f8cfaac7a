package auth

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenCodec turns logical tokens into signed compact strings and back.
type TokenCodec struct {
	keys      *SigningKeyProvider
	identity  *ClusterIdentity
	store     APITokenStore
	decorator ClaimsDecorator
	logger    Logger
	now       func() time.Time
}

// NewTokenCodec returns a codec bound to the given key provider, cluster
// identity and API token store.
func NewTokenCodec(keys *SigningKeyProvider, identity *ClusterIdentity, store APITokenStore) *TokenCodec {
	return &TokenCodec{
		keys:      keys,
		identity:  identity,
		store:     store,
		decorator: noopClaimsDecorator{},
		logger:    defLogger{},
		now:       time.Now,
	}
}

func (c *TokenCodec) WithLogger(logger Logger) *TokenCodec {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithClock sets the time source used for verification and liveness checks.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// WithClaimsDecorator configures a ClaimsDecorator run before signing.
func (c *TokenCodec) WithClaimsDecorator(decorator ClaimsDecorator) *TokenCodec {
	c.decorator = normalizeClaimsDecorator(decorator)
	return c
}

// Issue signs token at now. The issuer and issued-at claims always come
// from the codec, whatever token carries.
func (c *TokenCodec) Issue(ctx context.Context, token Token, now time.Time) (string, error) {
	if isNilToken(token) {
		return "", failure(ErrInvalidTokenRequest, nil, map[string]any{"reason": "token is nil"})
	}
	if err := validateRequest(token); err != nil {
		return "", err
	}

	key, err := c.signingKey(ctx)
	if err != nil {
		return "", err
	}
	issuer, err := c.issuer(ctx)
	if err != nil {
		return "", err
	}

	claims := claimsFor(token)
	if err := decorate(ctx, c.decorator, token, claims); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "claims decorator failed")
	}

	claims.ID = uuid.NewString()
	claims.Issuer = issuer
	claims.IssuedAt = jwt.NewNumericDate(now)

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtToken.Header["kid"] = key.ID

	signed, err := jwtToken.SignedString(key.Secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}
	return signed, nil
}

// Authenticate is an alias of Decode.
func (c *TokenCodec) Authenticate(ctx context.Context, raw string) (Token, error) {
	return c.Decode(ctx, raw)
}

// Decode verifies raw and returns the token it carries. Failures are
// go-errors values whose kind is reported by KindOf.
func (c *TokenCodec) Decode(ctx context.Context, raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, failure(ErrMissingToken, nil, nil)
	}

	key, err := c.signingKey(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := c.verify(raw, key)
	if err != nil {
		return nil, err
	}

	issuer, err := c.issuer(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Issuer != issuer {
		c.logger.Debug("token issuer mismatch", "issuer", claims.Issuer, "subject", claims.Subject)
		return nil, failure(ErrIssuerMismatch, nil, map[string]any{
			"claim": "iss",
			"value": claims.Issuer,
		})
	}

	token := tokenFromClaims(claims)

	if token.Type() == TokenTypeAPI {
		if err := c.checkAPIToken(ctx, token.Subject()); err != nil {
			return nil, err
		}
	}

	return token, nil
}

func (c *TokenCodec) verify(raw string, key SigningKey) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		if kid, ok := t.Header["kid"].(string); ok && kid != "" && kid != key.ID {
			return nil, fmt.Errorf("unknown signing key: %s", kid)
		}
		return key.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			c.logger.Debug("token is expired", "error", err)
			return nil, failure(ErrTokenExpired, err, map[string]any{"claim": "exp"})
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, failure(ErrTokenNotYetValid, err, map[string]any{"claim": "nbf"})
		default:
			return nil, failure(ErrInvalidSignature, err, nil)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, failure(ErrInvalidSignature, nil, nil)
	}
	return claims, nil
}

func (c *TokenCodec) signingKey(ctx context.Context) (SigningKey, error) {
	if c.keys == nil {
		return SigningKey{}, ErrSigningKeyUnavailable
	}
	return c.keys.Key(ctx)
}

func (c *TokenCodec) issuer(ctx context.Context) (string, error) {
	if c.identity == nil {
		return "", ErrIssuerUnavailable
	}
	return c.identity.Issuer(ctx)
}

func claimsFor(token Token) *Claims {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   token.Subject(),
			ExpiresAt: numericDate(token.ExpiresAt()),
		},
		UpdatedAt:      numericDate(token.UpdatedAt()),
		AllowedNetwork: strings.TrimSpace(token.AllowedNetwork()),
		Metadata:       copyMetadata(token.Metadata()),
	}
	if api, ok := token.(*APIToken); ok {
		claims.NotBefore = numericDate(api.IssueDate)
	}
	return claims
}

func isNilToken(token Token) bool {
	if token == nil {
		return true
	}
	v := reflect.ValueOf(token)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
