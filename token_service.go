package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService issues and authenticates cluster bound tokens.
type TokenService interface {
	Issuer
	Authenticator
	TokenValidator
	ParseToken(ctx context.Context, raw string) (Token, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	codec           *TokenCodec
	keys            *SigningKeyProvider
	identity        *ClusterIdentity
	tokenExpiration int
	logger          Logger
	now             func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(keys *SigningKeyProvider, identity *ClusterIdentity, store APITokenStore, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		codec:    NewTokenCodec(keys, identity, store).WithLogger(logger),
		keys:     keys,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// NewTokenServiceFromConfig selects the signing key factory named by
// cfg.GetSigningKeyFactory. When source is nil the cluster id comes from
// cfg.GetClusterID. A factory that cannot be built is a configuration fault
// and is returned as such; there is no fallback key.
func NewTokenServiceFromConfig(cfg Config, source ClusterIDSource, store APITokenStore, logger Logger) (*TokenServiceImpl, error) {
	if logger == nil {
		logger = defLogger{}
	}
	if cfg == nil {
		return nil, ErrSigningKeyUnavailable
	}

	factory, err := NewSigningKeyFactory(cfg.GetSigningKeyFactory(), cfg)
	if err != nil {
		logger.Error("unable to create signing key factory", "factory", cfg.GetSigningKeyFactory(), "error", err)
		return nil, err
	}
	logger.Debug("using signing key factory", "factory", cfg.GetSigningKeyFactory())

	if source == nil {
		if id := strings.TrimSpace(cfg.GetClusterID()); id != "" {
			source = StaticClusterID(id)
		}
	}

	service := NewTokenService(
		NewSigningKeyProvider(factory, logger),
		NewClusterIdentity(source, logger),
		store,
		logger,
	)
	service.tokenExpiration = cfg.GetTokenExpiration()
	return service, nil
}

// WithClock sets the time source used for issuance and verification.
func (ts *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	if now != nil {
		ts.now = now
		ts.codec.WithClock(now)
	}
	return ts
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching tokens.
func (ts *TokenServiceImpl) WithClaimsDecorator(decorator ClaimsDecorator) *TokenServiceImpl {
	ts.codec.WithClaimsDecorator(decorator)
	return ts
}

// Codec exposes the underlying TokenCodec.
func (ts *TokenServiceImpl) Codec() *TokenCodec {
	return ts.codec
}

// IssueForUser signs a UserToken.
func (ts *TokenServiceImpl) IssueForUser(ctx context.Context, token *UserToken) (string, error) {
	if token == nil {
		return "", failure(ErrInvalidTokenRequest, nil, map[string]any{"reason": "token is nil"})
	}
	return ts.codec.Issue(ctx, token, ts.now())
}

// IssueForAPIToken signs an APIToken.
func (ts *TokenServiceImpl) IssueForAPIToken(ctx context.Context, token *APIToken) (string, error) {
	if token == nil {
		return "", failure(ErrInvalidTokenRequest, nil, map[string]any{"reason": "token is nil"})
	}
	return ts.codec.Issue(ctx, token, ts.now())
}

// Authenticate verifies raw and returns the token it carries.
func (ts *TokenServiceImpl) Authenticate(ctx context.Context, raw string) (Token, error) {
	return ts.codec.Decode(ctx, raw)
}

// Validate satisfies TokenValidator.
func (ts *TokenServiceImpl) Validate(tokenString string) (Token, error) {
	return ts.Authenticate(context.Background(), tokenString)
}

// ParseToken is Authenticate for callers that only distinguish
// authenticated from not authenticated: a token whose exp claim has passed
// yields a nil token and a nil error. An API token whose stored record
// expired is still reported as KindExpired.
func (ts *TokenServiceImpl) ParseToken(ctx context.Context, raw string) (Token, error) {
	token, err := ts.Authenticate(ctx, raw)
	if err != nil && isClaimExpiry(err) {
		ts.logger.Debug("expired token treated as absent", "error", err)
		return nil, nil
	}
	return token, err
}

// isClaimExpiry reports an Expired failure raised by the exp claim itself.
func isClaimExpiry(err error) bool {
	if KindOf(err) != KindExpired {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Source == nil {
		return false
	}
	return goerrors.Is(richErr.Source, jwt.ErrTokenExpired)
}

func (ts *TokenServiceImpl) tokenDefaults() tokenDefaults {
	return tokenDefaults{
		ttl: time.Duration(ts.tokenExpiration) * time.Hour,
		now: ts.now,
	}
}
