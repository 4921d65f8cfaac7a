package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger receives a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Token is the logical view of a decoded or to-be-issued token. The only
// implementations are *UserToken and *APIToken.
type Token interface {
	Type() TokenType
	Subject() string
	TokenID() string
	IssuedBy() string
	ExpiresAt() time.Time
	UpdatedAt() time.Time
	AllowedNetwork() string
	Metadata() map[string]any
	AllowsAddress(addr string) bool

	sealed()
}

// Authenticator verifies raw tokens
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Token, error)
}

// Issuer mints signed tokens for both variants
type Issuer interface {
	IssueForUser(ctx context.Context, token *UserToken) (string, error)
	IssueForAPIToken(ctx context.Context, token *APIToken) (string, error)
}

// SigningKey is the symmetric key material used for HS256.
type SigningKey struct {
	// ID is stamped into the token header as kid. Empty values are
	// replaced by a fingerprint of Secret.
	ID     string
	Secret []byte
}

// SigningKeyFactory produces the process wide signing key.
type SigningKeyFactory interface {
	Key(ctx context.Context) (SigningKey, error)
}

// SigningKeyFactoryFunc adapts a function into a SigningKeyFactory.
type SigningKeyFactoryFunc func(ctx context.Context) (SigningKey, error)

// Key satisfies SigningKeyFactory.
func (f SigningKeyFactoryFunc) Key(ctx context.Context) (SigningKey, error) {
	if f == nil {
		return SigningKey{}, ErrSigningKeyUnavailable
	}
	return f(ctx)
}

// ClusterIDSource reports the id of the cluster the current node belongs to.
type ClusterIDSource interface {
	CurrentClusterID(ctx context.Context) (string, error)
}

// ClusterIDSourceFunc adapts a function into a ClusterIDSource.
type ClusterIDSourceFunc func(ctx context.Context) (string, error)

// CurrentClusterID satisfies ClusterIDSource.
func (f ClusterIDSourceFunc) CurrentClusterID(ctx context.Context) (string, error) {
	if f == nil {
		return "", ErrIssuerUnavailable
	}
	return f(ctx)
}

// StaticClusterID is a ClusterIDSource with a fixed value.
type StaticClusterID string

// CurrentClusterID satisfies ClusterIDSource.
func (s StaticClusterID) CurrentClusterID(context.Context) (string, error) {
	return string(s), nil
}

// APITokenRecord is the mutable liveness state of an API token as kept by
// the system of record.
type APITokenRecord interface {
	IsExpired() bool
	IsRevoked() bool
	IsBeforeNotBeforeDate() bool
	IsValid() bool
}

// APITokenStore looks up API token records by subject. Implementations
// return an error matched by IsAPITokenNotFound when no record exists.
type APITokenStore interface {
	FindBySubject(ctx context.Context, id string) (APITokenRecord, error)
}

// Config holds token options
type Config interface {
	GetSigningKeyFactory() string
	GetSigningKey() string
	GetSigningKeyID() string
	GetJWKS() string
	GetClusterID() string
	GetTokenExpiration() int
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + format(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + format(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + format(msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + format(msg, args))
}

func format(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
