package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenType discriminates the two token variants carried by the same wire format.
type TokenType int

const (
	TokenTypeUser TokenType = iota
	TokenTypeAPI
)

// APITokenPrefix marks subjects that identify API tokens.
const APITokenPrefix = "api"

func (t TokenType) String() string {
	switch t {
	case TokenTypeAPI:
		return "api_token"
	default:
		return "user_token"
	}
}

// ClassifySubject maps every subject to exactly one TokenType. A subject is
// an API token id when it carries APITokenPrefix followed by at least one
// more character; anything else, the empty string included, is a user id.
func ClassifySubject(subject string) TokenType {
	if len(subject) > len(APITokenPrefix) && strings.HasPrefix(subject, APITokenPrefix) {
		return TokenTypeAPI
	}
	return TokenTypeUser
}

// NewAPITokenID returns a fresh identifier that classifies as an API token.
func NewAPITokenID() string {
	return APITokenPrefix + uuid.NewString()
}

// UserToken authenticates an interactive user session.
type UserToken struct {
	JTI              string
	UserID           string
	Issuer           string
	IssuedAt         time.Time
	Expires          time.Time // zero means the token does not expire
	ModDate          time.Time
	AllowFromNetwork string
	Claims           map[string]any
}

var _ Token = (*UserToken)(nil)

func (t *UserToken) Type() TokenType          { return TokenTypeUser }
func (t *UserToken) Subject() string          { return t.UserID }
func (t *UserToken) TokenID() string          { return t.JTI }
func (t *UserToken) IssuedBy() string         { return t.Issuer }
func (t *UserToken) ExpiresAt() time.Time     { return t.Expires }
func (t *UserToken) UpdatedAt() time.Time     { return t.ModDate }
func (t *UserToken) AllowedNetwork() string   { return t.AllowFromNetwork }
func (t *UserToken) Metadata() map[string]any { return t.Claims }
func (t *UserToken) sealed()                  {}

// AllowsAddress reports whether addr satisfies the allowed network claim.
func (t *UserToken) AllowsAddress(addr string) bool {
	return networkAllows(t.AllowFromNetwork, addr)
}

// APIToken authenticates a long lived machine credential. The mutable
// liveness state (revocation, expiry) is owned by an APITokenStore.
type APIToken struct {
	JTI              string
	ID               string
	ClusterID        string
	IssuedAt         time.Time
	IssueDate        time.Time // not-before
	Expires          time.Time
	ModDate          time.Time
	AllowFromNetwork string
	Claims           map[string]any
}

var _ Token = (*APIToken)(nil)

func (t *APIToken) Type() TokenType          { return TokenTypeAPI }
func (t *APIToken) Subject() string          { return t.ID }
func (t *APIToken) TokenID() string          { return t.JTI }
func (t *APIToken) IssuedBy() string         { return t.ClusterID }
func (t *APIToken) ExpiresAt() time.Time     { return t.Expires }
func (t *APIToken) UpdatedAt() time.Time     { return t.ModDate }
func (t *APIToken) AllowedNetwork() string   { return t.AllowFromNetwork }
func (t *APIToken) Metadata() map[string]any { return t.Claims }
func (t *APIToken) sealed()                  {}

// AllowsAddress reports whether addr satisfies the allowed network claim.
func (t *APIToken) AllowsAddress(addr string) bool {
	return networkAllows(t.AllowFromNetwork, addr)
}

// tokenFromClaims builds the variant selected by the subject.
func tokenFromClaims(c *Claims) Token {
	if ClassifySubject(c.Subject) == TokenTypeAPI {
		issueDate := c.NotBeforeTime()
		if issueDate.IsZero() {
			issueDate = c.Issued()
		}
		return &APIToken{
			JTI:              c.ID,
			ID:               c.Subject,
			ClusterID:        c.Issuer,
			IssuedAt:         c.Issued(),
			IssueDate:        issueDate,
			Expires:          c.Expires(),
			ModDate:          c.Updated(),
			AllowFromNetwork: c.AllowedNetwork,
			Claims:           c.Metadata,
		}
	}
	return &UserToken{
		JTI:              c.ID,
		UserID:           c.Subject,
		Issuer:           c.Issuer,
		IssuedAt:         c.Issued(),
		Expires:          c.Expires(),
		ModDate:          c.Updated(),
		AllowFromNetwork: c.AllowedNetwork,
		Claims:           c.Metadata,
	}
}
