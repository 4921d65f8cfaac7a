package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ClaimUpdatedAt carries the modification date of the token's owner.
	ClaimUpdatedAt = "xmod"
	// ClaimAllowedNetwork carries the networks the token may be used from.
	ClaimAllowedNetwork = "xnet"
	// ClaimMetadata carries free-form extension claims.
	ClaimMetadata = "metadata"
)

var reservedClaims = map[string]struct{}{
	"sub":               {},
	"jti":               {},
	"iss":               {},
	"iat":               {},
	"exp":               {},
	"nbf":               {},
	"aud":               {},
	ClaimUpdatedAt:      {},
	ClaimAllowedNetwork: {},
	ClaimMetadata:       {},
}

// IsReservedClaim reports whether name is owned by the codec and cannot be
// set through metadata.
func IsReservedClaim(name string) bool {
	_, ok := reservedClaims[name]
	return ok
}

// Claims is the claim set signed into every token.
type Claims struct {
	jwt.RegisteredClaims
	UpdatedAt      *jwt.NumericDate `json:"xmod,omitempty"`
	AllowedNetwork string           `json:"xnet,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
}

// ClaimsMetadata exposes metadata extensions
func (c *Claims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	return numericTime(c.ExpiresAt)
}

// Issued returns the issued at time
func (c *Claims) Issued() time.Time {
	return numericTime(c.IssuedAt)
}

// NotBeforeTime returns the not before time
func (c *Claims) NotBeforeTime() time.Time {
	return numericTime(c.NotBefore)
}

// Updated returns the updated at time
func (c *Claims) Updated() time.Time {
	return numericTime(c.UpdatedAt)
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func numericDate(t time.Time) *jwt.NumericDate {
	if t.IsZero() {
		return nil
	}
	return jwt.NewNumericDate(t)
}

// copyMetadata drops reserved names so metadata can never shadow a
// registered or extension claim.
func copyMetadata(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if IsReservedClaim(k) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
