package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrorKind names the reason an authentication attempt failed.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindMissingToken     ErrorKind = "token_missing"
	KindInvalidSignature ErrorKind = "token_invalid_signature"
	KindExpired          ErrorKind = "token_expired"
	KindIssuerMismatch   ErrorKind = "token_issuer_mismatch"
	KindUnknownAPIToken  ErrorKind = "api_token_unknown"
	KindRevoked          ErrorKind = "api_token_revoked"
	KindNotYetValid      ErrorKind = "token_not_yet_valid"
	KindInvalid          ErrorKind = "api_token_invalid"
)

const (
	TextCodeSigningKeyUnavailable = "signing_key_unavailable"
	TextCodeIssuerUnavailable     = "issuer_unavailable"
	TextCodeTokenStoreUnavailable = "token_store_unavailable"
	TextCodeAPITokenNotFound      = "api_token_not_found"
	TextCodeInvalidTokenRequest   = "token_request_invalid"
)

// ErrMissingToken is returned when the raw token is empty.
var ErrMissingToken = authError("security token not found", KindMissingToken)

// ErrInvalidSignature is returned for malformed tokens and signature mismatches.
var ErrInvalidSignature = authError("token signature is invalid", KindInvalidSignature)

// ErrTokenExpired is returned when either the token or the API token record expired.
var ErrTokenExpired = authError("token is expired", KindExpired)

// ErrIssuerMismatch is returned when the token was minted by another cluster.
var ErrIssuerMismatch = authError("invalid issuer", KindIssuerMismatch)

// ErrUnknownAPIToken is returned when no record backs an API token subject.
var ErrUnknownAPIToken = authError("invalid API token", KindUnknownAPIToken)

// ErrTokenRevoked is returned when the API token record was revoked.
var ErrTokenRevoked = authError("API token revoked", KindRevoked)

// ErrTokenNotYetValid is returned when the token is used before its not-before date.
var ErrTokenNotYetValid = authError("token is not valid yet", KindNotYetValid)

// ErrTokenInvalid is the catch-all for API token records that are not valid.
var ErrTokenInvalid = authError("API token is not valid", KindInvalid)

// ErrSigningKeyUnavailable signals a signing key configuration fault.
var ErrSigningKeyUnavailable = errors.New("signing key unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeSigningKeyUnavailable).
	WithCode(errors.CodeInternal)

// ErrIssuerUnavailable signals that the cluster id could not be resolved.
var ErrIssuerUnavailable = errors.New("cluster issuer unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeIssuerUnavailable).
	WithCode(errors.CodeInternal)

// ErrTokenStoreUnavailable is returned when the API token lookup itself fails.
var ErrTokenStoreUnavailable = errors.New("API token store unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeTokenStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrAPITokenNotFound is returned by APITokenStore implementations for absent records.
var ErrAPITokenNotFound = errors.New("API token record not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAPITokenNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidTokenRequest is returned when a token cannot be issued from the given input.
var ErrInvalidTokenRequest = errors.New("invalid token request", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidTokenRequest).
	WithCode(errors.CodeBadRequest)

var authKinds = map[string]ErrorKind{
	string(KindMissingToken):     KindMissingToken,
	string(KindInvalidSignature): KindInvalidSignature,
	string(KindExpired):          KindExpired,
	string(KindIssuerMismatch):   KindIssuerMismatch,
	string(KindUnknownAPIToken):  KindUnknownAPIToken,
	string(KindRevoked):          KindRevoked,
	string(KindNotYetValid):      KindNotYetValid,
	string(KindInvalid):          KindInvalid,
}

func authError(message string, kind ErrorKind) *errors.Error {
	return errors.New(message, errors.CategoryAuth).
		WithTextCode(string(kind)).
		WithCode(errors.CodeUnauthorized)
}

// failure clones a sentinel so per call metadata never leaks into it.
func failure(base *errors.Error, source error, meta map[string]any) *errors.Error {
	clone := base.Clone()
	if source != nil {
		clone.Source = source
	}
	if len(meta) > 0 {
		clone = clone.WithMetadata(meta)
	}
	return clone
}

// KindOf returns the authentication failure kind carried by err, or KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return KindNone
	}
	return authKinds[richErr.TextCode]
}

// IsAuthError reports whether err is an expected authentication outcome as
// opposed to a configuration or store fault.
func IsAuthError(err error) bool {
	return KindOf(err) != KindNone
}

// HasTextCode reports whether err wraps a go-errors value with the given text code.
func HasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsAPITokenNotFound reports whether a store error means the record is absent.
func IsAPITokenNotFound(err error) bool {
	return HasTextCode(err, TextCodeAPITokenNotFound)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if KindOf(err) == KindExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if kind := KindOf(err); kind == KindInvalidSignature || kind == KindMissingToken {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
