package auth

// TokenValidator validates tokens without tying callers to a specific
// signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (Token, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (Token, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (Token, error) {
	if f == nil {
		return nil, failure(ErrInvalidSignature, nil, nil)
	}
	return f(tokenString)
}

// MultiTokenValidator accepts tokens signed by any of several keys, which
// is how a service keeps verifying tokens minted before a key rotation:
// list the service holding the current key first and the retired keys
// after it.
//
// Validators run in order until one succeeds. An invalid signature (a kid
// or HMAC mismatch) moves on to the next validator; any other failure,
// such as an expired or revoked token, is final. When every validator
// rejects the signature the last error is returned.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string) (Token, error) {
	var lastErr error
	for _, v := range m.validators {
		token, err := v.Validate(tokenString)
		if err == nil {
			return token, nil
		}
		if KindOf(err) == KindInvalidSignature {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, failure(ErrInvalidSignature, nil, nil)
}
