package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// Validate checks that t can be issued.
func (t *UserToken) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.UserID, validation.Required, validation.By(subjectOfType(TokenTypeUser))),
		validation.Field(&t.AllowFromNetwork, validation.By(validateNetworks)),
	)
}

// Validate checks that t can be issued.
func (t *APIToken) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.ID, validation.Required, validation.By(subjectOfType(TokenTypeAPI))),
		validation.Field(&t.AllowFromNetwork, validation.By(validateNetworks)),
		validation.Field(&t.Expires, validation.By(notBefore(t.IssueDate))),
	)
}

func subjectOfType(want TokenType) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if ClassifySubject(s) != want {
			return errors.New("subject does not identify a "+want.String(), errors.CategoryValidation)
		}
		return nil
	}
}

func notBefore(start time.Time) validation.RuleFunc {
	return func(value any) error {
		end, _ := value.(time.Time)
		if end.IsZero() || start.IsZero() {
			return nil
		}
		if !end.After(start) {
			return errors.New("must be after the issue date", errors.CategoryValidation)
		}
		return nil
	}
}

type validatable interface {
	Validate() error
}

func validateRequest(token Token) error {
	v, ok := token.(validatable)
	if !ok {
		return ErrInvalidTokenRequest
	}
	if err := v.Validate(); err != nil {
		return failure(ErrInvalidTokenRequest, err, map[string]any{
			"type":    token.Type().String(),
			"subject": token.Subject(),
		})
	}
	return nil
}
