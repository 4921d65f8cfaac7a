package auth

import (
	"context"
	"reflect"
)

// checkAPIToken consults the store for the API token identified by subject.
// Checks run in a fixed order and the first failing one wins.
func (c *TokenCodec) checkAPIToken(ctx context.Context, subject string) error {
	if c.store == nil {
		c.logger.Error("API token presented but no token store is configured", "subject", subject)
		return failure(ErrTokenStoreUnavailable, nil, map[string]any{"subject": subject})
	}

	record, err := c.store.FindBySubject(ctx, subject)
	if err != nil {
		if IsAPITokenNotFound(err) {
			return failure(ErrUnknownAPIToken, err, map[string]any{"claim": "sub", "value": subject})
		}
		c.logger.Error("API token lookup failed", "subject", subject, "error", err)
		return failure(ErrTokenStoreUnavailable, err, map[string]any{"subject": subject})
	}

	if isNilRecord(record) {
		return failure(ErrUnknownAPIToken, nil, map[string]any{"claim": "sub", "value": subject})
	}

	return recordLiveness(record, subject)
}

func recordLiveness(record APITokenRecord, subject string) error {
	switch {
	case record.IsRevoked():
		return failure(ErrTokenRevoked, nil, map[string]any{"subject": subject})
	case record.IsExpired():
		return failure(ErrTokenExpired, nil, map[string]any{"claim": "exp", "subject": subject})
	case record.IsBeforeNotBeforeDate():
		return failure(ErrTokenNotYetValid, nil, map[string]any{"claim": "nbf", "subject": subject})
	case !record.IsValid():
		return failure(ErrTokenInvalid, nil, map[string]any{"claim": "sub", "value": subject})
	}
	return nil
}

func isNilRecord(record APITokenRecord) bool {
	if record == nil {
		return true
	}
	v := reflect.ValueOf(record)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
