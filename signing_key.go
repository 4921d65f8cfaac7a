package auth

import (
	"context"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-errors"
	"github.com/zeebo/blake3"
)

// minSigningKeySize is the smallest secret accepted for HS256.
const minSigningKeySize = 16

type keyState struct {
	key SigningKey
	err error
}

// SigningKeyProvider resolves the signing key once per process and shares
// it read-only with every issuance and verification call. A failed
// resolution is memoized: every later call fails the same way.
type SigningKeyProvider struct {
	factory SigningKeyFactory
	logger  Logger

	mu          sync.Mutex
	state       atomic.Pointer[keyState]
	resolutions atomic.Int64
}

// NewSigningKeyProvider wraps factory in a lazily resolved provider.
func NewSigningKeyProvider(factory SigningKeyFactory, logger Logger) *SigningKeyProvider {
	if logger == nil {
		logger = defLogger{}
	}
	return &SigningKeyProvider{
		factory: factory,
		logger:  logger,
	}
}

// Key returns the process wide signing key.
func (p *SigningKeyProvider) Key(ctx context.Context) (SigningKey, error) {
	if s := p.state.Load(); s != nil {
		return s.key, s.err
	}
	s := p.ensureInitialized(ctx)
	return s.key, s.err
}

// Resolutions reports how many times the factory was invoked.
func (p *SigningKeyProvider) Resolutions() int64 {
	return p.resolutions.Load()
}

func (p *SigningKeyProvider) ensureInitialized(ctx context.Context) *keyState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.state.Load(); s != nil {
		return s
	}

	s := p.resolve(ctx)
	p.state.Store(s)
	return s
}

func (p *SigningKeyProvider) resolve(ctx context.Context) *keyState {
	if p.factory == nil {
		p.logger.Error("signing key factory is not configured")
		return &keyState{err: ErrSigningKeyUnavailable}
	}

	p.resolutions.Add(1)

	key, err := p.factory.Key(ctx)
	if err != nil {
		p.logger.Error("signing key resolution failed", "error", err)
		return &keyState{err: failure(ErrSigningKeyUnavailable, err, nil)}
	}

	if len(key.Secret) < minSigningKeySize {
		p.logger.Error("signing key rejected", "size", len(key.Secret), "min", minSigningKeySize)
		return &keyState{err: failure(ErrSigningKeyUnavailable, nil, map[string]any{
			"size": len(key.Secret),
		})}
	}

	secret := make([]byte, len(key.Secret))
	copy(secret, key.Secret)
	key.Secret = secret

	if key.ID == "" {
		key.ID = KeyFingerprint(secret)
	}

	p.logger.Debug("signing key resolved", "kid", key.ID)
	return &keyState{key: key}
}

// KeyFingerprint returns a short, stable, non-reversible identifier for secret.
func KeyFingerprint(secret []byte) string {
	sum := blake3.Sum256(secret)
	return "b3-" + hex.EncodeToString(sum[:8])
}

// StaticSigningKey returns a factory that always yields secret.
func StaticSigningKey(secret []byte) SigningKeyFactory {
	return SigningKeyFactoryFunc(func(context.Context) (SigningKey, error) {
		if len(secret) == 0 {
			return SigningKey{}, errors.New("static signing key is empty", errors.CategoryBadInput)
		}
		return SigningKey{Secret: secret}, nil
	})
}
