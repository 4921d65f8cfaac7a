package auth

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/hkdf"
)

const (
	// DefaultSigningKeyFactory derives the key from the configured secret.
	DefaultSigningKeyFactory = "hmac-secret"
	// JWKSSigningKeyFactory reads an oct key from a JWK Set document.
	JWKSSigningKeyFactory = "jwks"
)

// hkdfInfoSigningKey labels the derivation. Changing it invalidates every
// issued token.
var hkdfInfoSigningKey = []byte("go-auth-token.hs256.signing.v1")

// SigningKeyFactoryConstructor builds a factory from configuration.
type SigningKeyFactoryConstructor func(cfg Config) (SigningKeyFactory, error)

var factoryRegistry = struct {
	sync.RWMutex
	ctors map[string]SigningKeyFactoryConstructor
}{
	ctors: map[string]SigningKeyFactoryConstructor{
		DefaultSigningKeyFactory: NewHMACSecretFactory,
		JWKSSigningKeyFactory:    NewJWKSFactory,
	},
}

// RegisterSigningKeyFactory makes a factory selectable by name. Registering
// an existing name replaces it.
func RegisterSigningKeyFactory(name string, ctor SigningKeyFactoryConstructor) {
	name = strings.TrimSpace(name)
	if name == "" || ctor == nil {
		return
	}
	factoryRegistry.Lock()
	defer factoryRegistry.Unlock()
	factoryRegistry.ctors[name] = ctor
}

// SigningKeyFactoryNames lists the registered factory names.
func SigningKeyFactoryNames() []string {
	factoryRegistry.RLock()
	defer factoryRegistry.RUnlock()
	names := make([]string, 0, len(factoryRegistry.ctors))
	for name := range factoryRegistry.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSigningKeyFactory instantiates the factory registered under name. An
// empty name selects DefaultSigningKeyFactory.
func NewSigningKeyFactory(name string, cfg Config) (SigningKeyFactory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSigningKeyFactory
	}

	factoryRegistry.RLock()
	ctor, ok := factoryRegistry.ctors[name]
	factoryRegistry.RUnlock()

	if !ok {
		return nil, failure(ErrSigningKeyUnavailable, nil, map[string]any{
			"factory":   name,
			"available": SigningKeyFactoryNames(),
		})
	}

	factory, err := ctor(cfg)
	if err != nil {
		return nil, failure(ErrSigningKeyUnavailable, err, map[string]any{
			"factory": name,
		})
	}
	return factory, nil
}

type hmacSecretFactory struct {
	secret []byte
	kid    string
}

// NewHMACSecretFactory derives an HS256 key from cfg.GetSigningKey with
// HKDF-SHA256.
func NewHMACSecretFactory(cfg Config) (SigningKeyFactory, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required", errors.CategoryBadInput)
	}
	secret := []byte(cfg.GetSigningKey())
	if len(secret) < minSigningKeySize {
		return nil, errors.New("signing secret is missing or too short", errors.CategoryBadInput).
			WithMetadata(map[string]any{"min": minSigningKeySize})
	}
	return &hmacSecretFactory{secret: secret, kid: cfg.GetSigningKeyID()}, nil
}

func (f *hmacSecretFactory) Key(context.Context) (SigningKey, error) {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, f.secret, nil, hkdfInfoSigningKey)
	if _, err := io.ReadFull(r, key); err != nil {
		return SigningKey{}, errors.Wrap(err, errors.CategoryInternal, "failed to derive signing key")
	}
	return SigningKey{ID: f.kid, Secret: key}, nil
}

type jwksFactory struct {
	document json.RawMessage
	kid      string
}

// NewJWKSFactory reads the signing key from the JWK Set in cfg.GetJWKS. When
// cfg.GetSigningKeyID is empty the set must contain exactly one key.
func NewJWKSFactory(cfg Config) (SigningKeyFactory, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required", errors.CategoryBadInput)
	}
	doc := strings.TrimSpace(cfg.GetJWKS())
	if doc == "" {
		return nil, errors.New("JWK Set document is empty", errors.CategoryBadInput)
	}
	return &jwksFactory{document: json.RawMessage(doc), kid: cfg.GetSigningKeyID()}, nil
}

func (f *jwksFactory) Key(context.Context) (SigningKey, error) {
	jwks, err := keyfunc.NewJSON(f.document)
	if err != nil {
		return SigningKey{}, errors.Wrap(err, errors.CategoryBadInput, "failed to parse JWK Set")
	}

	keys := jwks.ReadOnlyKeys()

	kid := f.kid
	if kid == "" {
		if len(keys) != 1 {
			return SigningKey{}, errors.New("JWK Set must contain exactly one key when no kid is configured", errors.CategoryBadInput).
				WithMetadata(map[string]any{"keys": len(keys)})
		}
		for k := range keys {
			kid = k
		}
	}

	raw, ok := keys[kid]
	if !ok {
		return SigningKey{}, errors.New("signing key not found in JWK Set", errors.CategoryNotFound).
			WithMetadata(map[string]any{"kid": kid})
	}

	secret, ok := raw.([]byte)
	if !ok {
		return SigningKey{}, errors.New("JWK is not a symmetric key", errors.CategoryBadInput).
			WithMetadata(map[string]any{"kid": kid})
	}

	return SigningKey{ID: kid, Secret: secret}, nil
}
