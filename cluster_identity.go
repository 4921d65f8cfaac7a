package auth

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

type issuerState struct {
	issuer string
	err    error
}

// ClusterIdentity resolves the issuer stamped into and expected from every
// token. The value is resolved once per process.
type ClusterIdentity struct {
	source ClusterIDSource
	logger Logger

	mu          sync.Mutex
	state       atomic.Pointer[issuerState]
	resolutions atomic.Int64
}

// NewClusterIdentity wraps source in a lazily resolved identity.
func NewClusterIdentity(source ClusterIDSource, logger Logger) *ClusterIdentity {
	if logger == nil {
		logger = defLogger{}
	}
	return &ClusterIdentity{
		source: source,
		logger: logger,
	}
}

// Issuer returns the current cluster id.
func (c *ClusterIdentity) Issuer(ctx context.Context) (string, error) {
	if s := c.state.Load(); s != nil {
		return s.issuer, s.err
	}
	s := c.ensureInitialized(ctx)
	return s.issuer, s.err
}

// Resolutions reports how many times the source was queried.
func (c *ClusterIdentity) Resolutions() int64 {
	return c.resolutions.Load()
}

func (c *ClusterIdentity) ensureInitialized(ctx context.Context) *issuerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.state.Load(); s != nil {
		return s
	}

	s := c.resolve(ctx)
	c.state.Store(s)
	return s
}

func (c *ClusterIdentity) resolve(ctx context.Context) *issuerState {
	if c.source == nil {
		c.logger.Error("cluster id source is not configured")
		return &issuerState{err: ErrIssuerUnavailable}
	}

	c.resolutions.Add(1)

	id, err := c.source.CurrentClusterID(ctx)
	if err != nil {
		c.logger.Error("cluster id resolution failed", "error", err)
		return &issuerState{err: failure(ErrIssuerUnavailable, err, nil)}
	}

	id = strings.TrimSpace(id)
	if id == "" {
		c.logger.Error("cluster id resolved to an empty value")
		return &issuerState{err: ErrIssuerUnavailable}
	}

	c.logger.Debug("cluster issuer resolved", "issuer", id)
	return &issuerState{issuer: id}
}
