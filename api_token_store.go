package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// APITokenState is a plain APITokenRecord evaluated against Clock, or
// time.Now when Clock is nil.
type APITokenState struct {
	ID               string
	UserID           string
	ClusterID        string
	IssueDate        time.Time
	Expires          time.Time
	Revoked          bool
	AllowFromNetwork string
	ModDate          time.Time
	Claims           map[string]any
	Clock            func() time.Time
}

var _ APITokenRecord = (*APITokenState)(nil)

func (s *APITokenState) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// IsExpired reports whether the expiry date has been reached.
func (s *APITokenState) IsExpired() bool {
	return !s.Expires.IsZero() && !s.now().Before(s.Expires)
}

// IsRevoked reports the revocation flag.
func (s *APITokenState) IsRevoked() bool {
	return s.Revoked
}

// IsBeforeNotBeforeDate reports whether the issue date is still in the future.
func (s *APITokenState) IsBeforeNotBeforeDate() bool {
	return !s.IssueDate.IsZero() && s.now().Before(s.IssueDate)
}

// IsValid is true when no other predicate fails and the token is bound to a user.
func (s *APITokenState) IsValid() bool {
	return !s.IsRevoked() &&
		!s.IsExpired() &&
		!s.IsBeforeNotBeforeDate() &&
		strings.TrimSpace(s.UserID) != ""
}

// Token returns the APIToken to be issued for this record.
func (s *APITokenState) Token() *APIToken {
	return &APIToken{
		ID:               s.ID,
		ClusterID:        s.ClusterID,
		IssueDate:        s.IssueDate,
		Expires:          s.Expires,
		ModDate:          s.ModDate,
		AllowFromNetwork: s.AllowFromNetwork,
		Claims:           s.Claims,
	}
}

// MemoryAPITokenStore keeps API token records in process memory.
type MemoryAPITokenStore struct {
	mu      sync.RWMutex
	records map[string]*APITokenState
}

// NewMemoryAPITokenStore returns a store seeded with records.
func NewMemoryAPITokenStore(records ...*APITokenState) *MemoryAPITokenStore {
	s := &MemoryAPITokenStore{records: make(map[string]*APITokenState, len(records))}
	for _, r := range records {
		s.Put(r)
	}
	return s
}

// Put stores a copy of record, replacing any record with the same id.
func (s *MemoryAPITokenStore) Put(record *APITokenState) {
	if record == nil || record.ID == "" {
		return
	}
	cp := *record
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cp.ID] = &cp
}

// Revoke sets the revocation flag. It cannot be cleared.
func (s *MemoryAPITokenStore) Revoke(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return false
	}
	r.Revoked = true
	return true
}

// FindBySubject satisfies APITokenStore.
func (s *MemoryAPITokenStore) FindBySubject(ctx context.Context, id string) (APITokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, failure(ErrAPITokenNotFound, nil, map[string]any{"id": id})
	}
	cp := *r
	return &cp, nil
}
