package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	auth "github.com/goliatone/go-auth-token"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// APITokenModel is the Bun model for issued API tokens.
type APITokenModel struct {
	bun.BaseModel `bun:"table:api_token_issued"`

	ID          string         `bun:"token_id,pk"`
	UserID      string         `bun:"token_userid,notnull"`
	IssueDate   time.Time      `bun:"issue_date,notnull"`
	ExpireDate  *time.Time     `bun:"expire_date"`
	RevokeDate  *time.Time     `bun:"revoke_date"`
	AllowedFrom string         `bun:"allowed_from"`
	ClusterID   string         `bun:"cluster_id"`
	RequestedBy string         `bun:"requested_by_userid"`
	MetaData    map[string]any `bun:"meta_data"`
	ModDate     time.Time      `bun:"mod_date,notnull"`
}

// APITokenStore implements auth.APITokenStore using Bun.
type APITokenStore struct {
	db    bun.IDB
	clock func() time.Time
}

var _ auth.APITokenStore = (*APITokenStore)(nil)

// NewAPITokenStore creates a new store.
func NewAPITokenStore(db bun.IDB) *APITokenStore {
	return &APITokenStore{db: db, clock: time.Now}
}

// WithClock sets the clock used for revocation dates and the returned
// records.
func (s *APITokenStore) WithClock(clock func() time.Time) *APITokenStore {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// FindBySubject implements auth.APITokenStore.
func (s *APITokenStore) FindBySubject(ctx context.Context, id string) (auth.APITokenRecord, error) {
	model, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toState(model), nil
}

// Get returns the stored state of the token.
func (s *APITokenStore) Get(ctx context.Context, id string) (*auth.APITokenState, error) {
	model, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toState(model), nil
}

func (s *APITokenStore) find(ctx context.Context, id string) (*APITokenModel, error) {
	var model APITokenModel
	err := s.db.NewSelect().
		Model(&model).
		Where("token_id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load API token").
			WithMetadata(map[string]any{"id": id})
	}
	return &model, nil
}

// FindByUser lists the tokens owned by userID, newest first.
func (s *APITokenStore) FindByUser(ctx context.Context, userID string) ([]*auth.APITokenState, error) {
	var models []APITokenModel
	err := s.db.NewSelect().
		Model(&models).
		Where("token_userid = ?", userID).
		OrderExpr("issue_date DESC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to list API tokens").
			WithMetadata(map[string]any{"user_id": userID})
	}

	states := make([]*auth.APITokenState, len(models))
	for i := range models {
		states[i] = s.toState(&models[i])
	}
	return states, nil
}

// Insert persists a new token record. requestedBy is the user that asked
// for the token; it may differ from the owner. state.Claims is stored as
// meta_data and signed into every token issued from the record.
func (s *APITokenStore) Insert(ctx context.Context, state *auth.APITokenState, requestedBy string) error {
	if state == nil || state.ID == "" {
		return auth.ErrInvalidTokenRequest.Clone().
			WithMetadata(map[string]any{"reason": "API token id is required"})
	}

	model := s.fromState(state)
	model.RequestedBy = requestedBy
	if model.IssueDate.IsZero() {
		model.IssueDate = s.clock()
	}
	if model.ModDate.IsZero() {
		model.ModDate = model.IssueDate
	}

	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to store API token").
			WithMetadata(map[string]any{"id": state.ID})
	}
	return nil
}

// Revoke stamps the revocation date. Revoking an already revoked token
// keeps the first date.
func (s *APITokenStore) Revoke(ctx context.Context, id string) error {
	now := s.clock()
	res, err := s.db.NewUpdate().
		Model((*APITokenModel)(nil)).
		Set("revoke_date = ?", now).
		Set("mod_date = ?", now).
		Where("token_id = ?", id).
		Where("revoke_date IS NULL").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to revoke API token").
			WithMetadata(map[string]any{"id": id})
	}

	n, err := res.RowsAffected()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to revoke API token").
			WithMetadata(map[string]any{"id": id})
	}
	if n > 0 {
		return nil
	}
	_, err = s.find(ctx, id)
	return err
}

// Delete removes the token record.
func (s *APITokenStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().
		Model((*APITokenModel)(nil)).
		Where("token_id = ?", id).
		Exec(ctx)
	return err
}

func (s *APITokenStore) toState(m *APITokenModel) *auth.APITokenState {
	state := &auth.APITokenState{
		ID:               m.ID,
		UserID:           m.UserID,
		ClusterID:        m.ClusterID,
		IssueDate:        m.IssueDate,
		Revoked:          m.RevokeDate != nil,
		AllowFromNetwork: m.AllowedFrom,
		ModDate:          m.ModDate,
		Claims:           m.MetaData,
		Clock:            s.clock,
	}
	if m.ExpireDate != nil {
		state.Expires = *m.ExpireDate
	}
	return state
}

func (s *APITokenStore) fromState(state *auth.APITokenState) *APITokenModel {
	model := &APITokenModel{
		ID:          state.ID,
		UserID:      state.UserID,
		IssueDate:   state.IssueDate,
		AllowedFrom: state.AllowFromNetwork,
		ClusterID:   state.ClusterID,
		MetaData:    state.Claims,
		ModDate:     state.ModDate,
	}
	if !state.Expires.IsZero() {
		expires := state.Expires
		model.ExpireDate = &expires
	}
	if state.Revoked {
		revoked := state.ModDate
		if revoked.IsZero() {
			revoked = s.clock()
		}
		model.RevokeDate = &revoked
	}
	return model
}

func notFound(id string) error {
	return auth.ErrAPITokenNotFound.Clone().WithMetadata(map[string]any{"id": id})
}
