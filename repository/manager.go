package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager groups the database backed stores.
type Manager struct {
	db        *bun.DB
	apiTokens *APITokenStore
	clusters  *ClusterSource
}

func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:        db,
		apiTokens: NewAPITokenStore(db),
		clusters:  NewClusterSource(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.apiTokens == nil {
		return errors.New("repository apiTokens should be initialized")
	}

	if m.clusters == nil {
		return errors.New("repository clusters should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// Migrate creates the tables used by the stores.
func (m *Manager) Migrate(ctx context.Context) error {
	return CreateSchema(ctx, m.db)
}

func (m *Manager) APITokens() *APITokenStore {
	return m.apiTokens
}

func (m *Manager) Clusters() *ClusterSource {
	return m.clusters
}

func (m *Manager) Close() error {
	return m.db.Close()
}
