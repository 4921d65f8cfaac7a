package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	auth "github.com/goliatone/go-auth-token"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// ClusterModel is the Bun model for the single-row cluster table.
type ClusterModel struct {
	bun.BaseModel `bun:"table:cluster"`

	ClusterID string `bun:"cluster_id,pk"`
}

// ClusterSource reads the cluster id from the database, creating it on
// first use.
type ClusterSource struct {
	db *bun.DB
}

var _ auth.ClusterIDSource = (*ClusterSource)(nil)

func NewClusterSource(db *bun.DB) *ClusterSource {
	return &ClusterSource{db: db}
}

// CurrentClusterID implements auth.ClusterIDSource.
func (s *ClusterSource) CurrentClusterID(ctx context.Context) (string, error) {
	var id string
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := selectClusterID(ctx, tx)
		if err == nil {
			id = current
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if _, err := tx.NewInsert().
			Model(&ClusterModel{ClusterID: uuid.NewString()}).
			On("CONFLICT DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}

		id, err = selectClusterID(ctx, tx)
		return err
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to resolve cluster id")
	}
	return id, nil
}

func selectClusterID(ctx context.Context, db bun.IDB) (string, error) {
	var model ClusterModel
	err := db.NewSelect().
		Model(&model).
		OrderExpr("cluster_id").
		Limit(1).
		Scan(ctx)
	return strings.TrimSpace(model.ClusterID), err
}

// RedisClusterSource shares one cluster id between nodes through a Redis
// key. The first node to ask stores a fresh id.
type RedisClusterSource struct {
	client redis.UniversalClient
	key    string
}

var _ auth.ClusterIDSource = (*RedisClusterSource)(nil)

func NewRedisClusterSource(client redis.UniversalClient, key string) *RedisClusterSource {
	return &RedisClusterSource{client: client, key: key}
}

// CurrentClusterID implements auth.ClusterIDSource.
func (s *RedisClusterSource) CurrentClusterID(ctx context.Context) (string, error) {
	if s.client == nil {
		return "", goerrors.New("redis client is not configured", goerrors.CategoryInternal)
	}

	id, err := s.client.Get(ctx, s.key).Result()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", s.wrap(err)
	}

	if _, err := s.client.SetNX(ctx, s.key, uuid.NewString(), 0).Result(); err != nil {
		return "", s.wrap(err)
	}

	id, err = s.client.Get(ctx, s.key).Result()
	if err != nil {
		return "", s.wrap(err)
	}
	return id, nil
}

func (s *RedisClusterSource) wrap(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to resolve cluster id").
		WithMetadata(map[string]any{"key": s.key})
}
