package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var driverAliases = map[string]string{
	DriverSQLite:   DriverSQLite,
	"sqlite":       DriverSQLite,
	DriverPostgres: DriverPostgres,
	"pgx":          DriverPostgres,
}

// NormalizeDriver maps a configured driver name to DriverSQLite or
// DriverPostgres. An empty name selects SQLite.
func NormalizeDriver(driver string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		return DriverSQLite, true
	}
	canonical, ok := driverAliases[name]
	return canonical, ok
}

// SupportedDrivers lists every accepted driver name.
func SupportedDrivers() []string {
	names := make([]string, 0, len(driverAliases))
	for name := range driverAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to the database named by driver and dsn and verifies the
// connection. An empty driver selects SQLite.
func Open(ctx context.Context, driver, dsn string) (*bun.DB, error) {
	var db *bun.DB

	canonical, ok := NormalizeDriver(driver)
	if !ok {
		return nil, goerrors.New("unsupported database driver", goerrors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER").
			WithMetadata(map[string]any{"driver": driver, "supported": SupportedDrivers()})
	}

	switch canonical {
	case DriverSQLite:
		sqldb, err := sql.Open(DriverSQLite, dsn)
		if err != nil {
			return nil, openError(err, driver)
		}
		if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, openError(err, driver)
		}
		db = bun.NewDB(stdlib.OpenDB(*cfg), pgdialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, openError(err, driver)
	}
	return db, nil
}

func openError(err error, driver string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open database").
		WithMetadata(map[string]any{"driver": driver})
}

// CreateSchema creates the api_token_issued and cluster tables when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*APITokenModel)(nil), (*ClusterModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create schema")
		}
	}
	return nil
}
