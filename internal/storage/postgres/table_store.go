// Package postgres provides the Postgres-backed table store for converted
// record sets.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// TableStoreConfig controls the Postgres connection pool.
type TableStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type txQuerier interface {
	Begin(context.Context) (pgx.Tx, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// TableStore replaces whole tables with converted record sets and runs
// read queries against them.
type TableStore struct {
	pool txQuerier
}

// NewTableStore connects to Postgres and verifies the connection with a ping.
func NewTableStore(ctx context.Context, cfg TableStoreConfig) (*TableStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: store.dsn is required", etl.ErrStore)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres dsn: %v", etl.ErrStore, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %v", etl.ErrStore, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", etl.ErrStore, err)
	}
	return &TableStore{pool: pool}, nil
}

// NewTableStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewTableStoreWithPool(pool txQuerier) (*TableStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &TableStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *TableStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// ReplaceTable drops table, recreates it from the set's schema, and bulk-loads
// every record, all in one transaction. A failure leaves the previous table in
// place.
func (s *TableStore) ReplaceTable(ctx context.Context, table string, set etl.ConvertedSet) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("%w: table store is not configured", etl.ErrStore)
	}
	create, columns, err := createStatement(table, set.Schema)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", etl.ErrStore, err)
	}
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return rollback(ctx, tx, fmt.Errorf("drop %s: %w", table, err))
	}
	if _, err := tx.Exec(ctx, create); err != nil {
		return rollback(ctx, tx, fmt.Errorf("create %s: %w", table, err))
	}

	rows := make([][]any, 0, set.Len())
	for _, rec := range set.Records {
		row := make([]any, 0, len(columns))
		row = append(row, rec.Name)
		for _, v := range rec.Numbers() {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{strings.ToLower(table)}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("copy into %s: %w", table, err))
	}
	if copied != int64(len(rows)) {
		return rollback(ctx, tx, fmt.Errorf("copy into %s: wrote %d of %d rows", table, copied, len(rows)))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit %s: %v", etl.ErrStore, table, err)
	}
	return nil
}

// Query runs a read statement and collects every row.
func (s *TableStore) Query(ctx context.Context, query string) (etl.QueryResult, error) {
	if s == nil || s.pool == nil {
		return etl.QueryResult{}, fmt.Errorf("%w: table store is not configured", etl.ErrStore)
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return etl.QueryResult{}, fmt.Errorf("%w: query %q: %v", etl.ErrStore, query, err)
	}
	defer rows.Close()

	result := etl.QueryResult{Query: query}
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return etl.QueryResult{}, fmt.Errorf("%w: scan %q: %v", etl.ErrStore, query, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return etl.QueryResult{}, fmt.Errorf("%w: iterate %q: %v", etl.ErrStore, query, err)
	}
	return result, nil
}

// createStatement builds the DDL for the schema and the lower-cased column
// list used by COPY. Unquoted identifiers fold to lower case in Postgres, so
// the COPY target must be lower-cased to match.
func createStatement(table string, schema etl.Schema) (string, []string, error) {
	if !validIdentifier.MatchString(table) {
		return "", nil, fmt.Errorf("%w: invalid table name %q", etl.ErrStore, table)
	}
	fields := schema.Fields()
	defs := make([]string, 0, len(fields))
	columns := make([]string, 0, len(fields))
	for i, f := range fields {
		if !validIdentifier.MatchString(f) {
			return "", nil, fmt.Errorf("%w: invalid column name %q", etl.ErrStore, f)
		}
		typ := "DOUBLE PRECISION"
		if i == 0 {
			typ = "TEXT"
		}
		defs = append(defs, f+" "+typ+" NOT NULL")
		columns = append(columns, strings.ToLower(f))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", ")), columns, nil
}

func rollback(ctx context.Context, tx pgx.Tx, cause error) error {
	if err := tx.Rollback(ctx); err != nil {
		return fmt.Errorf("%w: %v (rollback: %v)", etl.ErrStore, cause, err)
	}
	return fmt.Errorf("%w: %v", etl.ErrStore, cause)
}
