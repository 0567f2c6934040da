// Package postgres provides a configuration overlay backed by a Postgres
// key/value table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table read when WithTable is not supplied. It must
// have text columns "key" and "value".
const DefaultTable = "jclouds_properties"

// Option is a functional option for configuring a Source
type Option func(*Source)

// WithTable sets the table to read. Schema-qualified names are accepted.
func WithTable(table string) Option {
	return func(s *Source) {
		s.table = table
	}
}

// Source loads provider configuration rows from Postgres. It satisfies the
// config.Source interface; the pool is owned by the caller.
type Source struct {
	pool  *pgxpool.Pool
	table string
}

// NewSource creates a Source reading from pool.
func NewSource(pool *pgxpool.Pool, opts ...Option) *Source {
	s := &Source{
		pool:  pool,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every key/value row from the configured table.
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT key, value FROM %s", sanitizeTable(s.table)))
	if err != nil {
		return nil, fmt.Errorf("config: query %s: %w", s.table, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("config: scan %s: %w", s.table, err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", s.table, err)
	}
	return values, nil
}

// sanitizeTable quotes the (possibly schema-qualified) table name; the
// table is configuration, not user input, but it still never reaches the
// query text unquoted.
func sanitizeTable(table string) string {
	parts := pgx.Identifier{}
	start := 0
	for i := 0; i <= len(table); i++ {
		if i == len(table) || table[i] == '.' {
			parts = append(parts, table[start:i])
			start = i + 1
		}
	}
	return parts.Sanitize()
}
