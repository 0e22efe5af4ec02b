// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package pgstore keeps worksheets in a PostgreSQL table instead of on the
// notebook server. It honours the same save semantics as the server: a name
// clash without overwrite answers "overwrite" and stores nothing.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/worksheet"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS worksheets (
	owner      TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	content    TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner, name)
)`

// MaxNameLength bounds worksheet names.
const MaxNameLength = 30

// Store implements worksheet.Store over a pgx pool.
type Store struct {
	pool  *pgxpool.Pool
	owner string
	log   *zap.Logger
}

var _ worksheet.Store = (*Store)(nil)

// Open normalizes dsn, connects, pings and ensures the table exists.
func Open(ctx context.Context, dsn, owner string, log *zap.Logger) (*Store, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctxPing, normalized)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.PersistenceFailed, "connect to worksheet database", err)
	}
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(apperrors.PersistenceFailed, "connect to worksheet database", err)
	}

	s := New(pool, owner, log)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. owner scopes every row; empty means "default".
func New(pool *pgxpool.Pool, owner string, log *zap.Logger) *Store {
	if owner == "" {
		owner = "default"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, owner: owner, log: log}
}

// EnsureSchema creates the worksheets table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return apperrors.Wrap(apperrors.PersistenceFailed, "create worksheets table", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// validate returns field errors in the shape the notebook server uses.
func validate(name, content string) map[string][]string {
	form := map[string][]string{}
	switch n := strings.TrimSpace(name); {
	case n == "":
		form["name"] = []string{"This field is required."}
	case utf8.RuneCountInString(n) > MaxNameLength:
		form["name"] = []string{fmt.Sprintf("Ensure this value has at most %d characters.", MaxNameLength)}
	}
	if _, err := worksheet.Decode([]byte(content)); err != nil {
		form["content"] = []string{err.Error()}
	}
	if len(form) == 0 {
		return nil
	}
	return form
}

// SaveWorksheet stores content under name.
func (s *Store) SaveWorksheet(ctx context.Context, name, content string, overwrite bool) (worksheet.SaveResult, error) {
	if form := validate(name, content); form != nil {
		return worksheet.SaveResult{Form: form}, nil
	}
	name = strings.TrimSpace(name)

	query := `INSERT INTO worksheets (owner, name, content) VALUES ($1, $2, $3)
		ON CONFLICT (owner, name) DO NOTHING`
	if overwrite {
		query = `INSERT INTO worksheets (owner, name, content) VALUES ($1, $2, $3)
		ON CONFLICT (owner, name) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`
	}

	tag, err := s.pool.Exec(ctx, query, s.owner, name, content)
	if err != nil {
		return worksheet.SaveResult{}, apperrors.Wrap(apperrors.PersistenceFailed, "save worksheet", err)
	}
	if tag.RowsAffected() == 0 {
		return worksheet.SaveResult{Result: worksheet.SaveOverwrite}, nil
	}
	s.log.Debug("worksheet saved", zap.String("name", name), zap.Bool("overwrite", overwrite))
	return worksheet.SaveResult{Result: worksheet.SaveOK}, nil
}

// OpenWorksheet returns the stored content of name.
func (s *Store) OpenWorksheet(ctx context.Context, name string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM worksheets WHERE owner = $1 AND name = $2`,
		s.owner, strings.TrimSpace(name)).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.New(apperrors.PersistenceFailed, "open worksheet "+name+": not found")
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.PersistenceFailed, "open worksheet "+name, err)
	}
	return content, nil
}

// ListWorksheets returns the owner's worksheets by name.
func (s *Store) ListWorksheets(ctx context.Context) ([]worksheet.Info, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM worksheets WHERE owner = $1 ORDER BY name`, s.owner)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.PersistenceFailed, "list worksheets", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.PersistenceFailed, "list worksheets", err)
	}

	out := make([]worksheet.Info, 0, len(names))
	for _, n := range names {
		out = append(out, worksheet.Info{Name: n})
	}
	return out, nil
}
