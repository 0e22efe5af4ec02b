// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"time"

	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

// GuardEvaluator routes every evaluation through g. Under a loader timeout
// only the evaluator calls are bounded; the login in between runs on the
// caller's context.
func GuardEvaluator(g *Gate, ev loader.Evaluator) loader.AttemptEvaluator {
	return &guardedEvaluator{gate: g, inner: ev}
}

type guardedEvaluator struct {
	gate  *Gate
	inner loader.Evaluator
}

func (e *guardedEvaluator) Evaluate(ctx context.Context, query string) ([]session.ResultGroup, error) {
	return e.EvaluateWithin(ctx, query, 0)
}

func (e *guardedEvaluator) EvaluateWithin(ctx context.Context, query string, timeout time.Duration) ([]session.ResultGroup, error) {
	return Run(ctx, e.gate, func(ctx context.Context) ([]session.ResultGroup, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return e.inner.Evaluate(ctx, query)
	})
}

// GuardStore routes every worksheet operation of s through g.
func GuardStore(g *Gate, s worksheet.Store) worksheet.Store {
	return &guardedStore{gate: g, inner: s}
}

type guardedStore struct {
	gate  *Gate
	inner worksheet.Store
}

func (s *guardedStore) SaveWorksheet(ctx context.Context, name, content string, overwrite bool) (worksheet.SaveResult, error) {
	return Run(ctx, s.gate, func(ctx context.Context) (worksheet.SaveResult, error) {
		return s.inner.SaveWorksheet(ctx, name, content, overwrite)
	})
}

func (s *guardedStore) OpenWorksheet(ctx context.Context, name string) (string, error) {
	return Run(ctx, s.gate, func(ctx context.Context) (string, error) {
		return s.inner.OpenWorksheet(ctx, name)
	})
}

func (s *guardedStore) ListWorksheets(ctx context.Context) ([]worksheet.Info, error) {
	return Run(ctx, s.gate, func(ctx context.Context) ([]worksheet.Info, error) {
		return s.inner.ListWorksheets(ctx)
	})
}
