// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package loader populates a notebook session, either by replaying raw queries
// against the evaluator (share links, the gallery) or by restoring a saved
// worksheet whose results are already known.
package loader

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

// Evaluator runs one query and returns one result group per evaluated statement.
// Evaluators may keep session-scoped state (bindings) between calls.
type Evaluator interface {
	Evaluate(ctx context.Context, query string) ([]session.ResultGroup, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, query string) ([]session.ResultGroup, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, query string) ([]session.ResultGroup, error) {
	return f(ctx, query)
}

// AttemptEvaluator is an Evaluator that may try a query more than once (for
// example around a login). The evaluation timeout then bounds each attempt
// instead of the whole call.
type AttemptEvaluator interface {
	Evaluator
	EvaluateWithin(ctx context.Context, query string, timeout time.Duration) ([]session.ResultGroup, error)
}

// Report describes a finished replay. It replaces the "last focused element"
// the front end tracked globally: LastIndex is where focus should land.
type Report struct {
	Requested int
	Appended  int
	Failed    int
	// LastIndex is the store index of the last appended entry, or -1.
	LastIndex int
}

// Hooks are optional callbacks for the presentation layer.
type Hooks struct {
	// OnStart is called before each evaluation with the query's position in the list.
	OnStart func(i int, query string)
	// OnEntry is called after the entry for query i was appended at store index idx.
	OnEntry func(i, idx int, entry session.QueryEntry)
	// OnFinished is called once the replay ends, including after cancellation.
	OnFinished func(r Report)
}

// Session binds a store to the evaluator that feeds it.
type Session struct {
	Store     *session.Store
	Evaluator Evaluator
	Hooks     Hooks
	// Limiter paces submissions during replay. Nil means no pacing.
	Limiter *rate.Limiter
	// EvalTimeout bounds each evaluation. Zero means no timeout.
	EvalTimeout time.Duration
	Logger      *zap.Logger
}

// New creates a loader session over store and ev.
func New(store *session.Store, ev Evaluator) *Session {
	return &Session{Store: store, Evaluator: ev, Logger: zap.NewNop()}
}

func (s *Session) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Restore replaces the session with the entries of a saved worksheet payload.
// It never calls the evaluator. On a DecodeError the current session is kept.
func (s *Session) Restore(content []byte) error {
	entries, err := worksheet.Parse(content)
	if err != nil {
		s.logger().Warn("restore rejected", zap.Error(err))
		return err
	}
	s.Store.ReplaceWith(entries)
	s.logger().Debug("restored worksheet", zap.Int("entries", len(entries)))
	return nil
}

// RestoreDocument is Restore for an already decoded document.
func (s *Session) RestoreDocument(doc worksheet.Document) {
	s.Store.ReplaceWith(worksheet.Deserialize(doc))
}

// Load clears the session, then replays queries. Used for share links and the gallery.
func (s *Session) Load(ctx context.Context, queries []string) (Report, error) {
	s.Store.Clear()
	return s.Replay(ctx, queries)
}

// Replay evaluates queries strictly one at a time, in order, appending each
// entry before the next query is submitted. A failed evaluation is recorded as
// a message in its entry and replay continues. Cancelling ctx stops further
// submissions; entries appended so far stay in the store.
func (s *Session) Replay(ctx context.Context, queries []string) (Report, error) {
	r := Report{Requested: len(queries), LastIndex: -1}
	defer func() {
		if s.Hooks.OnFinished != nil {
			s.Hooks.OnFinished(r)
		}
	}()

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return r, err
			}
		}
		if s.Hooks.OnStart != nil {
			s.Hooks.OnStart(i, q)
		}

		entry, err := s.evaluate(ctx, q)
		if err != nil {
			// The failure is part of the session; only a cancelled replay stops here.
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			r.Failed++
		}

		s.Store.Append(entry)
		r.Appended++
		r.LastIndex = s.Store.Len() - 1
		if s.Hooks.OnEntry != nil {
			s.Hooks.OnEntry(i, r.LastIndex, entry)
		}
	}
	return r, nil
}

// Evaluate runs a single query through the evaluator and returns its entry.
// The entry is always usable: on failure it carries the error as a message.
func (s *Session) Evaluate(ctx context.Context, query string) (session.QueryEntry, error) {
	return s.evaluate(ctx, query)
}

func (s *Session) evaluate(ctx context.Context, query string) (session.QueryEntry, error) {
	groups, err := s.call(ctx, query)
	if err != nil {
		s.logger().Warn("evaluation failed", zap.String("query", query), zap.Error(err))
		return session.QueryEntry{Request: query, Results: []session.ResultGroup{ErrorGroup(err)}}, err
	}
	s.logger().Debug("evaluated", zap.String("query", query), zap.Int("groups", len(groups)))
	return session.QueryEntry{Request: query, Results: groups}, nil
}

func (s *Session) call(ctx context.Context, query string) ([]session.ResultGroup, error) {
	if s.EvalTimeout <= 0 {
		return s.Evaluator.Evaluate(ctx, query)
	}
	if ae, ok := s.Evaluator.(AttemptEvaluator); ok {
		return ae.EvaluateWithin(ctx, query, s.EvalTimeout)
	}
	ectx, cancel := context.WithTimeout(ctx, s.EvalTimeout)
	defer cancel()
	return s.Evaluator.Evaluate(ectx, query)
}

// ErrorGroup renders an evaluation failure as a message-like output item.
func ErrorGroup(err error) session.ResultGroup {
	prefix := "Evaluation::failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		prefix = "Evaluation::timeout"
	case apperrors.Is(err, apperrors.AuthRequired):
		prefix = "Evaluation::auth"
	}

	text := err.Error()
	var e *apperrors.E
	if errors.As(err, &e) && e.Message != "" {
		text = e.Message
		if e.Err != nil {
			text += " (" + e.Err.Error() + ")"
		}
	}
	return session.ResultGroup{Out: []session.OutputItem{{IsMessage: true, Prefix: prefix, Text: text}}}
}
