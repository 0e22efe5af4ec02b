// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the notebook can recover from carries a Kind, so callers decide
// how to recover (render, retry after login, keep the old session) by kind
// rather than by message text.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// DecodeFailed indicates a malformed transport document.
	DecodeFailed Kind = "decode_error"
	// EvaluationFailed indicates the evaluator rejected or failed a query.
	EvaluationFailed Kind = "evaluation_error"
	// PersistenceFailed indicates a save/open/list endpoint failure.
	PersistenceFailed Kind = "persistence_error"
	// AuthRequired indicates the operation needs a logged-in user.
	AuthRequired Kind = "auth_required"
	// LinkDecodeFailed indicates a share link with malformed escapes.
	LinkDecodeFailed Kind = "link_decode_error"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first typed error in err's chain, or "".
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
