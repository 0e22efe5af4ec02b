// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"

	apperrors "mathnb/cli/internal/errors"
)

// LoginFunc runs the interactive login. It returns false when the user declined.
type LoginFunc func(ctx context.Context) (bool, error)

// Gate re-runs operations that failed with AuthRequired. A stored refresh
// token is tried first; after that the login prompt runs and the operation is
// retried once. A declined login returns the original AuthRequired error.
type Gate struct {
	svc   *Service
	login LoginFunc
}

// NewGate creates a gate. svc may be nil to skip the refresh step.
func NewGate(svc *Service, login LoginFunc) *Gate {
	return &Gate{svc: svc, login: login}
}

// Do runs op behind the gate.
func (g *Gate) Do(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if !apperrors.Is(err, apperrors.AuthRequired) {
		return err
	}

	if g.svc != nil {
		if refreshed, _ := g.svc.RefreshAccessToken(ctx); refreshed {
			err = op(ctx)
			if !apperrors.Is(err, apperrors.AuthRequired) {
				return err
			}
		}
	}

	if g.login == nil {
		return err
	}
	ok, lerr := g.login(ctx)
	if lerr != nil {
		return apperrors.Wrap(apperrors.AuthRequired, "login failed", lerr)
	}
	if !ok {
		return err
	}
	return op(ctx)
}

// Run is Do for operations that return a value.
func Run[T any](ctx context.Context, g *Gate, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}
