// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	assert.Equal(t, "auth_required: login needed", New(AuthRequired, "login needed").Error())
	assert.Equal(t,
		"persistence_error: save failed: boom",
		Wrap(PersistenceFailed, "save failed", stderrors.New("boom")).Error())
}

func TestIsFollowsChain(t *testing.T) {
	inner := New(AuthRequired, "login needed")
	outer := Wrap(PersistenceFailed, "open worksheet", inner)
	wrapped := fmt.Errorf("cmd: %w", outer)

	assert.True(t, Is(wrapped, PersistenceFailed))
	assert.True(t, Is(wrapped, AuthRequired))
	assert.False(t, Is(wrapped, DecodeFailed))
	assert.False(t, Is(stderrors.New("plain"), AuthRequired))
	assert.False(t, Is(nil, AuthRequired))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, EvaluationFailed, KindOf(fmt.Errorf("x: %w", New(EvaluationFailed, "bad"))))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("plain")))
}
