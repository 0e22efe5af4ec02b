// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/worksheet"
)

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want TransportErrorType
	}{
		{name: "nil", err: nil, want: TransportErrorUnknown},
		{name: "grpc unauthenticated", err: status.Error(codes.Unauthenticated, "no token"), want: TransportErrorAuth},
		{name: "grpc deadline", err: status.Error(codes.DeadlineExceeded, "slow"), want: TransportErrorTimeout},
		{name: "grpc unavailable", err: status.Error(codes.Unavailable, "down"), want: TransportErrorUnavailable},
		{name: "grpc internal", err: status.Error(codes.Internal, "boom"), want: TransportErrorInternal},
		{name: "refused", err: errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"), want: TransportErrorNetwork},
		{name: "timeout text", err: errors.New("context deadline exceeded"), want: TransportErrorTimeout},
		{name: "auth kind", err: apperrors.New(apperrors.AuthRequired, "login"), want: TransportErrorAuth},
		{name: "other", err: errors.New("weird"), want: TransportErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTransportError(tt.err))
		})
	}
}

func TestFormatTransportErrorMasksDetails(t *testing.T) {
	out := FormatTransportError(errors.New("Bearer abc.def rejected: unauthorized"))
	assert.Contains(t, out, "mathnb login")
	assert.NotContains(t, out, "abc.def")
}

func TestHint(t *testing.T) {
	assert.Contains(t, Hint(&worksheet.DecodeError{Path: "[0]", Reason: "bad"}), "unchanged")
	assert.Contains(t, Hint(apperrors.New(apperrors.AuthRequired, "x")), "login")
	assert.Equal(t, "", Hint(errors.New("plain")))
}

func TestPresentError(t *testing.T) {
	assert.Equal(t, "", PresentError("ctx", nil))
	assert.Equal(t, "open: postgres://*:*@db/x", PresentError("open", errors.New("postgres://u:p@db/x")))
	assert.Equal(t, "boom", PresentError("", errors.New("boom")))
}
