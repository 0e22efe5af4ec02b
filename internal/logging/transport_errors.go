// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"strings"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TransportErrorType represents the category of an evaluator transport error.
type TransportErrorType int

const (
	TransportErrorUnknown TransportErrorType = iota
	TransportErrorNetwork
	TransportErrorAuth
	TransportErrorTimeout
	TransportErrorInternal
	TransportErrorUnavailable
)

// ClassifyTransportError categorizes an evaluator transport failure.
// gRPC status codes are used when present, message patterns otherwise.
func ClassifyTransportError(err error) TransportErrorType {
	if err == nil {
		return TransportErrorUnknown
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return TransportErrorAuth
		case codes.DeadlineExceeded:
			return TransportErrorTimeout
		case codes.Unavailable:
			return TransportErrorUnavailable
		case codes.Internal, codes.DataLoss:
			return TransportErrorInternal
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rst_stream"), strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return TransportErrorNetwork
	case strings.Contains(lower, "internal_error"), strings.Contains(lower, "internal server error"):
		return TransportErrorInternal
	case strings.Contains(lower, "unavailable"):
		return TransportErrorUnavailable
	case strings.Contains(lower, "deadline"), strings.Contains(lower, "timeout"):
		return TransportErrorTimeout
	case strings.Contains(lower, "unauthenticated"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "auth_required"):
		return TransportErrorAuth
	}
	return TransportErrorUnknown
}

// FormatTransportError formats an evaluator connection failure in a user-friendly way.
func FormatTransportError(err error) string {
	var b strings.Builder

	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Evaluator unreachable"))
	b.WriteString("\n\n")

	kind := ClassifyTransportError(err)
	switch kind {
	case TransportErrorNetwork:
		b.WriteString("The connection to the evaluator was refused or interrupted.\n")
		b.WriteString("Check the server address ('mathnb --server') and your network.\n")
	case TransportErrorInternal:
		b.WriteString("The evaluator hit an internal error while running the query.\n")
	case TransportErrorUnavailable:
		b.WriteString("The evaluator is currently unavailable (restarting or overloaded).\n")
	case TransportErrorTimeout:
		b.WriteString("The evaluator did not answer in time.\n")
		b.WriteString("Long computations may need a larger MATHNB_EVAL_TIMEOUT.\n")
	case TransportErrorAuth:
		b.WriteString("The evaluator rejected the credentials.\n")
	default:
		b.WriteString("The query could not be delivered to the evaluator.\n")
	}
	b.WriteString("\n")

	if kind == TransportErrorAuth {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'mathnb login' and try again"))
	} else {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Entries evaluated so far were kept"))
	}
	b.WriteString("\n")

	if err != nil {
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return b.String()
}
