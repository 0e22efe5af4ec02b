// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"io"

	"github.com/pterm/pterm"

	"mathnb/cli/internal/config"
	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/httperrors"
	"mathnb/cli/internal/logging"
)

// presentError writes err for the user. Transport failures get troubleshooting
// hints; everything else is shown masked with the hint for its kind.
func presentError(w io.Writer, action string, err error) {
	switch {
	case err == nil, errors.Is(err, errInterrupted):
		return
	case isTransportFailure(err):
		if settings.Transport == config.TransportGRPC {
			pterm.Fprintln(w, logging.FormatTransportError(err))
			return
		}
		if action == "" {
			action = "contacting the notebook server"
		}
		httperrors.Describe(err, action, httperrors.ExtractHostFromURL(settings.Server)).Fprint(w)
	default:
		logging.ShowError(w, action, err)
	}
}

// isTransportFailure reports whether err means the server or evaluator could
// not be reached, as opposed to an answer it gave.
func isTransportFailure(err error) bool {
	if apperrors.Is(err, apperrors.AuthRequired) {
		return false
	}
	if logging.ClassifyTransportError(err) == logging.TransportErrorNetwork {
		return true
	}
	return httperrors.IsNetworkError(err)
}
