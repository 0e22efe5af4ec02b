// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/worksheet"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// Hint returns the follow-up advice for an error kind, or "".
func Hint(err error) string {
	var de *worksheet.DecodeError
	switch {
	case errors.As(err, &de):
		return "The worksheet content is damaged; your current session was left unchanged."
	case apperrors.Is(err, apperrors.AuthRequired):
		return "Run 'mathnb login' and try again."
	case apperrors.Is(err, apperrors.LinkDecodeFailed):
		return "Check that the link was copied completely."
	case apperrors.Is(err, apperrors.PersistenceFailed):
		return "The worksheet store did not accept the request; your session was left unchanged."
	}
	return ""
}

// ShowError writes a masked, styled error with its hint to w.
func ShowError(w io.Writer, context string, err error) {
	if err == nil {
		return
	}
	pterm.Fprintln(w, pterm.Error.Sprint(PresentError(context, err)))
	if h := Hint(err); h != "" {
		pterm.Fprintln(w, pterm.NewStyle(pterm.FgYellow).Sprint("→ "+h))
	}
}
