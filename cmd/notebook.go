// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/gallery"
	"mathnb/cli/internal/link"
	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

// errInterrupted is returned when Ctrl-C stopped a replay.
var errInterrupted = errors.New("interrupted")

// replayOutcome turns a replay result into the command outcome. A cancelled
// replay keeps the cells evaluated so far.
func (a *app) replayOutcome(rep loader.Report, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		pterm.Warning.Printfln("Interrupted after %d of %d queries; evaluated cells were kept", rep.Appended, rep.Requested)
		return errInterrupted
	}
	return err
}

// loadLink clears the session and replays the queries of a share link.
func (a *app) loadLink(ctx context.Context, raw string) error {
	queries, err := link.Decode(link.FragmentOf(raw))
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		pterm.Info.Println("The link contains no queries")
		return nil
	}
	a.log.Info("loading link", zap.Int("queries", len(queries)))
	return a.replayOutcome(a.replay(ctx, "Loading link", queries, true))
}

// loadGallery clears the session and replays the built-in examples, or one section of them.
func (a *app) loadGallery(ctx context.Context, section string) error {
	var (
		queries []string
		err     error
	)
	if section == "" {
		queries, err = gallery.All()
	} else {
		queries, err = gallery.Lookup(section)
	}
	if err != nil {
		return err
	}
	return a.replayOutcome(a.replay(ctx, "Loading examples", queries, true))
}

// shareLink returns the link reproducing the current session.
func (a *app) shareLink() string {
	return link.ShareURL(shareBase(a.cfg.Server), session.Requests(a.store.Entries()))
}

func shareBase(server string) string {
	return strings.TrimRight(server, "/") + "/"
}

// openWorksheet replaces the session with a saved worksheet without
// re-evaluating it. On failure the current session is kept.
func (a *app) openWorksheet(ctx context.Context, name string) error {
	ws, err := a.worksheetStore(ctx)
	if err != nil {
		return err
	}
	content, err := ws.OpenWorksheet(ctx, name)
	if err != nil {
		return err
	}
	if err := a.session.Restore([]byte(content)); err != nil {
		return fmt.Errorf("opening %q: %w", name, err)
	}
	return nil
}

// saveSession stores the current session under name.
func (a *app) saveSession(ctx context.Context, name string, overwrite bool) (bool, error) {
	content, err := worksheet.Encode(worksheet.Serialize(a.store.Entries()))
	if err != nil {
		return false, err
	}
	return a.saveContent(ctx, name, string(content), overwrite)
}

// saveContent saves a worksheet payload. When the name is taken and overwrite
// was not requested, an interactive user is asked before retrying with
// overwrite. It reports whether the worksheet was written.
func (a *app) saveContent(ctx context.Context, name, content string, overwrite bool) (bool, error) {
	ws, err := a.worksheetStore(ctx)
	if err != nil {
		return false, err
	}
	res, err := ws.SaveWorksheet(ctx, name, content, overwrite)
	if err != nil {
		return false, err
	}
	if res.NeedsOverwrite() {
		if !a.live {
			return false, fmt.Errorf("worksheet %q already exists; use --overwrite to replace it", name)
		}
		if !a.prompt.Confirm(fmt.Sprintf("Worksheet %q already exists. Overwrite?", name), false) {
			pterm.Info.Println("Not saved")
			return false, nil
		}
		if res, err = ws.SaveWorksheet(ctx, name, content, true); err != nil {
			return false, err
		}
	}
	if len(res.Form) > 0 {
		return false, apperrors.New(apperrors.PersistenceFailed, formErrors(res.Form))
	}
	a.log.Info("worksheet saved", zap.String("name", name))
	return true, nil
}

// formErrors flattens per-field validation errors into one message.
func formErrors(form map[string][]string) string {
	fields := make([]string, 0, len(form))
	for f := range form {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(form[f], "; "))
	}
	return "rejected: " + strings.Join(parts, ", ")
}

// listWorksheets prints the saved worksheets.
func (a *app) listWorksheets(ctx context.Context) error {
	ws, err := a.worksheetStore(ctx)
	if err != nil {
		return err
	}
	infos, err := ws.ListWorksheets(ctx)
	if err != nil {
		return err
	}
	a.out.Worksheets(infos)
	return nil
}
