// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package render

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/session"
)

// Progress presents a replay: every appended cell is printed as it arrives,
// and on an interactive terminal a progress bar tracks the remaining queries.
type Progress struct {
	r     *Renderer
	live  bool
	total int
	title string

	mu      sync.Mutex
	bar     *pterm.ProgressbarPrinter
	done    int
	started time.Time
	// summary is the last finished report.
	summary loader.Report
}

// NewProgress creates a presenter for a replay of total queries.
func NewProgress(r *Renderer, title string, total int, live bool) *Progress {
	return &Progress{r: r, title: title, total: total, live: live && total > 0}
}

// Hooks returns the loader callbacks driving this presenter.
func (p *Progress) Hooks() loader.Hooks {
	return loader.Hooks{
		OnStart:    p.onStart,
		OnEntry:    p.onEntry,
		OnFinished: p.onFinished,
	}
}

func (p *Progress) onStart(i int, query string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		p.started = time.Now()
	}
	if !p.live {
		return
	}
	if p.bar == nil {
		cursor.Hide()
		p.bar, _ = pterm.DefaultProgressbar.
			WithTotal(p.total).
			WithTitle(p.title).
			WithRemoveWhenDone(true).
			Start()
		if p.bar != nil && p.done > 0 {
			p.bar.Add(p.done)
		}
	}
	if p.bar != nil {
		p.bar.UpdateTitle(fmt.Sprintf("%s %d/%d  %s", p.title, i+1, p.total, Truncate(query, 40)))
	}
}

func (p *Progress) onEntry(_ int, idx int, e session.QueryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.r.Entry(idx, e)
	p.done++
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *Progress) onFinished(rep loader.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopBar()
	p.summary = rep
	var elapsed time.Duration
	if !p.started.IsZero() {
		elapsed = time.Since(p.started)
	}
	pterm.Fprintln(p.r.w, Summary(rep, elapsed))
}

// Pause takes the progress bar off the terminal so a prompt can be shown.
// The bar returns with the next query.
func (p *Progress) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopBar()
}

func (p *Progress) stopBar() {
	if p.bar == nil {
		return
	}
	_, _ = p.bar.Stop()
	p.bar = nil
	cursor.Show()
}

// Report returns the report of the finished replay.
func (p *Progress) Report() loader.Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

// Summary is the one-line outcome of a replay.
func Summary(rep loader.Report, elapsed time.Duration) string {
	line := fmt.Sprintf("Evaluated %d of %d queries", rep.Appended, rep.Requested)
	if rep.Failed > 0 {
		line += fmt.Sprintf(", %d failed", rep.Failed)
	}
	if elapsed > 0 {
		line += " in " + elapsed.Round(10*time.Millisecond).String()
	}
	if rep.Appended < rep.Requested {
		return pterm.Warning.Sprint(line + " (stopped early)")
	}
	if rep.Failed > 0 {
		return pterm.Warning.Sprint(line)
	}
	return pterm.Success.Sprint(line)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
// Line breaks are flattened.
func Truncate(s string, n int) string {
	flat := []rune{}
	for _, r := range s {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		flat = append(flat, r)
	}
	if utf8.RuneCountInString(s) <= n || n < 2 {
		return string(flat)
	}
	return string(flat[:n-1]) + "…"
}
