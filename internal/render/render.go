// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render draws notebook sessions in the terminal: numbered input and
// output cells, evaluator messages, the plain-code view, worksheet listings and
// live replay progress.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"mathnb/cli/internal/gallery"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

var (
	inStyle      = pterm.NewStyle(pterm.FgLightCyan)
	outStyle     = pterm.NewStyle(pterm.FgLightBlue)
	prefixStyle  = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	messageStyle = pterm.NewStyle(pterm.FgYellow)
	titleStyle   = pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
)

// Renderer writes cells to w.
type Renderer struct {
	w io.Writer
}

// New creates a renderer on w; nil means os.Stdout.
func New(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stdout
	}
	return &Renderer{w: w}
}

// InLabel is the input prompt of the cell at 0-based index i.
func InLabel(i int) string { return fmt.Sprintf("In[%d]:= ", i+1) }

// OutLabel is the output label of the cell at 0-based index i.
func OutLabel(i int) string { return fmt.Sprintf("Out[%d]= ", i+1) }

// FormatItem renders one output item. Messages show "prefix: text" with the
// prefix highlighted; prints are shown verbatim.
func FormatItem(item session.OutputItem) string {
	if !item.IsMessage {
		return item.Text
	}
	if item.Prefix == "" {
		return messageStyle.Sprint(item.Text)
	}
	return prefixStyle.Sprint(item.Prefix) + messageStyle.Sprint(session.MessageSeparator+item.Text)
}

// FormatEntry renders the cell at index i: the request, then for every result
// group its output items followed by its result.
func FormatEntry(i int, e session.QueryEntry) string {
	var b strings.Builder
	b.WriteString(inStyle.Sprint(InLabel(i)))
	b.WriteString(indentContinuation(e.Request, len(InLabel(i))))
	b.WriteString("\n")

	for _, g := range e.Results {
		for _, item := range g.Out {
			b.WriteString(FormatItem(item))
			b.WriteString("\n")
		}
		if g.Result != "" {
			b.WriteString(outStyle.Sprint(OutLabel(i)))
			b.WriteString(indentContinuation(g.Result, len(OutLabel(i))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// indentContinuation aligns multi-line text under its label.
func indentContinuation(s string, width int) string {
	return strings.ReplaceAll(s, "\n", "\n"+strings.Repeat(" ", width))
}

// Entry writes the cell at index i followed by a blank line.
func (r *Renderer) Entry(i int, e session.QueryEntry) {
	pterm.Fprintln(r.w, FormatEntry(i, e))
}

// Session writes every cell in order.
func (r *Renderer) Session(entries []session.QueryEntry) {
	if len(entries) == 0 {
		pterm.Fprintln(r.w, "(empty session)")
		return
	}
	for i, e := range entries {
		r.Entry(i, e)
	}
}

// Code writes the plain-code view: requests only, separated by blank lines.
func (r *Renderer) Code(entries []session.QueryEntry) {
	pterm.Fprintln(r.w, worksheet.PlainText(entries))
}

// Worksheets writes a bulleted list of worksheet names.
func (r *Renderer) Worksheets(infos []worksheet.Info) {
	if len(infos) == 0 {
		pterm.Fprintln(r.w, "No saved worksheets.")
		return
	}
	pterm.Fprintln(r.w, titleStyle.Sprint("Saved worksheets"))
	items := make([]string, len(infos))
	for i, info := range infos {
		items[i] = info.Name
	}
	r.bullets(items)
}

// Gallery writes the example sections and their queries.
func (r *Renderer) Gallery(sections []gallery.Section) {
	for _, s := range sections {
		pterm.Fprintln(r.w, titleStyle.Sprint(s.Title)+" ("+s.Name+")")
		r.bullets(s.Queries)
	}
}

func (r *Renderer) bullets(items []string) {
	list := make([]pterm.BulletListItem, len(items))
	for i, s := range items {
		list[i] = pterm.BulletListItem{Level: 0, Text: s}
	}
	text, _ := pterm.DefaultBulletList.WithItems(list).Srender()
	pterm.Fprintln(r.w, text)
}
