// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package render

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathnb/cli/internal/gallery"
	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

func init() {
	pterm.DisableStyling()
}

func TestFormatEntry(t *testing.T) {
	e := session.QueryEntry{
		Request: "1 / 0",
		Results: []session.ResultGroup{{
			Out: []session.OutputItem{
				session.Message("Power::infy: Infinite expression 1 / 0 encountered."),
				session.Print("debug line"),
			},
			Result: "ComplexInfinity",
		}},
	}

	got := FormatEntry(1, e)
	want := "In[2]:= 1 / 0\n" +
		"Power::infy: Infinite expression 1 / 0 encountered.\n" +
		"debug line\n" +
		"Out[2]= ComplexInfinity\n"
	assert.Equal(t, want, got)
}

func TestFormatEntryWithoutResult(t *testing.T) {
	e := session.QueryEntry{
		Request: "f[x_] := x^2",
		Results: []session.ResultGroup{{Out: []session.OutputItem{}}},
	}
	assert.Equal(t, "In[1]:= f[x_] := x^2\n", FormatEntry(0, e))
}

func TestFormatEntryAlignsMultilineRequest(t *testing.T) {
	e := session.QueryEntry{Request: "a = 1;\nb = 2"}
	assert.Equal(t, "In[1]:= a = 1;\n        b = 2\n", FormatEntry(0, e))
}

func TestFormatItemWithoutPrefix(t *testing.T) {
	assert.Equal(t, "bare message", FormatItem(session.OutputItem{IsMessage: true, Text: "bare message"}))
}

func TestRendererViews(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	entries := []session.QueryEntry{{Request: "N[Pi]"}, {Request: "1 + 1"}}
	r.Code(entries)
	assert.Equal(t, "N[Pi]\n\n1 + 1\n", buf.String())

	buf.Reset()
	r.Session(nil)
	assert.Contains(t, buf.String(), "empty session")

	buf.Reset()
	r.Worksheets([]worksheet.Info{{Name: "calc"}, {Name: "limits"}})
	out := buf.String()
	assert.Contains(t, out, "calc")
	assert.Less(t, strings.Index(out, "calc"), strings.Index(out, "limits"))

	buf.Reset()
	r.Gallery([]gallery.Section{{Name: "constants", Title: "Constants", Queries: []string{"N[Pi, 50]"}}})
	assert.Contains(t, buf.String(), "Constants (constants)")
	assert.Contains(t, buf.String(), "N[Pi, 50]")
}

func TestProgressPrintsEntriesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(New(&buf), "Loading", 2, false)
	h := p.Hooks()

	h.OnStart(0, "1 + 1")
	h.OnEntry(0, 0, session.QueryEntry{Request: "1 + 1", Results: []session.ResultGroup{{Result: "2"}}})
	h.OnStart(1, "1 / 0")
	h.OnEntry(1, 1, session.QueryEntry{Request: "1 / 0"})
	h.OnFinished(loader.Report{Requested: 2, Appended: 2, Failed: 1, LastIndex: 1})

	out := buf.String()
	assert.Contains(t, out, "Out[1]= 2")
	assert.Contains(t, out, "In[2]:= 1 / 0")
	assert.Contains(t, out, "Evaluated 2 of 2 queries, 1 failed")
	assert.Equal(t, 1, p.Report().Failed)
}

func TestSummaryStoppedEarly(t *testing.T) {
	s := Summary(loader.Report{Requested: 3, Appended: 1}, time.Second)
	assert.Contains(t, s, "Evaluated 1 of 3 queries in 1s (stopped early)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "a b", Truncate("a\nb", 10))
}

func TestPrompterConfirm(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(bufio.NewReader(strings.NewReader("\nyes\nn\n")), &out)

	assert.True(t, p.Confirm("Overwrite?", true))
	assert.True(t, p.Confirm("Overwrite?", false))
	assert.False(t, p.Confirm("Overwrite?", true))
	// End of input declines.
	assert.False(t, p.Confirm("Overwrite?", true))
	assert.Contains(t, out.String(), "Overwrite? [Y/n]")
}

func TestProgressPauseStopsLiveBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(New(&buf), "Loading", 2, true)
	h := p.Hooks()

	h.OnStart(0, "1 + 1")
	require.NotNil(t, p.bar)
	h.OnEntry(0, 0, session.QueryEntry{Request: "1 + 1"})

	p.Pause()
	assert.Nil(t, p.bar)

	h.OnStart(1, "2 + 2")
	require.NotNil(t, p.bar)
	assert.Equal(t, 1, p.bar.Current)
	h.OnEntry(1, 1, session.QueryEntry{Request: "2 + 2"})
	h.OnFinished(loader.Report{Requested: 2, Appended: 2, LastIndex: 1})
	assert.Nil(t, p.bar)
	assert.Contains(t, buf.String(), "Evaluated 2 of 2 queries")
}
