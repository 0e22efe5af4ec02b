// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the in-memory notebook state: the ordered list of
// queries a user submitted and the results the evaluator returned for them.
//
// The Store is the only owner of that state. Loaders, the serializer and the
// renderer receive copies and never keep references into the store.
package session

import "strings"

// MessageSeparator separates a message tag from its body in rendered message text,
// e.g. "Power::infy: Infinite expression 1 / 0 encountered.".
const MessageSeparator = ": "

// OutputItem is a single diagnostic message or printed line emitted by the evaluator.
type OutputItem struct {
	// IsMessage distinguishes an engine diagnostic from a plain print.
	IsMessage bool
	// Prefix is the message tag (e.g. "Power::infy"). Always empty for prints.
	Prefix string
	// Text is the content after the prefix for messages, or the whole print.
	Text string
}

// Message builds a message item from its rendered text, splitting at the first separator.
func Message(rendered string) OutputItem {
	prefix, text := SplitMessage(rendered)
	return OutputItem{IsMessage: true, Prefix: prefix, Text: text}
}

// Print builds a plain print item.
func Print(text string) OutputItem {
	return OutputItem{Text: text}
}

// Rendered returns the combined display text of the item.
// A message with an empty prefix renders as its text alone.
func (o OutputItem) Rendered() string {
	if !o.IsMessage || o.Prefix == "" {
		return o.Text
	}
	return o.Prefix + MessageSeparator + o.Text
}

// SplitMessage splits rendered message text at the first occurrence of ": ".
// Text without a separator yields an empty prefix and the whole input as text.
func SplitMessage(rendered string) (prefix, text string) {
	i := strings.Index(rendered, MessageSeparator)
	if i < 0 {
		return "", rendered
	}
	return rendered[:i], rendered[i+len(MessageSeparator):]
}

// ResultGroup is the evaluator's answer to one statement.
type ResultGroup struct {
	// Out preserves the emission order of messages and prints.
	Out []OutputItem
	// Result is the formatted final value, or empty if there is none.
	Result string
}

// QueryEntry pairs a submitted query with the result groups it produced.
type QueryEntry struct {
	Request string
	Results []ResultGroup
}

// NewEntry returns an unsent entry holding only the request text.
func NewEntry(request string) QueryEntry {
	return QueryEntry{Request: request}
}

// Clone returns a deep copy so callers can never alias store-owned slices.
func (e QueryEntry) Clone() QueryEntry {
	out := QueryEntry{Request: e.Request}
	if e.Results == nil {
		return out
	}
	out.Results = make([]ResultGroup, len(e.Results))
	for i, g := range e.Results {
		cg := ResultGroup{Result: g.Result}
		if g.Out != nil {
			cg.Out = append([]OutputItem(nil), g.Out...)
		}
		out.Results[i] = cg
	}
	return out
}

// Requests extracts the request texts of entries in order.
func Requests(entries []QueryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Request)
	}
	return out
}
