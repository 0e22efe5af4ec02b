// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package worksheet converts notebook sessions to and from the transport
// document exchanged with the worksheet store and shown in the code view.
//
// The transport document is a JSON array of entries:
//
//	[{"request": "1/0",
//	  "results": [{"out": [{"message": true, "prefix": "Power::infy", "text": "..."}],
//	               "result": "ComplexInfinity"}]}]
//
// Serialize and Deserialize are pure conversions between the session model and
// the Document type. Encode and Decode convert a Document to and from the flat
// text payload; Decode validates the payload field by field and reports the
// first offending path.
package worksheet

import (
	"encoding/json"
	"strings"

	"mathnb/cli/internal/session"
)

// Item is the transport form of session.OutputItem.
type Item struct {
	Message bool   `json:"message"`
	Prefix  string `json:"prefix"`
	Text    string `json:"text"`
}

// Group is the transport form of session.ResultGroup.
type Group struct {
	Out    []Item `json:"out"`
	Result string `json:"result"`
}

// Entry is the transport form of session.QueryEntry.
type Entry struct {
	Request string  `json:"request"`
	Results []Group `json:"results"`
}

// Document is an ordered transport document.
type Document []Entry

// Serialize walks entries in order and produces their transport document.
func Serialize(entries []session.QueryEntry) Document {
	doc := make(Document, 0, len(entries))
	for _, e := range entries {
		te := Entry{Request: e.Request, Results: make([]Group, 0, len(e.Results))}
		for _, g := range e.Results {
			tg := Group{Out: make([]Item, 0, len(g.Out)), Result: g.Result}
			for _, o := range g.Out {
				tg.Out = append(tg.Out, Item{Message: o.IsMessage, Prefix: o.Prefix, Text: o.Text})
			}
			te.Results = append(te.Results, tg)
		}
		doc = append(doc, te)
	}
	return doc
}

// Deserialize rebuilds session entries from a transport document.
// Requests are copied verbatim.
func Deserialize(doc Document) []session.QueryEntry {
	entries := make([]session.QueryEntry, 0, len(doc))
	for _, te := range doc {
		e := session.QueryEntry{Request: te.Request}
		if len(te.Results) > 0 {
			e.Results = make([]session.ResultGroup, 0, len(te.Results))
		}
		for _, tg := range te.Results {
			g := session.ResultGroup{Result: tg.Result}
			if len(tg.Out) > 0 {
				g.Out = make([]session.OutputItem, 0, len(tg.Out))
			}
			for _, ti := range tg.Out {
				g.Out = append(g.Out, session.OutputItem{IsMessage: ti.Message, Prefix: ti.Prefix, Text: ti.Text})
			}
			e.Results = append(e.Results, g)
		}
		entries = append(entries, e)
	}
	return entries
}

// Encode renders the document as the flat text payload stored by worksheet stores.
func Encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	return json.Marshal(doc)
}

// EncodeIndent renders the document for the code view.
func EncodeIndent(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Parse decodes a payload straight into session entries.
func Parse(content []byte) ([]session.QueryEntry, error) {
	doc, err := Decode(content)
	if err != nil {
		return nil, err
	}
	return Deserialize(doc), nil
}

// PlainText lists the requests of entries, one query per paragraph.
func PlainText(entries []session.QueryEntry) string {
	return strings.Join(session.Requests(entries), "\n\n")
}
