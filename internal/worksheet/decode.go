// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package worksheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/session"
)

// DecodeError reports a malformed transport document.
// Path names the first offending field, e.g. "[2].results[0].out[1].text".
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "malformed worksheet: " + e.Reason
	}
	return fmt.Sprintf("malformed worksheet at %s: %s", e.Path, e.Reason)
}

// Unwrap exposes the error kind to apperrors.Is.
func (e *DecodeError) Unwrap() error {
	return apperrors.New(apperrors.DecodeFailed, e.Reason)
}

func fail(path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Decode parses a flat text payload into a Document.
// An empty payload or JSON null decodes to an empty document.
func Decode(content []byte) (Document, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Document{}, nil
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON: " + err.Error()}
	}
	if raw == nil {
		return Document{}, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fail("", "expected an array of entries, got %s", typeName(raw))
	}

	doc := make(Document, 0, len(list))
	for i, v := range list {
		path := fmt.Sprintf("[%d]", i)
		e, err := decodeEntry(path, v)
		if err != nil {
			return nil, err
		}
		doc = append(doc, e)
	}
	return doc, nil
}

func decodeEntry(path string, v any) (Entry, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Entry{}, fail(path, "expected an object, got %s", typeName(v))
	}

	request, err := requiredString(obj, path, "request")
	if err != nil {
		return Entry{}, err
	}

	rawResults, present := obj["results"]
	if !present {
		return Entry{}, fail(path+".results", "missing required field")
	}
	groups, err := decodeGroups(path+".results", rawResults, false)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Request: request, Results: groups}, nil
}

// DecodeResults decodes an evaluator "results" array.
// Message items that arrive as combined text (no prefix field) are split at the
// first separator.
func DecodeResults(raw any) ([]session.ResultGroup, error) {
	groups, err := decodeGroups("results", raw, true)
	if err != nil {
		return nil, err
	}
	return Deserialize(Document{{Results: groups}})[0].Results, nil
}

func decodeGroups(path string, v any, splitCombined bool) ([]Group, error) {
	if v == nil {
		return []Group{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fail(path, "expected an array, got %s", typeName(v))
	}

	groups := make([]Group, 0, len(list))
	for i, gv := range list {
		gpath := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := gv.(map[string]any)
		if !ok {
			return nil, fail(gpath, "expected an object, got %s", typeName(gv))
		}

		result, err := optionalString(obj, gpath, "result")
		if err != nil {
			return nil, err
		}

		g := Group{Result: result, Out: []Item{}}
		if rawOut, ok := obj["out"]; ok && rawOut != nil {
			outList, ok := rawOut.([]any)
			if !ok {
				return nil, fail(gpath+".out", "expected an array, got %s", typeName(rawOut))
			}
			for j, iv := range outList {
				item, err := decodeItem(fmt.Sprintf("%s.out[%d]", gpath, j), iv, splitCombined)
				if err != nil {
					return nil, err
				}
				g.Out = append(g.Out, item)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func decodeItem(path string, v any, splitCombined bool) (Item, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Item{}, fail(path, "expected an object, got %s", typeName(v))
	}

	text, err := requiredString(obj, path, "text")
	if err != nil {
		return Item{}, err
	}

	var message bool
	if mv, ok := obj["message"]; ok && mv != nil {
		b, ok := mv.(bool)
		if !ok {
			return Item{}, fail(path+".message", "expected a boolean, got %s", typeName(mv))
		}
		message = b
	}

	_, hasPrefix := obj["prefix"]
	prefix, err := optionalString(obj, path, "prefix")
	if err != nil {
		return Item{}, err
	}

	if message && !hasPrefix && splitCombined {
		prefix, text = session.SplitMessage(text)
	}
	if !message {
		prefix = ""
	}
	return Item{Message: message, Prefix: prefix, Text: text}, nil
}

func requiredString(obj map[string]any, path, field string) (string, error) {
	v, ok := obj[field]
	if !ok {
		return "", fail(path+"."+field, "missing required field")
	}
	s, ok := v.(string)
	if !ok {
		return "", fail(path+"."+field, "expected a string, got %s", typeName(v))
	}
	return s, nil
}

func optionalString(obj map[string]any, path, field string) (string, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fail(path+"."+field, "expected a string, got %s", typeName(v))
	}
	return s, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
	}
}
