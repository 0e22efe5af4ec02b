// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package link encodes notebook queries into shareable URL fragments and back.
//
// A fragment looks like "#queries%3D1%252F0%26queries%3DN%255BPi%255D": every query
// is escaped and prefixed with "queries=", the pairs are joined with "&", and the
// joined string is escaped once more as a whole. The second layer matches links
// produced by the web front end, so links shared from either side open in both.
package link

import (
	"net/url"
	"strings"

	apperrors "mathnb/cli/internal/errors"
)

// Key prefixes every query in a fragment.
const Key = "queries="

const upperhex = "0123456789ABCDEF"

// Encode builds a fragment (including the leading '#') for queries.
func Encode(queries []string) string {
	parts := make([]string, 0, len(queries))
	for _, q := range queries {
		parts = append(parts, Key+EscapeComponent(q))
	}
	return "#" + EscapeComponent(strings.Join(parts, "&"))
}

// Decode extracts the queries from a fragment. The leading '#' is optional.
// An empty fragment yields an empty list. Empty queries are dropped.
func Decode(fragment string) ([]string, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return []string{}, nil
	}

	// Outer layer: links from the web front end escape the joined pairs once
	// more, so no literal '&' or '=' survives in them.
	if !strings.ContainsAny(fragment, "&=") && strings.Contains(fragment, "%") {
		outer, err := url.PathUnescape(fragment)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.LinkDecodeFailed, "malformed link", err)
		}
		fragment = outer
	}

	queries := []string{}
	for _, segment := range strings.Split(fragment, "&") {
		if !strings.HasPrefix(segment, Key) {
			continue
		}
		q, err := url.PathUnescape(strings.TrimPrefix(segment, Key))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.LinkDecodeFailed, "malformed query in link", err)
		}
		if q == "" {
			continue
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// ShareURL appends the fragment for queries to base, replacing any existing fragment.
func ShareURL(base string, queries []string) string {
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + Encode(queries)
}

// FragmentOf returns the fragment of a pasted URL. Input without a '#' that does
// not parse as an absolute URL is treated as a bare fragment.
func FragmentOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[i+1:]
	}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return ""
	}
	return raw
}

// EscapeComponent escapes s the way encodeURIComponent does: every byte outside
// A-Z a-z 0-9 and -_.!~*'() becomes %XX.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
