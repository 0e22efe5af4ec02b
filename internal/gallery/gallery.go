// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gallery provides the canned example queries of the notebook.
// The examples are replayed through the same loader as share links.
package gallery

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var examplesYAML []byte

// Section is a named, ordered group of example queries.
type Section struct {
	Name    string   `yaml:"name"`
	Title   string   `yaml:"title"`
	Queries []string `yaml:"queries"`
}

type file struct {
	Sections []Section `yaml:"sections"`
}

var (
	loadOnce sync.Once
	sections []Section
	loadErr  error
)

// Parse reads a gallery definition.
func Parse(data []byte) ([]Section, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing gallery: %w", err)
	}
	seen := make(map[string]bool, len(f.Sections))
	for i, s := range f.Sections {
		if s.Name == "" {
			return nil, fmt.Errorf("parsing gallery: section %d has no name", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("parsing gallery: duplicate section %q", s.Name)
		}
		seen[s.Name] = true
	}
	return f.Sections, nil
}

// Sections returns the built-in gallery sections in file order.
func Sections() ([]Section, error) {
	loadOnce.Do(func() {
		sections, loadErr = Parse(examplesYAML)
	})
	return sections, loadErr
}

// All returns every built-in example query, in order.
func All() ([]string, error) {
	ss, err := Sections()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range ss {
		out = append(out, s.Queries...)
	}
	return out, nil
}

// Lookup returns the queries of a single section.
func Lookup(name string) ([]string, error) {
	ss, err := Sections()
	if err != nil {
		return nil, err
	}
	for _, s := range ss {
		if s.Name == name {
			return append([]string(nil), s.Queries...), nil
		}
	}
	return nil, fmt.Errorf("unknown gallery section %q", name)
}
