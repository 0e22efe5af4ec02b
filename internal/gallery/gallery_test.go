// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSections(t *testing.T) {
	ss, err := Sections()
	require.NoError(t, err)
	require.Len(t, ss, 3)
	assert.Equal(t, "constants", ss[0].Name)
	assert.Equal(t, "N[Pi, 50]", ss[0].Queries[0])
}

func TestAllKeepsFileOrder(t *testing.T) {
	all, err := All()
	require.NoError(t, err)

	ss, _ := Sections()
	total := 0
	for _, s := range ss {
		total += len(s.Queries)
	}
	require.Len(t, all, total)
	assert.Equal(t, "N[Pi, 50]", all[0])
	assert.Equal(t, "Solve[f[x] == 0, x]", all[len(all)-1])
}

func TestLookup(t *testing.T) {
	q, err := Lookup("calculus")
	require.NoError(t, err)
	// The definition precedes its uses.
	assert.Equal(t, "f[x_] := x^3 - 2 x", q[1])

	_, err = Lookup("nope")
	assert.Error(t, err)
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	_, err := Parse([]byte("sections:\n  - title: no name\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("sections:\n  - name: a\n  - name: a\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("sections: [\n"))
	assert.Error(t, err)
}
