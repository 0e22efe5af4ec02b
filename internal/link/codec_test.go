// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mathnb/cli/internal/errors"
)

func TestEncodeDoubleEscapes(t *testing.T) {
	got := Encode([]string{"1/0", "N[Pi]"})
	assert.Equal(t, "#queries%3D1%252F0%26queries%3DN%255BPi%255D", got)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		queries []string
	}{
		{name: "single", queries: []string{"1 + 1"}},
		{name: "ordered", queries: []string{"x = 5", "x^2", "Expand[(x + y)^3]"}},
		{name: "reserved characters", queries: []string{"f[x_] := x / 2 % 3", "a = \"b;c\"", "{1, 2} == {1, 2}"}},
		{name: "unicode", queries: []string{"π + ∞", "Ä"}},
		{name: "unreserved only", queries: []string{"abc-_.!~*'()"}},
		{name: "percent literal", queries: []string{"100%", "%2F"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.queries))
			require.NoError(t, err)
			assert.Equal(t, tt.queries, got)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, fragment := range []string{"", "#"} {
		got, err := Decode(fragment)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestDecodeSingleLayer(t *testing.T) {
	got, err := Decode("queries=1%2F0&other=x&queries=&queries=N%5BPi%5D")
	require.NoError(t, err)
	assert.Equal(t, []string{"1/0", "N[Pi]"}, got)
}

func TestDecodeSingleLayerLeadingForeignSegment(t *testing.T) {
	got, err := Decode("#x=1&queries=50%25")
	require.NoError(t, err)
	assert.Equal(t, []string{"50%"}, got)
}

func TestDecodeIgnoresForeignSegments(t *testing.T) {
	got, err := Decode("#" + EscapeComponent("foo=bar&queries=x&baz"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("#queries%3D%ZZ")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.LinkDecodeFailed))

	_, err = Decode("queries=%ZZ")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.LinkDecodeFailed))
}

func TestEscapeComponent(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc%26d%3De%23f", EscapeComponent("a b+c&d=e#f"))
	assert.Equal(t, "%CF%80", EscapeComponent("π"))
	assert.Equal(t, "Az09-_.!~*'()", EscapeComponent("Az09-_.!~*'()"))
}

func TestShareURLAndFragmentOf(t *testing.T) {
	u := ShareURL("https://notebook.example.org/#old", []string{"1+1"})
	assert.Equal(t, "https://notebook.example.org/#queries%3D1%252B1", u)

	got, err := Decode(FragmentOf(u))
	require.NoError(t, err)
	assert.Equal(t, []string{"1+1"}, got)

	assert.Equal(t, "queries%3Dx", FragmentOf("  queries%3Dx "))
	assert.Equal(t, "", FragmentOf("https://notebook.example.org/"))
}
