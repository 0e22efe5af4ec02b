// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManagerWithRing(keyring.NewArrayKeyring(nil))
}

func TestTokens(t *testing.T) {
	m := newTestManager()

	_, err := m.LoadAccessToken()
	assert.Error(t, err)

	require.NoError(t, m.SaveAuthTokens("access-1", "refresh-1"))
	// Empty values keep the stored token.
	require.NoError(t, m.SaveAuthTokens("access-2", ""))

	access, err := m.LoadAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "access-2", access)

	refresh, err := m.LoadRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)

	require.NoError(t, m.ClearAuth())
	_, err = m.LoadAccessToken()
	assert.Error(t, err)
}

func TestAuthStateMissingIsNil(t *testing.T) {
	m := newTestManager()

	data, err := m.LoadAuthState()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, m.SaveAuthState([]byte(`{"logged_in":true}`)))
	data, err = m.LoadAuthState()
	require.NoError(t, err)
	assert.JSONEq(t, `{"logged_in":true}`, string(data))
}

func TestStoreDSNClearedByClearAll(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.SaveStoreDSN("postgres://localhost/nb"))

	dsn, err := m.LoadStoreDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/nb", dsn)

	require.NoError(t, m.ClearAll())
	_, err = m.LoadStoreDSN()
	assert.Error(t, err)
}
