// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe access to the OS credential
// store. Notebook login tokens, the serialized auth state and the optional
// worksheet database DSN are kept here and never in config.json.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "mathnb"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAccessToken  = "auth_access_token"
	KeyRefreshToken = "auth_refresh_token"
	KeyAuthState    = "auth_state"
	KeyStoreDSN     = "store_dsn"
)

// ErrEmpty is returned when a key exists but holds no data.
var ErrEmpty = errors.New("empty keychain item")

// Manager provides thread-safe operations on a keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager opens the OS keyring with the native backends of the platform.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewManagerWithRing wraps an already opened keyring (e.g. keyring.NewArrayKeyring in tests).
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// SetManager replaces the global manager. Used by tests.
func SetManager(m *Manager) {
	mu.Lock()
	defer mu.Unlock()
	globalManager = m
}

// openRing opens the OS keyring using native platform backends only; there is
// no encrypted-file fallback.
func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.KeyCtlBackend, keyring.PassBackend}
	default:
		return nil, errors.New("secure storage not supported on " + runtime.GOOS)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
		KeyCtlScope:     "user",
	})
	if err != nil {
		return nil, errors.New("no OS keychain available: " + err.Error())
	}
	return ring, nil
}

func (m *Manager) set(key string, value []byte) error {
	return m.ring.Set(keyring.Item{Key: key, Data: value, Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) ([]byte, error) {
	it, err := m.ring.Get(key)
	if err != nil {
		return nil, err
	}
	if len(it.Data) == 0 {
		return nil, ErrEmpty
	}
	return it.Data, nil
}

func (m *Manager) remove(keys ...string) {
	for _, k := range keys {
		_ = m.ring.Remove(k)
	}
}

// SaveAuthTokens stores access and refresh tokens. Empty values are left untouched.
func (m *Manager) SaveAuthTokens(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accessToken != "" {
		if err := m.set(KeyAccessToken, []byte(accessToken)); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if err := m.set(KeyRefreshToken, []byte(refreshToken)); err != nil {
			return err
		}
	}
	return nil
}

// LoadAccessToken retrieves the access token.
func (m *Manager) LoadAccessToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := m.get(KeyAccessToken)
	return string(b), err
}

// LoadRefreshToken retrieves the refresh token.
func (m *Manager) LoadRefreshToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := m.get(KeyRefreshToken)
	return string(b), err
}

// ClearAuth removes all auth-related secrets.
func (m *Manager) ClearAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(KeyAccessToken, KeyRefreshToken, KeyAuthState)
	return nil
}

// SaveAuthState stores serialized auth state.
func (m *Manager) SaveAuthState(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(KeyAuthState, data)
}

// LoadAuthState retrieves serialized auth state. A missing item yields nil data.
func (m *Manager) LoadAuthState() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := m.get(KeyAuthState)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, ErrEmpty) {
		return nil, nil
	}
	return b, err
}

// ClearAuthState removes the stored auth state.
func (m *Manager) ClearAuthState() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(KeyAuthState)
	return nil
}

// SaveStoreDSN stores the worksheet database DSN.
func (m *Manager) SaveStoreDSN(dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(KeyStoreDSN, []byte(dsn))
}

// LoadStoreDSN retrieves the worksheet database DSN.
func (m *Manager) LoadStoreDSN() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := m.get(KeyStoreDSN)
	return string(b), err
}

// ClearAll removes every secret mathnb stored.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(KeyAccessToken, KeyRefreshToken, KeyAuthState, KeyStoreDSN)
	return nil
}
