// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides authentication services for the mathnb CLI.
// It manages the device authorization flow, token refresh, session validation
// and the gate that re-runs worksheet operations after a login prompt.
// Tokens and the serialized auth state are stored in the OS keychain.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mathnb/cli/internal/backend"
	"mathnb/cli/internal/keychain"
)

// Service centralizes authentication-related operations against the server
// and the keychain.
type Service struct {
	be  backend.API
	km  *keychain.Manager
	log *zap.Logger
}

// NewService constructs an auth Service.
func NewService(be backend.API, km *keychain.Manager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{be: be, km: km, log: log}
}

// StartLogin begins the device-link login flow.
func (s *Service) StartLogin(ctx context.Context) (authURL string, deviceID string, pollIntervalSeconds int, err error) {
	return s.be.BeginDeviceLink(ctx)
}

// PollLogin attempts to complete login for the given deviceID.
// When tokens are issued, they are saved to the keychain and the state is updated.
// Returns (account, true, nil) on success; (_, false, nil) if still pending.
func (s *Service) PollLogin(ctx context.Context, deviceID string) (string, bool, error) {
	access, refresh, err := s.be.PollDeviceLink(ctx, deviceID)
	if err != nil {
		return "", false, err
	}
	if access == "" {
		return "", false, nil
	}

	if err := s.km.SaveAuthTokens(access, refresh); err != nil {
		return "", false, err
	}
	account := "user"
	if uid, err := s.be.CheckDevice(ctx, access); err == nil && uid != "" {
		account = uid
	}
	if err := SaveState(s.km, State{LoggedIn: true, Account: account}); err != nil {
		s.log.Warn("persist auth state", zap.Error(err))
	}
	s.log.Info("login completed", zap.String("account", account))
	return account, true, nil
}

// WaitForLogin polls every interval until the device is authorized or ctx ends.
// On ctx expiry any partially stored credentials are removed.
func (s *Service) WaitForLogin(ctx context.Context, deviceID string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		account, ok, err := s.PollLogin(ctx, deviceID)
		switch {
		case ok:
			s.WarmCache(ctx)
			return account, nil
		case err != nil && ctx.Err() == nil:
			s.log.Debug("login poll failed", zap.Error(err))
			if errors.Is(err, backend.ErrDeviceLinkExpired) {
				return "", err
			}
		}

		select {
		case <-ctx.Done():
			_ = s.ResetLocalAuth()
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// WhoAmI validates the current access token and returns the account when valid.
// An expired token is refreshed once; when refresh fails the local credentials
// are cleared. Offline, the last persisted state answers.
func (s *Service) WhoAmI(ctx context.Context) (string, bool, error) {
	token, err := s.km.LoadAccessToken()
	if err == nil && token != "" {
		userData, meErr := s.be.GetMe(ctx, token)
		if meErr == nil {
			return accountOf(userData), true, nil
		}

		if errors.Is(meErr, backend.ErrUnauthorized) {
			if refreshed, _ := s.RefreshAccessToken(ctx); !refreshed {
				_ = s.ResetLocalAuth()
				return "", false, nil
			}
			if newToken, err := s.km.LoadAccessToken(); err == nil {
				if userData, err := s.be.GetMe(ctx, newToken); err == nil {
					return accountOf(userData), true, nil
				}
			}
		}

		if uid, err := s.be.CheckDevice(ctx, token); err == nil && uid != "" {
			return uid, true, nil
		}
	}

	st, err := LoadState(s.km)
	if err != nil {
		return "", false, err
	}
	if st.LoggedIn && st.Account != "" {
		return st.Account, true, nil
	}
	return "", false, nil
}

// accountOf picks a display identifier from the me payload.
func accountOf(userData map[string]any) string {
	for _, k := range []string{"email", "user_id", "id"} {
		if v, ok := userData[k].(string); ok && v != "" {
			return v
		}
	}
	return "user"
}

// Logout performs remote logout (best-effort) and clears local credentials/state.
func (s *Service) Logout(ctx context.Context) error {
	if token, err := s.km.LoadAccessToken(); err == nil && token != "" {
		if err := s.be.Logout(ctx, token); err != nil {
			s.log.Debug("remote logout failed", zap.Error(err))
		}
	}
	return s.ResetLocalAuth()
}

// ResetLocalAuth clears only local credentials/state (no remote calls).
func (s *Service) ResetLocalAuth() error {
	return s.km.ClearAuth()
}

// RefreshAccessToken exchanges the stored refresh token for a new access token.
// Returns true if refresh was successful, false otherwise.
func (s *Service) RefreshAccessToken(ctx context.Context) (bool, error) {
	refreshToken, err := s.km.LoadRefreshToken()
	if err != nil || refreshToken == "" {
		return false, err
	}

	newAccess, newRefresh, err := s.be.RefreshToken(ctx, refreshToken)
	if err != nil {
		s.log.Debug("token refresh failed", zap.Error(err))
		return false, err
	}
	if err := s.km.SaveAuthTokens(newAccess, newRefresh); err != nil {
		return false, err
	}
	return true, nil
}

// AccessToken returns the stored access token, or "" when there is none.
// It is the token source for evaluator and worksheet requests.
func (s *Service) AccessToken() string {
	token, err := s.km.LoadAccessToken()
	if err != nil {
		return ""
	}
	return token
}

// WarmCache pre-fetches user data so that whoami works offline right after login.
func (s *Service) WarmCache(ctx context.Context) {
	if token := s.AccessToken(); token != "" {
		_, _ = s.be.GetMe(ctx, token)
	}
}

// GetUserData retrieves full user data from the me endpoint.
func (s *Service) GetUserData(ctx context.Context) (map[string]any, error) {
	token, err := s.km.LoadAccessToken()
	if err != nil {
		return nil, err
	}
	return s.be.GetMe(ctx, token)
}
