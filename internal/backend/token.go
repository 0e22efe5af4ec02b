// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// parseBearerToken extracts token from a value like "Bearer <token>" case-insensitively.
// Returns the token string without the "Bearer " prefix, or empty string if invalid format.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 || !strings.EqualFold(v[:6], "bearer") {
		return ""
	}
	return strings.TrimSpace(v[6:])
}

// findBearerTokenInHeaders returns the bearer token from the Authorization header, if any.
func findBearerTokenInHeaders(h http.Header) string {
	return parseBearerToken(h.Get("Authorization"))
}

// RefreshToken calls the token-refresh endpoint to get a new access token.
// The server may choose to rotate the refresh token or keep it the same.
func (h *HTTP) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	resp, err := h.client.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		Post(h.url(h.endpoints.RefreshToken))
	if err != nil {
		return "", "", err
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusUnauthorized {
			return "", "", errors.New("refresh token expired or invalid")
		}
		return "", "", fmt.Errorf("refresh-token failed: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var result map[string]any
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", "", err
	}

	newAccessToken := firstString(result, "access_token", "accessToken", "token")
	if newAccessToken == "" {
		return "", "", errors.New("no access_token in response")
	}
	return newAccessToken, firstString(result, "refresh_token", "refreshToken"), nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
