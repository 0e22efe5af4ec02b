package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrUnauthorized is returned by account endpoints when the token was rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDeviceLinkExpired ends device-link polling.
	ErrDeviceLinkExpired = errors.New("device link expired or was denied")
)

// BeginDeviceLink fetches a magic link from the get-link endpoint.
// It initiates the device authorization flow by requesting a link and device code from the server.
// Returns the magic link URL, device ID/code, polling interval in seconds, and any error.
func (h *HTTP) BeginDeviceLink(ctx context.Context) (string, string, int, error) {
	resp, err := h.client.R().SetContext(ctx).Get(h.url(h.endpoints.GetLink))
	if err != nil {
		return "", "", 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", "", 0, fmt.Errorf("get-link failed: %s", strings.TrimSpace(resp.String()))
	}

	// Be liberal in what we accept: decode into a map first
	var raw map[string]any
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return "", "", 0, err
	}

	link := extractLink(raw)
	if link == "" {
		return "", "", 0, errors.New("empty magic link")
	}

	interval := 3
	if v, ok := raw["interval"].(float64); ok && v >= 1 {
		interval = int(v)
	}
	return link, extractDeviceID(raw, link), interval, nil
}

func extractLink(raw map[string]any) string {
	for _, key := range []string{"link", "verification_uri_complete", "url"} {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// extractDeviceID extracts the device ID/code from various possible fields in the response.
func extractDeviceID(raw map[string]any, link string) string {
	for _, key := range []string{"device_id", "deviceId", "code", "user_code", "device_code"} {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return extractDeviceIDFromURL(link)
}

// extractDeviceIDFromURL attempts to extract a device ID from query parameters or path segments.
func extractDeviceIDFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	q := u.Query()
	for _, key := range []string{"device_id", "deviceId", "code"} {
		if v := q.Get(key); v != "" {
			return v
		}
	}

	// Fallback: use last non-empty path segment
	parts := strings.Split(u.Path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}

// PollDeviceLink posts {device_id} to the get-token endpoint.
// Returns empty tokens while the authorization is pending.
func (h *HTTP) PollDeviceLink(ctx context.Context, deviceID string) (string, string, error) {
	resp, err := h.client.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json, */*").
		SetBody(map[string]string{"device_id": deviceID}).
		Post(h.url(h.endpoints.GetToken))
	if err != nil {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		// Transient; the caller keeps polling.
		return "", "", nil
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		if token := findBearerTokenInHeaders(resp.Header()); token != "" {
			return token, "", nil
		}
		access, refresh := parseTokensFromBody(resp.Body(), resp.Header().Get("Content-Type"))
		return access, refresh, nil
	case http.StatusGone, http.StatusForbidden:
		return "", "", ErrDeviceLinkExpired
	default:
		// 202, 204, 400, 404: pending
		return "", "", nil
	}
}

// parseTokensFromBody extracts access and refresh tokens from the response body.
// It supports both JSON responses (with nested structures) and plain text responses.
func parseTokensFromBody(body []byte, contentType string) (string, string) {
	lowerCT := strings.ToLower(contentType)
	if strings.Contains(lowerCT, "json") || contentType == "" {
		var anyBody any
		if err := json.Unmarshal(body, &anyBody); err == nil {
			var access, refresh string
			walkJSON(anyBody, &access, &refresh)
			return access, refresh
		}
	}
	return strings.TrimSpace(string(body)), ""
}

// walkJSON recursively searches a JSON structure for access and refresh tokens.
func walkJSON(node any, access *string, refresh *string) {
	if *access != "" && *refresh != "" {
		return
	}

	switch v := node.(type) {
	case map[string]any:
		for k, vv := range v {
			lk := strings.ToLower(strings.ReplaceAll(k, "_", ""))
			if s, ok := vv.(string); ok {
				val := strings.TrimSpace(s)
				switch {
				case *access == "" && (lk == "accesstoken" || lk == "access" || lk == "token"):
					*access = val
				case *access == "" && lk == "authorization":
					*access = parseBearerToken(val)
				case *refresh == "" && (lk == "refreshtoken" || lk == "refresh"):
					*refresh = val
				}
			}
			walkJSON(vv, access, refresh)
		}
	case []any:
		for _, e := range v {
			walkJSON(e, access, refresh)
		}
	}
}

// CheckDevice calls POST on the device-confirm endpoint with Authorization: Bearer <token>.
// It verifies the device authorization and returns the user ID if successful.
func (h *HTTP) CheckDevice(ctx context.Context, accessToken string) (string, error) {
	resp, err := h.client.R().SetContext(ctx).
		SetAuthToken(accessToken).
		Post(h.url(h.endpoints.ConfirmDevice))
	if err != nil {
		return "", err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		var out map[string]any
		if err := json.Unmarshal(resp.Body(), &out); err == nil {
			if v, ok := out["user_id"].(string); ok && v != "" {
				return v, nil
			}
		}
		return "", errors.New("unexpected response")
	case http.StatusUnauthorized:
		return "", ErrUnauthorized
	}
	return "", fmt.Errorf("check-device failed: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
}

// Logout invalidates the access token on the server and clears cached user data.
func (h *HTTP) Logout(ctx context.Context, accessToken string) error {
	h.meCache.Flush()

	resp, err := h.client.R().SetContext(ctx).
		SetAuthToken(accessToken).
		Post(h.url(h.endpoints.Logout))
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusOK || resp.StatusCode() == http.StatusNoContent {
		return nil
	}
	return fmt.Errorf("logout failed: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
}
