// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/patrickmn/go-cache"
)

const meCacheKey = "me"

// GetMe calls the me endpoint with the Authorization header.
// Results are cached in memory for ten minutes; a failed request falls back to
// the last cached answer when one exists.
func (h *HTTP) GetMe(ctx context.Context, accessToken string) (map[string]any, error) {
	if v, ok := h.meCache.Get(meCacheKey); ok {
		return v.(map[string]any), nil
	}

	resp, err := h.client.R().SetContext(ctx).
		SetAuthToken(accessToken).
		Get(h.url(h.endpoints.Me))
	if err != nil {
		return h.staleMe(err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		h.meCache.Flush()
		return nil, ErrUnauthorized
	case resp.StatusCode() != http.StatusOK:
		return h.staleMe(fmt.Errorf("get-me failed: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String())))
	}

	var userData map[string]any
	if err := json.Unmarshal(resp.Body(), &userData); err != nil {
		return h.staleMe(err)
	}

	h.meCache.Set(meCacheKey, userData, cache.DefaultExpiration)
	// Stale copy survives the TTL for offline whoami.
	h.meCache.Set(meCacheKey+":stale", userData, cache.NoExpiration)
	return userData, nil
}

func (h *HTTP) staleMe(err error) (map[string]any, error) {
	if v, ok := h.meCache.Get(meCacheKey + ":stale"); ok {
		return v.(map[string]any), nil
	}
	return nil, err
}
