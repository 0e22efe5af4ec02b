// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent with every request the CLI makes.
const UserAgent = "mathnb-cli/1.0"

// errNoManifest marks a server that does not publish a manifest.
var errNoManifest = fmt.Errorf("server publishes no endpoint manifest")

// fetchFromServer retrieves {baseURL}/api/endpoints.json and merges it over
// the defaults.
func fetchFromServer(ctx context.Context, baseURL string) (*Manifest, error) {
	client := resty.New().
		SetTimeout(5*time.Second).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json")

	resp, err := client.R().SetContext(ctx).Get(baseURL + Path)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errNoManifest
	default:
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode())
	}

	var m Manifest
	if err := json.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("parse manifest JSON: %w", err)
	}
	m.merge(Default())
	return &m, nil
}
