// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"mathnb/cli/internal/manifest"
)

var _ API = (*HTTP)(nil)

// New creates the HTTP backend for baseURL with manifest endpoints.
func New(baseURL string, endpoints manifest.HTTPEndpoints, opts ...Option) *HTTP {
	return newHTTP(baseURL, endpoints, opts...)
}
