package manifest

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// GetEndpoints returns the manifest endpoints for baseURL, using the RAM cache
// if available. A server without a manifest, or one that cannot be reached,
// yields the defaults; the failure is only logged because the default layout
// is always usable.
func GetEndpoints(ctx context.Context, baseURL string, log *zap.Logger) *Manifest {
	baseURL = strings.TrimRight(baseURL, "/")
	if cached := GetCached(baseURL); cached != nil {
		return cached
	}

	m, err := fetchFromServer(ctx, baseURL)
	if err != nil {
		if log != nil {
			log.Debug("endpoint manifest unavailable, using defaults",
				zap.String("base", baseURL), zap.Error(err))
		}
		def := Default()
		m = &def
	}

	SetCached(baseURL, m)
	return m
}
