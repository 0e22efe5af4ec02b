// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge selects the transport that carries queries to the evaluator.
// The notebook server speaks HTTP; deployments with a dedicated evaluator can
// expose it over gRPC instead. Both satisfy loader.Evaluator.
package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"mathnb/cli/internal/backend"
	"mathnb/cli/internal/bridge/grpcclient"
	"mathnb/cli/internal/config"
	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/manifest"
)

// Evaluator is a loader.Evaluator holding transport resources.
type Evaluator interface {
	loader.Evaluator
	Close() error
}

// Params describe how to reach the evaluator.
type Params struct {
	Transport string
	// GRPCOrigin overrides the manifest's evaluator origin.
	GRPCOrigin string
	Manifest   *manifest.Manifest
	// HTTP is the notebook server client; it evaluates when Transport is "http".
	HTTP   *backend.HTTP
	Tokens func() string
	Logger *zap.Logger
}

// New creates the evaluator for p.Transport. The gRPC evaluator shares the
// HTTP client's session id so both transports address the same kernel session.
func New(p Params) (Evaluator, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	switch p.Transport {
	case "", config.TransportHTTP:
		if p.HTTP == nil {
			return nil, fmt.Errorf("http transport requires a server client")
		}
		return httpEvaluator{p.HTTP}, nil
	case config.TransportGRPC:
		origin := p.GRPCOrigin
		if origin == "" && p.Manifest != nil {
			origin = p.Manifest.GRPC.Evaluator
		}
		addr, secure := manifest.ParseGRPCOrigin(origin)
		if addr == "" {
			return nil, fmt.Errorf("grpc transport selected but no evaluator address is configured")
		}
		opts := []grpcclient.Option{grpcclient.WithTokenSource(p.Tokens), grpcclient.WithLogger(log)}
		if p.HTTP != nil {
			opts = append(opts, grpcclient.WithSessionID(p.HTTP.SessionID()))
		}
		log.Debug("using grpc evaluator", zap.String("addr", addr), zap.Bool("tls", secure))
		return grpcclient.New(addr, secure, opts...)
	default:
		return nil, fmt.Errorf("unknown transport %q", p.Transport)
	}
}

type httpEvaluator struct{ *backend.HTTP }

func (httpEvaluator) Close() error { return nil }
