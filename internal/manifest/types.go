// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest handles dynamic notebook server endpoint configuration.
package manifest

import (
	"net/url"
	"strings"
)

// Path of the optional manifest document relative to the server base URL.
const Path = "/api/endpoints.json"

// Manifest represents the endpoint configuration from the server.
type Manifest struct {
	Version int           `json:"version"`
	GRPC    GRPCEndpoints `json:"grpc"`
	HTTP    HTTPEndpoints `json:"http"`
}

// GRPCEndpoints contains gRPC service addresses.
type GRPCEndpoints struct {
	Evaluator string `json:"evaluator_origin"` // e.g. "grpcs://eval.example.org" or "grpc://localhost:50051"
}

// HTTPEndpoints contains REST API endpoint paths.
type HTTPEndpoints struct {
	Query         string `json:"query"`          // e.g. "/api/query"
	Save          string `json:"worksheet_save"` // e.g. "/api/save"
	Open          string `json:"worksheet_open"` // e.g. "/api/open"
	List          string `json:"worksheet_list"` // e.g. "/api/list"
	ConfirmDevice string `json:"device_confirm"`
	GetToken      string `json:"token_issue"`
	GetLink       string `json:"device_get_link"`
	RefreshToken  string `json:"token_refresh"`
	Logout        string `json:"device_logout"`
	Me            string `json:"account_whoami"`
	Version       string `json:"version"`
}

// Default returns the endpoint layout of a stock notebook server.
func Default() Manifest {
	return Manifest{
		Version: 1,
		HTTP: HTTPEndpoints{
			Query:         "/api/query",
			Save:          "/api/save",
			Open:          "/api/open",
			List:          "/api/list",
			ConfirmDevice: "/api/cli/check-device",
			GetToken:      "/api/cli/get-token",
			GetLink:       "/api/cli/get-link",
			RefreshToken:  "/api/cli/refresh-token",
			Logout:        "/api/cli/logout",
			Me:            "/api/cli/me",
			Version:       "/api/version",
		},
	}
}

// merge fills the empty fields of m from def.
func (m *Manifest) merge(def Manifest) {
	if m.Version == 0 {
		m.Version = def.Version
	}
	if m.GRPC.Evaluator == "" {
		m.GRPC.Evaluator = def.GRPC.Evaluator
	}
	h, d := &m.HTTP, def.HTTP
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&h.Query, d.Query},
		{&h.Save, d.Save},
		{&h.Open, d.Open},
		{&h.List, d.List},
		{&h.ConfirmDevice, d.ConfirmDevice},
		{&h.GetToken, d.GetToken},
		{&h.GetLink, d.GetLink},
		{&h.RefreshToken, d.RefreshToken},
		{&h.Logout, d.Logout},
		{&h.Me, d.Me},
		{&h.Version, d.Version},
	} {
		if strings.TrimSpace(*f.dst) == "" {
			*f.dst = f.src
		}
	}
}

// GRPCAddress extracts the host:port from the evaluator URL and reports
// whether TLS should be used (grpcs:// or https://).
func (m *Manifest) GRPCAddress() (addr string, secure bool) {
	return ParseGRPCOrigin(m.GRPC.Evaluator)
}

// ParseGRPCOrigin splits an origin such as "grpcs://eval.example.org:443" into
// its host:port and TLS flag. A bare host:port is treated as plaintext.
func ParseGRPCOrigin(origin string) (string, bool) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", false
	}
	if !strings.Contains(origin, "://") {
		return origin, false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	secure := u.Scheme == "grpcs" || u.Scheme == "https"
	host := u.Host
	if u.Port() == "" {
		if secure {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	return host, secure
}
