// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept in the file; every field can be overridden
// from MATHNB_* environment variables. Tokens live in the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"mathnb/cli/internal/xdg"
)

// EnvPrefix prefixes every environment override, e.g. MATHNB_SERVER.
const EnvPrefix = "MATHNB"

// Transports understood by Transport.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Worksheet stores understood by Store.
const (
	StoreServer   = "server"
	StorePostgres = "postgres"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	// Server is the base URL of the notebook server.
	Server string `json:"server" envconfig:"SERVER"`
	// Transport selects the evaluator transport: "http" or "grpc".
	Transport string `json:"transport" envconfig:"TRANSPORT"`
	// GRPCAddr is the evaluator address when Transport is "grpc",
	// e.g. "grpcs://eval.example.org" or "grpc://localhost:50051".
	GRPCAddr string `json:"grpc_addr" envconfig:"GRPC_ADDR"`
	// Store selects where worksheets are saved: "server" or "postgres".
	Store string `json:"store" envconfig:"STORE"`
	// StoreDSN is the PostgreSQL connection string. Never written to disk.
	StoreDSN string `json:"-" envconfig:"STORE_DSN"`
	// Owner scopes worksheets in the postgres store.
	Owner    string `json:"owner" envconfig:"OWNER"`
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL"`
	// EvalTimeoutSeconds bounds every evaluation; 0 disables the timeout.
	EvalTimeoutSeconds int `json:"eval_timeout_seconds" envconfig:"EVAL_TIMEOUT"`
	// ReplayRPS paces link and gallery replay; 0 disables pacing.
	ReplayRPS float64 `json:"replay_rps" envconfig:"REPLAY_RPS"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:             "http://localhost:8000",
		Transport:          TransportHTTP,
		Store:              StoreServer,
		LogLevel:           "info",
		EvalTimeoutSeconds: 60,
	}
}

// EvalTimeout returns the evaluation timeout as a duration.
func (c Config) EvalTimeout() time.Duration {
	if c.EvalTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.EvalTimeoutSeconds) * time.Second
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
	case TransportGRPC:
		if c.GRPCAddr == "" {
			return errors.New("grpc transport selected but grpc_addr is empty")
		}
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)", c.Transport, TransportHTTP, TransportGRPC)
	}
	switch c.Store {
	case StoreServer:
	case StorePostgres:
		if c.StoreDSN == "" {
			return fmt.Errorf("postgres store selected but %s_STORE_DSN is not set", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown store %q (want %q or %q)", c.Store, StoreServer, StorePostgres)
	}
	return nil
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults. Environment
// overrides are applied on top of the file.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile is Load for an explicit path.
func LoadFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parsing %s: %w", p, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return c, fmt.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile is Save for an explicit path.
func SaveFile(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
