package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 60*time.Second, cfg.EvalTimeout())
}

func TestSaveAndLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	want := Default()
	want.Server = "https://nb.example.org"
	want.ReplayRPS = 2
	want.StoreDSN = "postgres://u:secret@db/nb"

	require.NoError(t, SaveFile(p, want))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadFile(p)
	require.NoError(t, err)
	want.StoreDSN = ""
	assert.Equal(t, want, got)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"server":"http://file","log_level":"warn"}`), 0o600))

	t.Setenv("MATHNB_SERVER", "http://env")
	t.Setenv("MATHNB_TRANSPORT", "grpc")
	t.Setenv("MATHNB_GRPC_ADDR", "grpc://localhost:50051")
	t.Setenv("MATHNB_EVAL_TIMEOUT", "5")
	t.Setenv("MATHNB_REPLAY_RPS", "0.5")
	t.Setenv("MATHNB_STORE_DSN", "postgres://localhost/nb")

	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.Server)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, TransportGRPC, cfg.Transport)
	assert.Equal(t, 5*time.Second, cfg.EvalTimeout())
	assert.Equal(t, 0.5, cfg.ReplayRPS)
	assert.Equal(t, "postgres://localhost/nb", cfg.StoreDSN)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "ws" }, wantErr: true},
		{name: "grpc without address", mutate: func(c *Config) { c.Transport = TransportGRPC }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store = StorePostgres }, wantErr: true},
		{name: "postgres with dsn", mutate: func(c *Config) { c.Store = StorePostgres; c.StoreDSN = "postgres://x/y" }},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "s3" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
