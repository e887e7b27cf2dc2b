package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", MaxBodyBytes: 1024},
		Store:  StoreConfig{Driver: "memory"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:        "missing address",
			modify:      func(c *Config) { c.Server.Addr = "" },
			wantErr:     true,
			errContains: "server address is required",
		},
		{
			name:        "zero body size",
			modify:      func(c *Config) { c.Server.MaxBodyBytes = 0 },
			wantErr:     true,
			errContains: "invalid max body size",
		},
		{
			name:        "negative timeout",
			modify:      func(c *Config) { c.Resolver.Timeout = -time.Second },
			wantErr:     true,
			errContains: "timeouts must not be negative",
		},
		{
			name:        "invalid store driver",
			modify:      func(c *Config) { c.Store.Driver = "redis" },
			wantErr:     true,
			errContains: "invalid store driver",
		},
		{
			name:        "dir store without directory",
			modify:      func(c *Config) { c.Store.Driver = "dir" },
			wantErr:     true,
			errContains: "store directory is required",
		},
		{
			name: "valid dir store",
			modify: func(c *Config) {
				c.Store.Driver = "dir"
				c.Store.Dir = "/var/lib/weaver"
			},
			wantErr: false,
		},
		{
			name: "nats store without url",
			modify: func(c *Config) {
				c.Store.Driver = "nats"
				c.Store.Bucket = "docs"
			},
			wantErr:     true,
			errContains: "nats url is required",
		},
		{
			name: "nats store without bucket",
			modify: func(c *Config) {
				c.Store.Driver = "nats"
				c.Store.NATSURL = "nats://localhost:4222"
			},
			wantErr:     true,
			errContains: "bucket is required",
		},
		{
			name: "valid nats store",
			modify: func(c *Config) {
				c.Store.Driver = "nats"
				c.Store.NATSURL = "nats://localhost:4222"
				c.Store.Bucket = "docs"
			},
			wantErr: false,
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Log.Level = "verbose" },
			wantErr:     true,
			errContains: "invalid log level",
		},
		{
			name:        "invalid log format",
			modify:      func(c *Config) { c.Log.Format = "xml" },
			wantErr:     true,
			errContains: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					require.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	BindServeFlags(cmd)
	return cmd
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(newCommand())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
	require.Equal(t, "memory", cfg.Store.Driver)
	require.Equal(t, 10*time.Second, cfg.Resolver.Timeout)
	require.True(t, cfg.Validate.SpecCheck)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.Auth.Tokens)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
server:
  addr: ":9090"
  write-timeout: 1m
auth:
  tokens:
    secret: alice
store:
  driver: dir
  dir: ./documents
resolver:
  base-dir: ./specs
  remote-refs: true
log:
  level: debug
  format: json
`
	err := os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte(configContent), 0644)
	require.NoError(t, err)

	// Change to temp dir so weaver.yaml is found
	chdir(t, tmpDir)

	cfg, err := Load(newCommand())
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, map[string]string{"secret": "alice"}, cfg.Auth.Tokens)
	require.Equal(t, "dir", cfg.Store.Driver)
	require.Equal(t, "./documents", cfg.Store.Dir)
	require.Equal(t, "./specs", cfg.Resolver.BaseDir)
	require.True(t, cfg.Resolver.RemoteRefs)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
server:
  addr: ":9090"
log:
  level: debug
`
	err := os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte(configContent), 0644)
	require.NoError(t, err)
	chdir(t, tmpDir)

	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("addr", ":7070"))
	require.NoError(t, cmd.PersistentFlags().Set("spec-check", "false"))
	require.NoError(t, cmd.Flags().Set("auth-token", "t1=svc"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Validate.SpecCheck)
	require.Equal(t, map[string]string{"t1": "svc"}, cfg.Auth.Tokens)
}

func TestLoadWithExplicitConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
store:
  driver: nats
  nats-url: nats://localhost:4222
`
	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "nats", cfg.Store.Driver)
	require.Equal(t, "nats://localhost:4222", cfg.Store.NATSURL)
	require.Equal(t, "weaver-documents", cfg.Store.Bucket)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("store-driver", "redis"))

	_, err := Load(cmd)
	require.ErrorContains(t, err, "invalid store driver")
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := newCommand()

	cmd.PersistentFlags().Set("log-level", "warn")
	cmd.PersistentFlags().Set("resolve-timeout", "3s")
	cmd.Flags().Set("store-driver", "dir")
	cmd.Flags().Set("store-dir", "./out")

	m := buildFlagsMap(cmd)

	require.Equal(t, "warn", m["log.level"])
	require.Equal(t, "3s", m["resolver.timeout"])
	require.Equal(t, "dir", m["store.driver"])
	require.Equal(t, "./out", m["store.dir"])
	require.NotContains(t, m, "server.addr")
	require.NotContains(t, m, "validate.spec-check")
}
