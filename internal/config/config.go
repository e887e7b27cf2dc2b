package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "weaver.yaml"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Store    StoreConfig    `koanf:"store"`
	Resolver ResolverConfig `koanf:"resolver"`
	Validate ValidateConfig `koanf:"validate"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read-timeout"`
	WriteTimeout time.Duration `koanf:"write-timeout"`
	MaxBodyBytes int64         `koanf:"max-body-bytes"`
}

type AuthConfig struct {
	// Tokens maps accepted bearer tokens to the subject they identify.
	Tokens map[string]string `koanf:"tokens"`
}

type StoreConfig struct {
	Driver  string `koanf:"driver"`
	Dir     string `koanf:"dir"`
	NATSURL string `koanf:"nats-url"`
	Bucket  string `koanf:"bucket"`
}

type ResolverConfig struct {
	BaseDir    string        `koanf:"base-dir"`
	RemoteRefs bool          `koanf:"remote-refs"`
	Timeout    time.Duration `koanf:"timeout"`
}

type ValidateConfig struct {
	SpecCheck bool `koanf:"spec-check"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":           ":8080",
		"server.read-timeout":   "15s",
		"server.write-timeout":  "30s",
		"server.max-body-bytes": int64(10 << 20),
		"store.driver":          "memory",
		"store.bucket":          "weaver-documents",
		"resolver.timeout":      "10s",
		"validate.spec-check":   true,
		"log.level":             "info",
		"log.format":            "text",
	}
}

// BindCommonFlags binds flags shared by every command.
func BindCommonFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: weaver.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text, json")
	flags.String("base-dir", "", "Directory file references are resolved against")
	flags.Bool("remote-refs", false, "Resolve http(s) references")
	flags.Duration("resolve-timeout", 0, "Upper bound on reference resolution")
	flags.Bool("spec-check", true, "Validate documents against the OpenAPI JSON Schema")
}

// BindServeFlags binds the flags of the serve command.
func BindServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String("addr", "", "Listen address")
	flags.StringToString("auth-token", nil, "Accepted bearer token and its subject (token=subject)")
	flags.String("store-driver", "", "Document store: memory, dir, nats")
	flags.String("store-dir", "", "Directory of the dir store")
	flags.String("nats-url", "", "NATS server URL of the nats store")
	flags.String("bucket", "", "JetStream key-value bucket of the nats store")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := flagSet(cmd, "config").GetString("config")
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagSet returns the command's flag set declaring name, falling back to its
// persistent flags before the command has been executed.
func flagSet(cmd *cobra.Command, name string) *pflag.FlagSet {
	if cmd.Flags().Lookup(name) != nil {
		return cmd.Flags()
	}
	return cmd.PersistentFlags()
}

// buildFlagsMap returns the flags set on the command line keyed by their
// config path.
func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	changed := func(name string) bool {
		f := flagSet(cmd, name).Lookup(name)
		return f != nil && f.Changed
	}

	for flag, key := range map[string]string{
		"log-level":    "log.level",
		"log-format":   "log.format",
		"base-dir":     "resolver.base-dir",
		"addr":         "server.addr",
		"store-driver": "store.driver",
		"store-dir":    "store.dir",
		"nats-url":     "store.nats-url",
		"bucket":       "store.bucket",
	} {
		if changed(flag) {
			v, _ := flagSet(cmd, flag).GetString(flag)
			m[key] = v
		}
	}

	if changed("remote-refs") {
		v, _ := flagSet(cmd, "remote-refs").GetBool("remote-refs")
		m["resolver.remote-refs"] = v
	}
	if changed("spec-check") {
		v, _ := flagSet(cmd, "spec-check").GetBool("spec-check")
		m["validate.spec-check"] = v
	}
	if changed("resolve-timeout") {
		v, _ := flagSet(cmd, "resolve-timeout").GetDuration("resolve-timeout")
		m["resolver.timeout"] = v.String()
	}
	if changed("auth-token") {
		v, _ := flagSet(cmd, "auth-token").GetStringToString("auth-token")
		tokens := make(map[string]any, len(v))
		for token, subject := range v {
			tokens[token] = subject
		}
		m["auth.tokens"] = tokens
	}

	return m
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body size: %d (must be positive)", c.Server.MaxBodyBytes)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Resolver.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	switch c.Store.Driver {
	case "memory":
	case "dir":
		if c.Store.Dir == "" {
			return fmt.Errorf("store directory is required for the dir driver")
		}
	case "nats":
		if c.Store.NATSURL == "" {
			return fmt.Errorf("nats url is required for the nats driver")
		}
		if c.Store.Bucket == "" {
			return fmt.Errorf("bucket is required for the nats driver")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (valid: memory, dir, nats)", c.Store.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Log.Format)
	}

	return nil
}
