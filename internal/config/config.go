// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

// Package config loads GuildGate configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full configuration surface. Everything is supplied at
// process start; the core requires no runtime reconfiguration.
type Config struct {
	Service  Service  `koanf:"service"`
	Database Database `koanf:"database"`
	Gate     Gate     `koanf:"gate"`
	Audit    Audit    `koanf:"audit"`
	Gateway  Gateway  `koanf:"gateway"`
}

// Service holds process-level settings.
type Service struct {
	Name        string `koanf:"name"`
	LogFormat   string `koanf:"log_format"` // "json" or "text"
	MetricsAddr string `koanf:"metrics_addr"`
}

// Database holds persistence connection parameters.
type Database struct {
	URL            string        `koanf:"url"`
	MaxConns       int32         `koanf:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	OpTimeout      time.Duration `koanf:"op_timeout"`
}

// Gate holds the registration gating allow-list.
type Gate struct {
	AllowedRoleIDs []uint64 `koanf:"allowed_role_ids"`
}

// Audit holds audit delivery settings. BridgeURL is the platform
// bridge endpoint channel messages are posted to; when empty, audit
// events go to structured logs only. Channel IDs identify the chat
// platform log channels.
type Audit struct {
	BridgeURL             string `koanf:"bridge_url"`
	RegistrationChannelID uint64 `koanf:"registration_channel_id"`
	PasswordChannelID     uint64 `koanf:"password_channel_id"`
	QueueSize             int    `koanf:"queue_size"`
}

// Gateway holds the interaction endpoint and user-facing content.
type Gateway struct {
	ListenAddr  string `koanf:"listen_addr"`
	LauncherURL string `koanf:"launcher_url"`
	Rules       string `koanf:"rules"`
}

// Default returns the built-in defaults applied before file and flag
// loading.
func Default() Config {
	return Config{
		Service: Service{
			Name:        "guildgate",
			LogFormat:   "json",
			MetricsAddr: "127.0.0.1:9100",
		},
		Database: Database{
			MaxConns:       8,
			ConnectTimeout: 30 * time.Second,
			OpTimeout:      5 * time.Second,
		},
		Audit: Audit{
			QueueSize: 256,
		},
		Gateway: Gateway{
			ListenAddr: "127.0.0.1:8080",
		},
	}
}

// Load reads configuration from the YAML file at path (optional) and
// overlays values from flags (optional). Validation covers only what
// startup cannot proceed without.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	// Defaults go into the koanf tree first so the flag provider can
	// tell "unset" apart from "explicitly empty".
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "load defaults").
			Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal").
			Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Service.LogFormat != "json" && c.Service.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.Service.LogFormat).
			Errorf("service.log_format must be \"json\" or \"text\"")
	}
	if len(c.Gate.AllowedRoleIDs) == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("gate.allowed_role_ids must list at least one role")
	}
	return nil
}
