// Package config loads tsdesc settings from an optional TOML file and the
// environment. Environment variables override the file, and command-line
// flags (applied by the caller) override both.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/zsiec/tsdesc"
	"github.com/zsiec/tsdesc/mpegts"
)

// Config holds the scanner and ingest settings.
type Config struct {
	Standard   tsdesc.Standard
	PacketSize int
	Workers    int
	Padding    bool
	Dedupe     bool
	PIDs       []uint16
	LogLevel   slog.Level
	SRT        SRTConfig
}

// SRTConfig configures the SRT listener and pull sources.
type SRTConfig struct {
	Addr  string
	Pulls []Pull
}

// Pull is a remote SRT listener to read a stream from.
type Pull struct {
	Address   string
	StreamKey string
	StreamID  string
}

type fileConfig struct {
	Standard   string  `toml:"standard"`
	PacketSize int     `toml:"packet_size"`
	Workers    int     `toml:"workers"`
	Padding    bool    `toml:"padding"`
	Dedupe     bool    `toml:"dedupe"`
	PIDs       []int   `toml:"pids"`
	LogLevel   string  `toml:"log_level"`
	SRT        fileSRT `toml:"srt"`
}

type fileSRT struct {
	Addr  string     `toml:"addr"`
	Pulls []filePull `toml:"pull"`
}

type filePull struct {
	Address   string `toml:"address"`
	StreamKey string `toml:"stream_key"`
	StreamID  string `toml:"stream_id"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Standard:   tsdesc.StandardDVB,
		PacketSize: mpegts.PacketSizeTS,
		Workers:    runtime.GOMAXPROCS(0),
		LogLevel:   slog.LevelInfo,
	}
}

// Load returns the defaults overlaid with the TOML file at path and then
// with the environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = loadFile(cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg.ApplyEnv(os.Getenv)
}

func loadFile(cfg Config, path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown key %q in %s", undecoded[0].String(), path)
	}

	if meta.IsDefined("standard") {
		std, err := tsdesc.ParseStandard(raw.Standard)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		cfg.Standard = std
	}
	if meta.IsDefined("packet_size") {
		cfg.PacketSize = raw.PacketSize
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("padding") {
		cfg.Padding = raw.Padding
	}
	if meta.IsDefined("dedupe") {
		cfg.Dedupe = raw.Dedupe
	}
	if meta.IsDefined("pids") {
		cfg.PIDs = cfg.PIDs[:0]
		for _, pid := range raw.PIDs {
			if pid < 0 || pid > 0x1FFF {
				return Config{}, fmt.Errorf("config: pid %d out of range", pid)
			}
			cfg.PIDs = append(cfg.PIDs, uint16(pid))
		}
	}
	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return Config{}, fmt.Errorf("config: log_level: %w", err)
		}
	}
	if meta.IsDefined("srt", "addr") {
		cfg.SRT.Addr = strings.TrimSpace(raw.SRT.Addr)
	}
	for _, p := range raw.SRT.Pulls {
		cfg.SRT.Pulls = append(cfg.SRT.Pulls, Pull{
			Address:   strings.TrimSpace(p.Address),
			StreamKey: strings.TrimSpace(p.StreamKey),
			StreamID:  strings.TrimSpace(p.StreamID),
		})
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from TSDESC_STANDARD, TSDESC_SRT_ADDR,
// TSDESC_WORKERS and DEBUG, read through getenv.
func (cfg Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if v := envOr(getenv, "TSDESC_STANDARD", ""); v != "" {
		std, err := tsdesc.ParseStandard(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: TSDESC_STANDARD: %w", err)
		}
		cfg.Standard = std
	}
	cfg.SRT.Addr = envOr(getenv, "TSDESC_SRT_ADDR", cfg.SRT.Addr)
	if v := envOr(getenv, "TSDESC_WORKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: TSDESC_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if getenv("DEBUG") != "" {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (cfg Config) Validate() error {
	var errs []error
	if _, err := tsdesc.ParseStandard(string(cfg.Standard)); err != nil {
		errs = append(errs, err)
	}
	switch cfg.PacketSize {
	case mpegts.PacketSizeTS, mpegts.PacketSizeM2TS, mpegts.PacketSizeRS:
	default:
		errs = append(errs, fmt.Errorf("packet size %d is not 188, 192 or 204", cfg.PacketSize))
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers))
	}
	for i, p := range cfg.SRT.Pulls {
		if p.Address == "" || p.StreamKey == "" {
			errs = append(errs, fmt.Errorf("srt pull %d needs an address and a stream key", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
