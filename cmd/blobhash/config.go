package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tailscale/hujson"

	"github.com/tamirms/blobhash"
)

var errConfigInvalid = errors.New("invalid config")

// Config holds the options read from a JSONC config file.
type Config struct {
	BucketRatio int    `json:"bucket_ratio,omitempty"` //nolint:tagliatelle // snake_case for config file
	Hash        string `json:"hash,omitempty"`
	Seed        uint64 `json:"seed,omitempty"`
	Compression string `json:"compression,omitempty"`
	LogLevel    string `json:"log_level,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BucketRatio: blobhash.DefaultBucketRatio,
		Hash:        blobhash.HashXXH64.String(),
		Compression: blobhash.CompressionNone.String(),
		LogLevel:    "warn",
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	overlay, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	cfg = mergeConfig(cfg, overlay)
	if err := validateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.BucketRatio != 0 {
		base.BucketRatio = overlay.BucketRatio
	}
	if overlay.Hash != "" {
		base.Hash = overlay.Hash
	}
	if overlay.Seed != 0 {
		base.Seed = overlay.Seed
	}
	if overlay.Compression != "" {
		base.Compression = overlay.Compression
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	return base
}

func validateConfig(cfg Config) error {
	if cfg.BucketRatio < 1 {
		return fmt.Errorf("bucket_ratio must be at least 1, got %d", cfg.BucketRatio)
	}
	if _, ok := blobhash.ParseHashAlgorithm(cfg.Hash); !ok {
		return fmt.Errorf("unknown hash %q", cfg.Hash)
	}
	if _, ok := blobhash.ParseCompression(cfg.Compression); !ok {
		return fmt.Errorf("unknown compression %q", cfg.Compression)
	}
	if _, err := blobhash.ParseLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// buildOptions converts the config to builder options. cfg must be valid.
func (cfg Config) buildOptions(log *slog.Logger) []blobhash.BuildOption {
	hash, _ := blobhash.ParseHashAlgorithm(cfg.Hash)
	return []blobhash.BuildOption{
		blobhash.WithBucketRatio(cfg.BucketRatio),
		blobhash.WithHashAlgorithm(hash),
		blobhash.WithSeed(cfg.Seed),
		blobhash.WithLogger(log),
	}
}

func (cfg Config) compression() blobhash.Compression {
	c, _ := blobhash.ParseCompression(cfg.Compression)
	return c
}
