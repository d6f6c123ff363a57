package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		// tuned for small tables
		"bucket_ratio": 4,
		"hash": "xxh3",
		"seed": 99,
		"compression": "zstd", // trailing comma below is fine
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		BucketRatio: 4,
		Hash:        "xxh3",
		Seed:        99,
		Compression: "zstd",
		LogLevel:    "warn",
	}, cfg)
	assert.Len(t, cfg.buildOptions(nil), 4)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Syntax", `{"hash": }`},
		{"UnknownHash", `{"hash": "md5"}`},
		{"UnknownCompression", `{"compression": "gzip"}`},
		{"NegativeRatio", `{"bucket_ratio": -1}`},
		{"BadLogLevel", `{"log_level": "loud"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errConfigInvalid), "got %v", err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/blobhash.jsonc")
	require.Error(t, err)
}
