package main

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/imecue/internal/config"
)

func TestMarshalConfig_TOMLRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pointer.OffsetY = 24

	data, err := marshalConfig(cfg, "toml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "#FF7800A0")

	parsed := config.DefaultConfig()
	require.NoError(t, toml.Unmarshal(data, parsed))
	assert.Equal(t, cfg, parsed)
}

func TestMarshalConfig_YAML(t *testing.T) {
	data, err := marshalConfig(config.DefaultConfig(), "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	poll, ok := doc["poll"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "100ms", poll["state_interval"])
	assert.Equal(t, "10ms", poll["track_interval"])
}

func TestMarshalConfig_UnknownFormat(t *testing.T) {
	_, err := marshalConfig(config.DefaultConfig(), "ini")
	assert.Error(t, err)
}
