package marketmeta

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromReaderDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader("base_url: https://gamma-api.example.com\n"))
	require.NoError(t, err)

	assert.Equal(t, defaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, defaultWorkers, cfg.Workers)
	assert.Equal(t, defaultPace, cfg.Pace)
	assert.Equal(t, defaultTagTTL, cfg.TagTTL())
}

func TestLoadConfigFromReaderFull(t *testing.T) {
	yaml := `
base_url: https://gamma-api.example.com
snapshot_path: data/event-tags.snap
chunk_size: 10
workers: 2
pace: 50ms
tag_ttl: 600
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "data/event-tags.snap", cfg.SnapshotPath)
	assert.Equal(t, 10, cfg.ChunkSize)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 50*time.Millisecond, cfg.Pace)
	assert.Equal(t, 10*time.Minute, cfg.TagTTL())
}

func TestLoadConfigFromReaderValidation(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("chunk_size: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")

	_, err = LoadConfigFromReader(strings.NewReader("base_url: https://x\npace: fast\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pace")
}
