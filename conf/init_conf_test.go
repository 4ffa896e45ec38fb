package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYaml(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf_test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeYaml(t, "port: \"9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "pebble", cfg.Database.Type)
	assert.Equal(t, 5, cfg.Transfer.MaxRetries)
	assert.Equal(t, time.Second, cfg.Transfer.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Transfer.MaxDelay)
	assert.Equal(t, int64(48*mb), cfg.Transfer.MaxSingleSize)
	assert.Equal(t, int64(19*mb), cfg.Transfer.PartSize)
	assert.Equal(t, int64(10*mb), cfg.Upload.ChunkSize)
	assert.Equal(t, 24*time.Hour, cfg.Upload.SessionTTL)
	assert.Equal(t, "localhost:9000", cfg.Uploader.SwaggerBaseUrl)
	assert.Empty(t, cfg.Nodes)
}

func TestLoadConfig_Nodes(t *testing.T) {
	body := `
nodes:
  - id: bot-1
    kind: telegram
    credential: token-1
    channel: "-100"
  - id: s3-1
    kind: s3
    credential: ak
    secret: sk
    bucket: b
    display_name: Archive
transfer:
  max_retries: 3
  initial_delay: 500ms
  part_size_mb: 5
upload:
  session_ttl: 2h
`
	cfg, err := LoadConfig(writeYaml(t, body))
	require.NoError(t, err)

	require.Len(t, cfg.Nodes, 2)
	assert.Equal(t, "bot-1", cfg.Nodes[0].DisplayName)
	assert.Equal(t, "-100", cfg.Nodes[0].Channel)
	assert.Equal(t, "Archive", cfg.Nodes[1].DisplayName)
	assert.Equal(t, "sk", cfg.Nodes[1].Secret)
	assert.Equal(t, 3, cfg.Transfer.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Transfer.InitialDelay)
	assert.Equal(t, int64(5*mb), cfg.Transfer.PartSize)
	assert.Equal(t, 2*time.Hour, cfg.Upload.SessionTTL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetYaml(t *testing.T) {
	prevEnv, prevDir := SystemEnvironmentEnum, ConfDir
	t.Cleanup(func() { SystemEnvironmentEnum, ConfDir = prevEnv, prevDir })

	env, err := ParseEnvironment("loc")
	require.NoError(t, err)
	SystemEnvironmentEnum = env
	ConfDir = "/etc/bfs"
	assert.Equal(t, "/etc/bfs/conf_loc.yaml", GetYaml())

	_, err = ParseEnvironment("staging")
	assert.Error(t, err)
}
