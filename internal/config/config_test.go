package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/emdrive/data", cfg.DataDirectory)
	assert.Equal(t, "127.0.0.1", cfg.TCPListenHost)
	assert.Equal(t, uint16(8824), cfg.TCPListenPort)
	assert.Equal(t, uint16(0), cfg.GRPCListenPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("EMDRIVE_DATA_DIRECTORY", "/tmp/emdrive-test")
	t.Setenv("EMDRIVE_TCP_LISTEN_HOST", "0.0.0.0")
	t.Setenv("EMDRIVE_TCP_LISTEN_PORT", "9000")
	t.Setenv("EMDRIVE_LOG_LEVEL", "debug")
	t.Setenv("EMDRIVE_LOG_FORMAT", "text")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/emdrive-test", cfg.DataDirectory)
	assert.Equal(t, "0.0.0.0", cfg.TCPListenHost)
	assert.Equal(t, uint16(9000), cfg.TCPListenPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestInvalidPortNamesTheKey(t *testing.T) {
	t.Setenv("EMDRIVE_TCP_LISTEN_PORT", "not-a-port")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMDRIVE_TCP_LISTEN_PORT")

	t.Setenv("EMDRIVE_TCP_LISTEN_PORT", "70000")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMDRIVE_TCP_LISTEN_PORT")
}

func TestInvalidLogLevelNamesTheKey(t *testing.T) {
	t.Setenv("EMDRIVE_LOG_LEVEL", "loud")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMDRIVE_LOG_LEVEL")
}

func TestConfigFileLayersUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emdrive.toml")
	require.NoError(t, os.WriteFile(path, []byte(
		"data_directory = \"/from/file\"\ntcp_listen_port = 9999\n",
	), 0o644))
	t.Setenv("EMDRIVE_CONFIG_FILE", path)
	// The environment wins over the file.
	t.Setenv("EMDRIVE_TCP_LISTEN_PORT", "1234")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.DataDirectory)
	assert.Equal(t, uint16(1234), cfg.TCPListenPort)
}

func TestMissingConfigFileFails(t *testing.T) {
	t.Setenv("EMDRIVE_CONFIG_FILE", "/does/not/exist.toml")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMDRIVE_CONFIG_FILE")
}

func TestStringRendersEnvForm(t *testing.T) {
	rendered := Default().String()
	assert.Contains(t, rendered, "EMDRIVE_DATA_DIRECTORY=\"/var/lib/emdrive/data\"")
	assert.Contains(t, rendered, "EMDRIVE_TCP_LISTEN_PORT=8824")
}
