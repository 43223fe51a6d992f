package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/remote-engine-mock/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
		initPath = ""
		initForce = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInit_WritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config:init", "--path", path)
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfigTemplate(), string(data))
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: keep\n"), 0o600))

	_, err := execute(t, "config:init", "--path", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "address: keep\n", string(data))
}

func TestConfigSetAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefaultConfig(path))

	_, err := execute(t, "--config", path, "config:set-address", "ws://set")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Address string `yaml:"address"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, "ws://set", got.Address)
}

func TestRoot_InvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  mode: eager\n"), 0o600))

	_, err := execute(t, "--config", path, "connect", "ws://a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "scheduler.mode")
}
