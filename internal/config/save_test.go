package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readAddress(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out struct {
		Address string `yaml:"address"`
	}
	require.NoError(t, yaml.Unmarshal(data, &out))
	return out.Address
}

func TestSaveAddress_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveAddress(path, "ws://a"))
	require.Equal(t, "ws://a", readAddress(t, path))
}

func TestSaveAddress_ReplacesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: ws://old # primary\nconnect_timeout: 2s\n"), 0o600))

	require.NoError(t, SaveAddress(path, "ws://new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# primary")
	require.Contains(t, string(data), "connect_timeout: 2s")
	require.Equal(t, "ws://new", readAddress(t, path))
}

func TestSaveAddress_PreservesTemplateComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveAddress(path, "ws://saved"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Remote engine mock configuration")
	require.Contains(t, string(data), "mode: auto")
	require.Equal(t, "ws://saved", readAddress(t, path))
}

func TestSaveAddress_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	err := SaveAddress(path, "ws://a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a mapping")
}
