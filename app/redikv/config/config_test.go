package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "0.0.0.0", c.Host)
	assert.EqualValues(t, 6379, c.Port)
	assert.Equal(t, 1024, c.MaxClients)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redikv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: 10.0.0.1\nport: 7000\n"), 0o644))

	c := Default()
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, "10.0.0.1", c.Host)
	assert.EqualValues(t, 7000, c.Port)
	assert.Equal(t, 1024, c.MaxClients, "fields absent from the file keep their default")
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	c := Default()
	assert.NoError(t, c.LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml")))
}

func TestFlagsOverrideFileValues(t *testing.T) {
	c := Default()
	require.NoError(t, c.LoadFile(""))
	c.Host = "10.0.0.1"

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--host", "192.168.1.1"}))

	assert.Equal(t, "192.168.1.1", c.Host)
	assert.EqualValues(t, 6379, c.Port, "unpassed flags keep their pre-registration value")
}

func TestPreParseConfigFile(t *testing.T) {
	path := PreParseConfigFile([]string{"--config", "/etc/redikv.yaml", "--port", "7000"})
	assert.Equal(t, "/etc/redikv.yaml", path)
}
