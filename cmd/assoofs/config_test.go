package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setenv(t *testing.T, k, v string) {
	old, ok := os.LookupEnv(k)
	require.NoError(t, os.Setenv(k, v))
	t.Cleanup(func() {
		if ok {
			os.Setenv(k, old)
		} else {
			os.Unsetenv(k)
		}
	})
}

func unsetenv(t *testing.T, k string) {
	old, ok := os.LookupEnv(k)
	require.NoError(t, os.Unsetenv(k))
	t.Cleanup(func() {
		if ok {
			os.Setenv(k, old)
		}
	})
}

// cleanEnv points the config file at nothing and clears overrides.
func cleanEnv(t *testing.T) string {
	dir := t.TempDir()
	setenv(t, envVarPrefix+"_CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	for _, k := range []string{"IMAGE", "BLOCKS", "DEBUG", "CACHE", "DUPLICATES"} {
		unsetenv(t, envVarPrefix+"_"+k)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	cleanEnv(t)
	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *c)
	assert.True(t, errors.Is(c.Validate(), ErrNoImage))
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := cleanEnv(t)
	f := filepath.Join(dir, "assoofs.yaml")
	require.NoError(t, os.WriteFile(f, []byte("image: a.img\nblocks: 32\ncache: false\n"), 0644))
	setenv(t, envVarPrefix+"_CONFIG_FILE", f)
	setenv(t, envVarPrefix+"_BLOCKS", "16")
	setenv(t, envVarPrefix+"_DEBUG", "3")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{Image: "a.img", Blocks: 16, Debug: 3, Cache: false}, *c)
	assert.NoError(t, c.Validate())
	assert.Len(t, c.MountOptions(), 1)
}

func TestLoadConfigStrict(t *testing.T) {
	dir := cleanEnv(t)
	f := filepath.Join(dir, "assoofs.yaml")
	require.NoError(t, os.WriteFile(f, []byte("imagefile: a.img\n"), 0644))
	setenv(t, envVarPrefix+"_CONFIG_FILE", f)
	_, err := LoadConfig()
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadConfigBadEnv(t *testing.T) {
	cleanEnv(t)
	setenv(t, envVarPrefix+"_BLOCKS", "many")
	_, err := LoadConfig()
	assert.Error(t, err)
}
