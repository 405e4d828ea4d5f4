package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
	return dir
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		configDir   string
		expectError bool
	}{
		{
			name: "loads listed files",
			files: map[string]string{
				"meta.yaml": "files:\n  - base.yaml\n",
				"base.yaml": "service:\n  name: fsix-host\n",
			},
		},
		{
			name: "skips missing files",
			files: map[string]string{
				"meta.yaml": "files:\n  - base.yaml\n  - local.yaml\n",
				"base.yaml": "service:\n  name: fsix-host\n",
			},
		},
		{
			name: "no listed file exists",
			files: map[string]string{
				"meta.yaml": "files:\n  - base.yaml\n",
			},
			expectError: true,
		},
		{
			name: "invalid files list",
			files: map[string]string{
				"meta.yaml": "files: {base: base.yaml}\n",
			},
			expectError: true,
		},
		{
			name:        "config directory doesn't exist",
			configDir:   "/nonexistent/path",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.configDir
			if dir == "" {
				dir = writeConfigDir(t, tt.files)
			}
			t.Setenv(_envConfigDir, dir)

			provider, err := NewConfig()

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, provider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "fsix-host", provider.Get("service.name").String())
		})
	}
}

func TestConfig_Name(t *testing.T) {
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files:\n  - base.yaml\n",
		"base.yaml": "service:\n  name: fsix-host\n",
	}))

	provider, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "config", provider.(Config).Name())
}

func TestGetConfigDir(t *testing.T) {
	tests := []struct {
		name           string
		envValue       string
		expectedResult string
	}{
		{
			name:           "returns environment variable when set",
			envValue:       "/custom/config/path",
			expectedResult: "/custom/config/path",
		},
		{
			name:           "returns default path when environment variable not set",
			expectedResult: "src/fsixhost/config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(_envConfigDir, tt.envValue)
			assert.Equal(t, tt.expectedResult, getConfigDir())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files:\n  - base.yaml\n",
		"base.yaml": "jsonrpc:\n  address: 127.0.0.1:${FSIX_HOST_PORT:27883}\n",
	}))

	t.Run("substituted", func(t *testing.T) {
		t.Setenv("FSIX_HOST_PORT", "8080")
		provider, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8080", provider.Get("jsonrpc.address").String())
	})

	t.Run("default", func(t *testing.T) {
		provider, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:27883", provider.Get("jsonrpc.address").String())
	})
}

func TestConfigFilePriority(t *testing.T) {
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml":        "files:\n  - base.yaml\n  - development.yaml\n  - local.yaml\n",
		"base.yaml":        "service:\n  name: base-service\nlogging:\n  level: info\n",
		"development.yaml": "service:\n  name: dev-service\nlogging:\n  level: debug\n",
		"local.yaml":       "logging:\n  level: warn\n",
	}))

	provider, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev-service", provider.Get("service.name").String())
	assert.Equal(t, "warn", provider.Get("logging.level").String())
}

func TestConfigOverride(t *testing.T) {
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files:\n  - base.yaml\n",
		"base.yaml": "fsix:\n  launcher:\n    command: default\n    transport: socket\n",
	}))

	t.Run("layered last", func(t *testing.T) {
		override := filepath.Join(t.TempDir(), "user.yaml")
		require.NoError(t, os.WriteFile(override, []byte("fsix:\n  launcher:\n    command: ${FSIX_COMMAND:global}\n"), 0644))
		t.Setenv(_envConfigOverride, override)

		provider, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "global", provider.Get("fsix.launcher.command").String())
		assert.Equal(t, "socket", provider.Get("fsix.launcher.transport").String())
	})

	t.Run("missing override", func(t *testing.T) {
		t.Setenv(_envConfigOverride, filepath.Join(t.TempDir(), "missing.yaml"))

		_, err := NewConfig()
		assert.ErrorContains(t, err, _envConfigOverride)
	})
}

func TestRepositoryConfig(t *testing.T) {
	t.Setenv(_envConfigDir, filepath.Join("..", "..", "config"))

	provider, err := NewConfig()
	require.NoError(t, err)

	for _, key := range []string{"logging", "jsonrpc.address", "serverInfoFilePath", "idleTimeoutMinutes", "fsix.launcher", "diagnostics.debounceMs"} {
		assert.True(t, provider.Get(key).HasValue(), key)
	}
}
