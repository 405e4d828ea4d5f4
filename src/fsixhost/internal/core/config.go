package core

import (
	"fmt"
	"os"
	"path/filepath"

	uber_config "go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_envConfigDir      = "FSIX_HOST_CONFIG_DIR"
	_envConfigOverride = "FSIX_HOST_CONFIG_OVERRIDE"
	_defaultConfigDir  = "src/fsixhost/config"
	_metaFile          = "meta.yaml"
)

var ConfigModule = fx.Options(
	fx.Provide(NewConfig),
)

type Config struct {
	provider uber_config.Provider
}

func (c Config) Get(path string) uber_config.Value {
	return c.provider.Get(path)
}

func (c Config) Name() string {
	return "config"
}

// NewConfig builds the host configuration from these layers, later ones winning:
//   - the files listed in meta.yaml under the config directory, skipping files that do not exist;
//   - the file named by FSIX_HOST_CONFIG_OVERRIDE, if set. Editors pass user settings this way.
//
// ${VAR:default} references are expanded from the environment in every layer.
func NewConfig() (uber_config.Provider, error) {
	configDir := getConfigDir()

	files, err := listedFiles(configDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s", configDir)
	}

	if override := os.Getenv(_envConfigOverride); override != "" {
		if _, err := os.Stat(override); err != nil {
			return nil, fmt.Errorf("reading %s: %w", _envConfigOverride, err)
		}
		files = append(files, override)
	}

	options := make([]uber_config.YAMLOption, 0, len(files)+1)
	for _, f := range files {
		options = append(options, uber_config.File(f))
	}
	options = append(options, uber_config.Expand(os.LookupEnv))

	provider, err := uber_config.NewYAML(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return Config{provider: provider}, nil
}

// listedFiles returns the existing files named in meta.yaml, resolved against configDir.
func listedFiles(configDir string) ([]string, error) {
	meta, err := uber_config.NewYAML(
		uber_config.File(filepath.Join(configDir, _metaFile)),
		uber_config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load meta configuration: %w", err)
	}

	var names []string
	if err := meta.Get("files").Populate(&names); err != nil {
		return nil, fmt.Errorf("failed to read files list from %s: %w", _metaFile, err)
	}

	var files []string
	for _, name := range names {
		if !filepath.IsAbs(name) {
			name = filepath.Join(configDir, name)
		}
		if _, err := os.Stat(name); err == nil {
			files = append(files, name)
		}
	}
	return files, nil
}

// getConfigDir returns FSIX_HOST_CONFIG_DIR, or the repository config directory relative to the workspace root.
func getConfigDir() string {
	if configDir := os.Getenv(_envConfigDir); configDir != "" {
		return configDir
	}
	return _defaultConfigDir
}
