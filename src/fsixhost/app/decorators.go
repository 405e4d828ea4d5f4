package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Context struct {
	Environment        string `yaml:"environment"`
	RuntimeEnvironment string `yaml:"runtimeEnvironment"`
}

const (
	// EnvLocal indicates that the service is running locally.
	EnvLocal = "local"

	// EnvDevelopment indicates that the service is running in a development environment.
	EnvDevelopment = "development"

	// Environment variables
	_envFsixHostEnvironment = "FSIX_HOST_ENVIRONMENT"

	_configKeyInfoFile = "serverInfoFilePath"
)

// Output paths that zap resolves to standard streams rather than files.
var _streamOutputs = map[string]struct{}{
	"stdout": {},
	"stderr": {},
}

func decorateEnvContext(env Context) Context {
	envValue := EnvLocal
	if os.Getenv(_envFsixHostEnvironment) == EnvDevelopment {
		envValue = EnvDevelopment
	}

	env.Environment = envValue
	env.RuntimeEnvironment = envValue
	return env
}

// DecorateConfigParams is the set of dependencies required to decorate the config.Provider.
type DecorateConfigParams struct {
	fx.In

	Env Context
	Cfg config.Provider
	FS  fs.HostFS
}

// decorateConfigProvider includes any steps that modify the config.Provider before it is used, or use its data for any startup related activities.
func decorateConfigProvider(p DecorateConfigParams) (config.Provider, error) {
	combined, err := ensureLogFolder(p.Cfg, p.FS)
	if err != nil {
		return nil, fmt.Errorf("ensuring log folder: %v", err)
	}

	if err := ensureInfoFileFolder(combined, p.FS); err != nil {
		return nil, fmt.Errorf("ensuring server info folder: %v", err)
	}

	return combined, nil
}

// Ensure that all configured logging output directories exist or create if necessary.
func ensureLogFolder(cfg config.Provider, fs fs.HostFS) (config.Provider, error) {
	var c zap.Config
	if err := cfg.Get("logging").Populate(&c); err != nil {
		return nil, fmt.Errorf("loading logging config: %v", err)
	}

	for _, outputPath := range c.OutputPaths {
		if _, ok := _streamOutputs[outputPath]; ok {
			continue
		}
		if err := fs.MkdirAll(filepath.Dir(outputPath)); err != nil {
			return nil, fmt.Errorf("creating logging directory: %v", err)
		}
	}

	return cfg, nil
}

// Ensure that the directory holding the server info file exists.
func ensureInfoFileFolder(cfg config.Provider, fs fs.HostFS) error {
	var infoFile string
	if err := cfg.Get(_configKeyInfoFile).Populate(&infoFile); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyInfoFile, err)
	}
	if infoFile == "" {
		return nil
	}
	return fs.MkdirAll(filepath.Dir(infoFile))
}
