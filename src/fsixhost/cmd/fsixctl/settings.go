package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	_configDirName  = "fsix"
	_configFileName = "fsixctl.toml"
	_defaultInit    = "fsix"
)

// settings are the defaults read from fsixctl.toml. Flags override them.
type settings struct {
	Init      string `toml:"init"`
	Command   string `toml:"command"`
	Transport string `toml:"transport"`
	WorkDir   string `toml:"workdir"`
}

// defaultConfigPath returns $XDG_CONFIG_HOME/fsix/fsixctl.toml, or its platform equivalent.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, _configDirName, _configFileName)
}

// loadSettings reads the config file at path. A missing file is only an error when the path was given explicitly.
func loadSettings(path string, explicit bool) (settings, error) {
	var s settings
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return s, nil
		}
		return s, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// merge returns s with every non-empty field of override applied.
func (s settings) merge(override settings) settings {
	if override.Init != "" {
		s.Init = override.Init
	}
	if override.Command != "" {
		s.Command = override.Command
	}
	if override.Transport != "" {
		s.Transport = override.Transport
	}
	if override.WorkDir != "" {
		s.WorkDir = override.WorkDir
	}
	return s
}

// resolve fills defaults and makes the working directory absolute.
func (s settings) resolve() (settings, error) {
	if s.Init == "" {
		s.Init = _defaultInit
	}
	if s.WorkDir == "" {
		s.WorkDir = "."
	}
	abs, err := filepath.Abs(s.WorkDir)
	if err != nil {
		return s, fmt.Errorf("resolve workdir: %w", err)
	}
	s.WorkDir = abs
	return s, nil
}
