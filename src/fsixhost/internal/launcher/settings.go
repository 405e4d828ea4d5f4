package launcher

import (
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const _settingsPath = ".fsix/settings.yaml"

// workspaceSettings overrides the configured launcher values for a single workspace.
type workspaceSettings struct {
	Command   string        `yaml:"command"`
	Transport TransportKind `yaml:"transport"`
}

// workspaceSettings reads <workDir>/.fsix/settings.yaml. A missing or broken file yields empty settings.
func (l *launcher) workspaceSettings(workDir string) workspaceSettings {
	var s workspaceSettings
	if workDir == "" {
		return s
	}

	path := filepath.Join(workDir, _settingsPath)
	if ok, err := l.fs.FileExists(path); err != nil || !ok {
		return s
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		l.logger.Warnw("reading workspace settings", "path", path, "error", err)
		return s
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		l.logger.Warnw("parsing workspace settings", "path", path, "error", err)
		return workspaceSettings{}
	}
	return s
}
