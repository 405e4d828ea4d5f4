package handler

import (
	"fmt"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/serverinfofile"
	"go.uber.org/config"
)

const (
	_errInvalidEntry = "type error or missing field for key %q"

	_fmtInfoFileKey = "%s-%s"

	_configKeyLauncher = "fsix.launcher"
	_infoPrefix        = "launcher"
)

// Settings from the launcher section that are published for editors.
var _publishedLauncherKeys = []string{"command", "transport"}

// Output the daemon launch settings from the fsix.launcher configuration block.
// The JSON-RPC module adds its own address field to the Server Info file independently.
func outputLauncherInfo(cfg config.Provider, infofile serverinfofile.ServerInfoFile) error {
	var cfgData map[string]interface{}
	if err := cfg.Get(_configKeyLauncher).Populate(&cfgData); err != nil {
		return fmt.Errorf("loading launcher config: %v", err)
	}

	for _, key := range _publishedLauncherKeys {
		raw, ok := cfgData[key]
		if !ok || raw == nil {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return fmt.Errorf(_errInvalidEntry, key)
		}
		if err := infofile.UpdateField(fmt.Sprintf(_fmtInfoFileKey, _infoPrefix, key), value); err != nil {
			return fmt.Errorf("outputting %q to info file: %w", key, err)
		}
	}

	return nil
}
