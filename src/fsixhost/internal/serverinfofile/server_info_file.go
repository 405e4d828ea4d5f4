package serverinfofile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=serverinfofilemock/server_info_file_mock.go -package=serverinfofilemock . ServerInfoFile

const (
	_configKeyInfoFile = "serverInfoFilePath"
	_fieldPID          = "pid"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// ServerInfoFile manages a single JSON file describing the running host.
// Editors read it to find the host's address and the output files they can tail.
type ServerInfoFile interface {
	UpdateField(key string, value string) error
	Path() string
}

type module struct {
	infofile     string
	logger       *zap.SugaredLogger
	fs           fs.HostFS
	fileContents map[string]string
	mu           sync.Mutex
}

// Params define values to be used by ServerInfoFile.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	FS        fs.HostFS
}

// New creates a new ServerInfoFile. The host's pid is recorded on start.
func New(p Params) (ServerInfoFile, error) {
	m := &module{
		logger:       p.Logger,
		fs:           p.FS,
		fileContents: make(map[string]string),
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return m.UpdateField(_fieldPID, strconv.Itoa(os.Getpid()))
		},
		OnStop: m.OnStop,
	})

	return m, nil
}

func (m *module) Path() string {
	return m.infofile
}

// OnStop removes the file. A file that is already gone is not an error.
func (m *module) OnStop(ctx context.Context) error {
	if m.infofile == "" {
		return nil
	}
	if err := m.fs.Remove(m.infofile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing info file: %w", err)
	}
	return nil
}

func (m *module) UpdateField(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fileContents[key] = value
	jsonOutput, err := json.Marshal(m.fileContents)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	if err := m.fs.WriteFile(m.infofile, jsonOutput); err != nil {
		return fmt.Errorf("writing info file: %w", err)
	}
	m.logger.Infow("server info saved", "file", m.infofile, key, value)
	return nil
}

func (m *module) processConfig(cfg config.Provider) error {
	val := cfg.Get(_configKeyInfoFile)
	if err := val.Populate(&m.infofile); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyInfoFile, err)
	}

	if m.infofile == "" {
		return fmt.Errorf("missing field %q in config", _configKeyInfoFile)
	}

	return nil
}
