package logfilewriter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/serverinfofile"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	_fmtOutputKey = "output:%s"
	_outputDir    = "fsix-host"
)

// Params define the dependencies for SetupOutputWriter.
type Params struct {
	FS             fs.HostFS
	Lifecycle      fx.Lifecycle
	ServerInfoFile serverinfofile.ServerInfoFile
}

// SetupOutputWriter creates a writer for human readable output of a single feature, such as daemon logs.
// The file lives under the user's temp directory and its path is published in the server info file so editors can tail it.
func SetupOutputWriter(p Params, name string) (io.Writer, error) {
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return nil, fmt.Errorf("invalid output name %q", name)
	}

	logsDirPath := filepath.Join(os.TempDir(), _outputDir, name)
	if err := p.FS.MkdirAll(logsDirPath); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	logFile, err := p.FS.TempFile(logsDirPath, name+"-*.log")
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	if err := p.ServerInfoFile.UpdateField(fmt.Sprintf(_fmtOutputKey, name), logFile.Name()); err != nil {
		logFile.Close()
		return nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)
	outputLogger := zap.New(core).Sugar()

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = outputLogger.Sync()
			return multierr.Append(logFile.Close(), p.FS.Remove(logFile.Name()))
		},
	})

	return &loggerWriter{logger: outputLogger}, nil
}

type loggerWriter struct {
	logger *zap.SugaredLogger
}

// Write logs each non-blank line of p as its own entry.
func (o *loggerWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) > 0 {
			o.logger.Info(line)
		}
	}

	return len(p), nil
}
