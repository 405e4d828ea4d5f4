package workspaceutils

import (
	"context"
	"fmt"
	iofs "io/fs"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	ideclient "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/ide-client"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=workspaceutilsmock/utils_mock.go -package=workspaceutilsmock . WorkspaceUtils

// Module provides a new WorkspaceUtils.
var Module = fx.Provide(New)

var _projectExtensions = map[string]struct{}{
	".sln":    {},
	".slnx":   {},
	".fsproj": {},
}

var _skippedDirs = map[string]struct{}{
	"bin": {},
	"obj": {},
}

// WorkspaceUtils is a utility interface for getting workspace related information.
type WorkspaceUtils interface {
	// GetWorkDir returns the directory daemons are started in for an editor with the given workspace folders.
	GetWorkDir(ctx context.Context, workspaceFolders []protocol.WorkspaceFolder) (string, error)
	// FindProjects lists the solutions and projects under root, sorted by path and followed by the no-project option.
	FindProjects(ctx context.Context, root string) ([]entity.Project, error)
}

// Params are the parameters required to create a new WorkspaceUtils.
type Params struct {
	fx.In

	IdeGateway ideclient.Gateway `optional:"true"`
	Logger     *zap.SugaredLogger
	FS         fs.HostFS
}

type workspaceUtilsImpl struct {
	ideGateway ideclient.Gateway
	logger     *zap.SugaredLogger
	fs         fs.HostFS
}

// New creates a new WorkspaceUtils.
func New(p Params) WorkspaceUtils {
	return &workspaceUtilsImpl{
		ideGateway: p.IdeGateway,
		logger:     p.Logger,
		fs:         p.FS,
	}
}

func (c *workspaceUtilsImpl) GetWorkDir(ctx context.Context, workspaceFolders []protocol.WorkspaceFolder) (string, error) {
	if len(workspaceFolders) == 0 {
		return "", fmt.Errorf("no workspace folders provided")
	}

	result := ""
	for _, folder := range workspaceFolders {
		// code-workspace files may contain improperly formatted or nonexistent folders.
		fileSystemPath, err := url.Parse(folder.URI)
		if err != nil || fileSystemPath.Path == "" {
			continue
		}
		dir := filepath.Clean(filepath.FromSlash(fileSystemPath.Path))
		if ok, err := c.fs.DirExists(dir); err != nil || !ok {
			continue
		}

		if result == "" {
			result = dir
		} else if !isWithin(dir, result) {
			msg := fmt.Sprintf("FsiX sessions start in %q. The workspace folder %q is not used as a working directory.", result, dir)
			c.logger.Info(msg)
			if c.ideGateway != nil {
				c.ideGateway.LogMessage(ctx, &protocol.LogMessageParams{
					Type:    protocol.MessageTypeInfo,
					Message: msg,
				})
			}
		}
	}

	if result == "" {
		folderStrings := []string{}
		for _, folder := range workspaceFolders {
			folderStrings = append(folderStrings, folder.URI)
		}
		return "", fmt.Errorf("unable to determine a working directory among the following folders: %v", strings.Join(folderStrings, ", "))
	}
	return result, nil
}

func (c *workspaceUtilsImpl) FindProjects(ctx context.Context, root string) ([]entity.Project, error) {
	if root == "" {
		return nil, fmt.Errorf("no project root provided")
	}
	if ok, err := c.fs.DirExists(root); err != nil {
		return nil, fmt.Errorf("checking project root %q: %w", root, err)
	} else if !ok {
		return nil, fmt.Errorf("project root %q does not exist", root)
	}

	projects := []entity.Project{}
	err := c.fs.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			c.logger.Debugf("skipping %q: %s", path, err)
			if d != nil && d.IsDir() {
				return iofs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := _skippedDirs[d.Name()]; skip || strings.HasPrefix(d.Name(), ".") {
				return iofs.SkipDir
			}
			return nil
		}

		if _, ok := _projectExtensions[strings.ToLower(filepath.Ext(d.Name()))]; ok {
			projects = append(projects, entity.Project{
				Path:     path,
				InitLine: mapper.ProjectToInitLine(path),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q for projects: %w", root, err)
	}

	c.logger.Debugw("found projects", "root", root, "count", len(projects))
	return mapper.SortProjects(projects), nil
}

func isWithin(dir, parent string) bool {
	rel, err := filepath.Rel(parent, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
