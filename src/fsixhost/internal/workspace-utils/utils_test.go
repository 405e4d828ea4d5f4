package workspaceutils

import (
	"context"
	"errors"
	iofs "io/fs"
	"path/filepath"
	"testing"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/ide-client/ideclientmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs/fsmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs/fsmock/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	assert.NotPanics(t, func() {
		New(Params{
			IdeGateway: ideclientmock.NewMockGateway(ctrl),
			Logger:     zap.NewNop().Sugar(),
			FS:         fsmock.NewMockHostFS(ctrl),
		})
	})
}

func TestGetWorkDir(t *testing.T) {
	ctx := context.Background()

	t.Run("first existing folder", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{
			logger:     zap.NewNop().Sugar(),
			ideGateway: ideclientmock.NewMockGateway(ctrl),
			fs:         fsMock,
		}

		fsMock.EXPECT().DirExists("/home/user/notebooks").Return(true, nil)
		fsMock.EXPECT().DirExists("/home/user/notebooks/scratch").Return(true, nil)

		result, err := c.GetWorkDir(ctx, []protocol.WorkspaceFolder{
			{URI: "file:///home/user/notebooks"},
			{URI: "file:///home/user/notebooks/scratch"},
		})
		require.NoError(t, err)
		assert.Equal(t, "/home/user/notebooks", result)
	})

	t.Run("missing folders are skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{
			logger:     zap.NewNop().Sugar(),
			ideGateway: ideclientmock.NewMockGateway(ctrl),
			fs:         fsMock,
		}

		fsMock.EXPECT().DirExists("/gone").Return(false, nil)
		fsMock.EXPECT().DirExists("/broken").Return(false, errors.New("permission denied"))
		fsMock.EXPECT().DirExists("/home/user/repo").Return(true, nil)

		result, err := c.GetWorkDir(ctx, []protocol.WorkspaceFolder{
			{URI: "file:///gone"},
			{URI: "file:///broken"},
			{URI: "file:///home/user/repo"},
		})
		require.NoError(t, err)
		assert.Equal(t, "/home/user/repo", result)
	})

	t.Run("unrelated folders are reported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		ideClientMock := ideclientmock.NewMockGateway(ctrl)
		c := workspaceUtilsImpl{
			logger:     zap.NewNop().Sugar(),
			ideGateway: ideClientMock,
			fs:         fsMock,
		}

		fsMock.EXPECT().DirExists(gomock.Any()).Return(true, nil).Times(2)
		ideClientMock.EXPECT().LogMessage(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, params *protocol.LogMessageParams) error {
				assert.Equal(t, protocol.MessageTypeInfo, params.Type)
				assert.Contains(t, params.Message, "/other/repo")
				return nil
			})

		result, err := c.GetWorkDir(ctx, []protocol.WorkspaceFolder{
			{URI: "file:///home/user/repo"},
			{URI: "file:///other/repo"},
		})
		require.NoError(t, err)
		assert.Equal(t, "/home/user/repo", result)
	})

	t.Run("no usable folder", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{
			logger:     zap.NewNop().Sugar(),
			ideGateway: ideclientmock.NewMockGateway(ctrl),
			fs:         fsMock,
		}

		fsMock.EXPECT().DirExists("/gone").Return(false, nil)

		_, err := c.GetWorkDir(ctx, []protocol.WorkspaceFolder{
			{URI: "file:///gone"},
			{URI: "%zz"},
		})
		assert.Error(t, err)
	})

	t.Run("no folders", func(t *testing.T) {
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar()}
		_, err := c.GetWorkDir(ctx, nil)
		assert.Error(t, err)
	})
}

func TestFindProjects(t *testing.T) {
	ctx := context.Background()
	root := filepath.FromSlash("/home/user/repo")

	t.Run("solutions and projects", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar(), fs: fsMock}

		fsMock.EXPECT().DirExists(root).Return(true, nil)
		fsMock.EXPECT().WalkDir(root, gomock.Any()).DoAndReturn(helpers.WalkTree(
			"Repo.sln",
			"README.md",
			"src/",
			"src/App/",
			"src/App/App.fsproj",
			"src/App/Program.fs",
			"src/App/bin/",
			"src/App/bin/Debug/Copied.fsproj",
			"src/App/obj/",
			"src/App/obj/project.assets.json",
			"src/Lib/",
			"src/Lib/Lib.FSPROJ",
			".git/",
			".git/hooks/Hook.fsproj",
			"Next.slnx",
		))

		projects, err := c.FindProjects(ctx, root)
		require.NoError(t, err)

		paths := []string{}
		for _, p := range projects {
			paths = append(paths, p.Path)
		}
		assert.Equal(t, []string{
			filepath.Join(root, "Next.slnx"),
			filepath.Join(root, "Repo.sln"),
			filepath.Join(root, "src", "App", "App.fsproj"),
			filepath.Join(root, "src", "Lib", "Lib.FSPROJ"),
			"none",
		}, paths)
		assert.Equal(t, "fsix --sln "+filepath.Join(root, "Repo.sln"), projects[1].InitLine)
		assert.Equal(t, "fsix --proj "+filepath.Join(root, "src", "App", "App.fsproj"), projects[2].InitLine)
		assert.Equal(t, entity.Project{Path: "none", InitLine: "fsix"}, projects[4])
	})

	t.Run("empty tree", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar(), fs: fsMock}

		fsMock.EXPECT().DirExists(root).Return(true, nil)
		fsMock.EXPECT().WalkDir(root, gomock.Any()).DoAndReturn(helpers.WalkTree())

		projects, err := c.FindProjects(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, []entity.Project{{Path: "none", InitLine: "fsix"}}, projects)
	})

	t.Run("unreadable subdirectory", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar(), fs: fsMock}

		fsMock.EXPECT().DirExists(root).Return(true, nil)
		fsMock.EXPECT().WalkDir(root, gomock.Any()).DoAndReturn(func(root string, fn iofs.WalkDirFunc) error {
			require.NoError(t, fn(root, helpers.MockDirEntry("repo", true), nil))
			locked := filepath.Join(root, "locked")
			assert.Equal(t, iofs.SkipDir, fn(locked, helpers.MockDirEntry("locked", true), iofs.ErrPermission))
			return fn(filepath.Join(root, "A.fsproj"), helpers.MockDirEntry("A.fsproj", false), nil)
		})

		projects, err := c.FindProjects(ctx, root)
		require.NoError(t, err)
		assert.Len(t, projects, 2)
	})

	t.Run("missing root", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar(), fs: fsMock}

		fsMock.EXPECT().DirExists(root).Return(false, nil)
		_, err := c.FindProjects(ctx, root)
		assert.Error(t, err)
	})

	t.Run("empty root", func(t *testing.T) {
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar()}
		_, err := c.FindProjects(ctx, "")
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockHostFS(ctrl)
		c := workspaceUtilsImpl{logger: zap.NewNop().Sugar(), fs: fsMock}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		fsMock.EXPECT().DirExists(root).Return(true, nil)
		fsMock.EXPECT().WalkDir(root, gomock.Any()).DoAndReturn(helpers.WalkTree("A.fsproj"))

		_, err := c.FindProjects(cancelled, root)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
