package app

import (
	"context"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/gateway"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/handler"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/core"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/executor"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/jsonrpcfx"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/serverinfofile"
	workspaceutils "github.com/fsixnotebook/fsix-host/src/fsixhost/internal/workspace-utils"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
)

// Module defines the fsix-host application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	launcher.Module,
	fs.Module,
	executor.Module,
	serverinfofile.Module,
	workspaceutils.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(newRootScope),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)

func newRootScope(lc fx.Lifecycle) tally.Scope {
	rs, closer := tally.NewRootScope(tally.ScopeOptions{
		Tags: map[string]string{
			"service": "fsix-host",
		},
	}, 1*time.Second)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return rs
}
