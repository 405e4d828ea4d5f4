package handler

import (
	controller "github.com/fsixnotebook/fsix-host/src/fsixhost/controller"
	fsixhost "github.com/fsixnotebook/fsix-host/src/fsixhost/controller/fsix-host"
	handler "github.com/fsixnotebook/fsix-host/src/fsixhost/handler/fsix-host"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/client"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/session"
	"go.uber.org/fx"
)

// Module provides the fsix-host server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(client.New),
	fx.Provide(session.New),
	fx.Provide(handler.New),
	fx.Invoke(outputLauncherInfo),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m fsixhost.Controller) {}),
)
