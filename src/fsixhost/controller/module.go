package controller

import (
	"github.com/fsixnotebook/fsix-host/src/fsixhost/controller/diagnostics"
	fsixhost "github.com/fsixnotebook/fsix-host/src/fsixhost/controller/fsix-host"
	"go.uber.org/fx"
)

// Module provides the controllers into an Fx application.
var Module = fx.Options(
	fx.Provide(fsixhost.New),
	fx.Provide(diagnostics.New),
)
