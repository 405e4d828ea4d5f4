package main

import (
	"github.com/fsixnotebook/fsix-host/src/fsixhost/app"
	"go.uber.org/fx"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
