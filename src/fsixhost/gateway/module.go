package gateway

import (
	fsixdaemon "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/fsix-daemon"
	ideclient "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/ide-client"
	"go.uber.org/fx"
)

// Module provides the outbound gateways: the FsiX daemon connector and the editor client.
var Module = fx.Options(
	fsixdaemon.Module,
	ideclient.Module,
)
