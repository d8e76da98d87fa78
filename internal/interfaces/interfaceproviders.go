package interfaces

import (
	"github.com/google/wire"

	"multichat/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
	httpserver.NewMetricsServer,
)
