//go:build wireinject

package main

import (
	"github.com/google/wire"

	"multichat/internal/domain"
	"multichat/internal/infrastructure"
	"multichat/internal/interfaces"
	"multichat/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, func(), error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
