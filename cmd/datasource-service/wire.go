//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"datacuration/internal/biz"
	"datacuration/internal/data"
	"datacuration/internal/infra/idgen"
	"datacuration/internal/infra/kafka"
	"datacuration/internal/server"
	"datacuration/internal/service"
	"datacuration/pkg/database"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*Config, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		// Config conversion providers
		provideDatabaseConfig,
		provideHTTPConfig,
		provideKafkaConfig,

		// Infrastructure layer
		database.NewDB,
		newRedisClient,
		newObjectCache,
		newHealthChecker,
		newIdempotencyConfig,
		kafka.NewEventPublisher,
		idgen.NewIDGenerator,

		// Data layer
		data.ProviderSet,

		// Business logic layer
		biz.NewDataSourceUsecase,

		// Service layer
		service.NewDataSourceService,
		wire.Bind(new(service.DataSourceUsecase), new(*biz.DataSourceUsecase)),

		// Server layer
		server.NewHTTPServer,

		// App
		newApp,
	))
}
