//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"tempah/config"
	"tempah/infras/jwt"
	"tempah/infras/kafka"
	"tempah/infras/otel"
	"tempah/infras/postgres"
	"tempah/infras/redis"
	"tempah/permissions"
	"tempah/shared/cache"
	"tempah/transport/http"
	"tempah/transport/http/middleware"
	"tempah/transport/http/router"

	auditRepository "tempah/internal/domains/audit/repository"
	auditService "tempah/internal/domains/audit/service"
	availabilityRepository "tempah/internal/domains/availability/repository"
	availabilityService "tempah/internal/domains/availability/service"
	bookingRepository "tempah/internal/domains/booking/repository"
	bookingService "tempah/internal/domains/booking/service"
	outboxRelay "tempah/internal/domains/outbox/relay"
	outboxRepository "tempah/internal/domains/outbox/repository"

	auditHandler "tempah/internal/handlers/audit"
	availabilityHandler "tempah/internal/handlers/availability"
	bookingHandler "tempah/internal/handlers/booking"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	postgres.NewTransactor,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	permissions.Get,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var availabilityDomain = wire.NewSet(
	availabilityRepository.New,
	availabilityService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var auditDomain = wire.NewSet(
	auditRepository.New,
	auditService.New,
)

var outboxDomain = wire.NewSet(
	outboxRepository.New,
)

var domains = wire.NewSet(
	availabilityDomain,
	bookingDomain,
	auditDomain,
	outboxDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	availabilityHandler.New,
	bookingHandler.New,
	auditHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeRelay() *outboxRelay.Relay {
	wire.Build(
		configurations,
		wire.NewSet(
			postgres.New,
			otel.New,
			kafka.New,
		),
		outboxDomain,
		outboxRelay.New,
	)

	return &outboxRelay.Relay{}
}
