package router

import (
	"github.com/go-chi/chi/v5"

	"tempah/internal/handlers/audit"
	"tempah/internal/handlers/availability"
	"tempah/internal/handlers/booking"
	"tempah/transport/http/middleware"
)

type DomainHandlers struct {
	Availability availability.Handler
	Booking      booking.Handler
	Audit        audit.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey)
		routerGroup.Use(r.AuthRole.Auth)
		routerGroup.Use(r.AuthRole.RBAC)

		r.DomainHandlers.Availability.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Audit.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
	}
}
