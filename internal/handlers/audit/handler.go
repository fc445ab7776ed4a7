package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tempah/infras/otel"
	"tempah/internal/domains/audit/model/dto"
	"tempah/internal/domains/audit/service"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/validator"
	"tempah/transport/http/response"
)

type Handler struct {
	service service.Audit
	otel    otel.Otel
}

func New(service service.Audit, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/audits", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.SearchAudits)
	})

	router.Get("/bookings/{id}/audit", handler.GetBookingTrail)
}

// GetBookingTrail returns the full audit trail of one booking, oldest first.
// @Summary Get the audit trail of a booking
// @Tags Audit
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.GetAuditsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/audit [get]
// @Security BearerAuth
func (handler *Handler) GetBookingTrail(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingTrail")
	defer scope.End()

	res, err := handler.service.Trail(ctx, chi.URLParam(request, "id"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get audit trail")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// SearchAudits filters the trail across bookings.
// @Summary Search audit records
// @Tags Audit
// @Produce json
// @Param booking_id query string false "Filter by booking"
// @Param actor query string false "Filter by acting user"
// @Param action query string false "Filter by action (CREATE CONFIRM START COMPLETE CANCEL)"
// @Param role query string false "Filter by actor role"
// @Param from query string false "Lower time bound (RFC3339)"
// @Param to query string false "Upper time bound (RFC3339)"
// @Param search query string false "Free text over comments and snapshots"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetAuditsResponse]
// @Failure 400 {object} response.Error
// @Router /v1/audits [get]
// @Security BearerAuth
func (handler *Handler) SearchAudits(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SearchAudits")
	defer scope.End()

	query := request.URL.Query()

	req := dto.SearchAuditsRequest{
		BookingID: query.Get("booking_id"),
		Actor:     query.Get("actor"),
		Action:    query.Get("action"),
		Role:      query.Get("role"),
		From:      query.Get("from"),
		To:        query.Get("to"),
		Search:    query.Get("search"),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate query parameters")

		response.WithError(writer, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	res, err := handler.service.Search(ctx, req, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to search audit records")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
