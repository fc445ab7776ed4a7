package availability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tempah/infras/otel"
	"tempah/internal/domains/availability/model/dto"
	"tempah/internal/domains/availability/service"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/validator"
	"tempah/transport/http/response"
)

type Handler struct {
	service service.Availability
	otel    otel.Otel
}

func New(service service.Availability, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/slots", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateSlot)
		routerGroup.Get("/", handler.ListOpenSlots)
		routerGroup.Get("/{id}", handler.GetSlotByID)
	})
}

// CreateSlot publishes a new bookable window for a provider.
// @Summary Create an availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body dto.CreateSlotRequest true "Create Slot Request"
// @Success 201 {object} response.Message "Slot created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/slots [post]
// @Security BearerAuth
func (handler *Handler) CreateSlot(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateSlot")
	defer scope.End()

	req := dto.CreateSlotRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create slot")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusCreated, "Slot created successfully")
}

// ListOpenSlots returns a provider's claimable slots inside the booking
// window.
// @Summary List open slots
// @Tags Availability
// @Produce json
// @Param provider_id query string true "Provider ID"
// @Param from_date query string false "Lower bound (YYYY-MM-DD)"
// @Param to_date query string false "Upper bound (YYYY-MM-DD)"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetSlotsResponse]
// @Failure 400 {object} response.Error
// @Router /v1/slots [get]
// @Security BearerAuth
func (handler *Handler) ListOpenSlots(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ListOpenSlots")
	defer scope.End()

	req := dto.ListOpenSlotsRequest{
		ProviderID: request.URL.Query().Get("provider_id"),
		FromDate:   request.URL.Query().Get("from_date"),
		ToDate:     request.URL.Query().Get("to_date"),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate query parameters")

		response.WithError(writer, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	res, err := handler.service.ListOpen(ctx, req, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list open slots")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetSlotByID returns one slot.
// @Summary Get a slot by ID
// @Tags Availability
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Data[dto.SlotResponse]
// @Failure 404 {object} response.Error
// @Router /v1/slots/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetSlotByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotByID")
	defer scope.End()

	res, err := handler.service.Get(ctx, chi.URLParam(request, "id"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
