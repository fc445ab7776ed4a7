package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"tempah/config"
	"tempah/infras/otel"
	"tempah/infras/postgres"
	"tempah/internal/domains/availability/model"
	"tempah/internal/domains/availability/model/dto"
	"tempah/internal/domains/availability/repository"
	"tempah/shared"
	"tempah/shared/cache"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/failure"
	"tempah/shared/timezone"
)

const (
	cacheGetSlot     = "slot:get"
	cacheGetAllSlots = "slot:gets"
)

type Availability interface {
	Create(ctx context.Context, req dto.CreateSlotRequest) error
	ListOpen(ctx context.Context, req dto.ListOpenSlotsRequest, params gDto.QueryParams) (dto.GetSlotsResponse, error)
	Get(ctx context.Context, id string) (dto.SlotResponse, error)
}

type serviceImpl struct {
	repo  repository.Availability
	txm   postgres.Transactor
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Availability, txm postgres.Transactor, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Availability {
	return &serviceImpl{
		repo:  repo,
		txm:   txm,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// Create opens a new bookable slot for a provider. The slot must not overlap
// any other bookable slot of the same provider.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateSlotRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".slot.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	slot, err := req.ToModel(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse slot request")

		return failure.BadRequestFromString(fmt.Sprintf("invalid date/time format: %v", err)) // nolint:wrapcheck
	}

	if !slot.EndTime.After(slot.StartTime) {
		return failure.BadRequestFromString("slot end time must be after start time") // nolint:wrapcheck
	}

	err = s.txm.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.LockProviderTx(ctx, tx, slot.ProviderID); err != nil {
			return fmt.Errorf("failed to lock provider: %w", err)
		}

		overlapping, err := s.repo.OverlappingOpenExistsTx(ctx, tx, slot.ProviderID, slot.StartTime, slot.EndTime)
		if err != nil {
			return fmt.Errorf("failed to check slot overlap: %w", err)
		}

		if overlapping {
			return failure.BookingConflict(slot.ProviderID, "", req.StartTime, req.EndTime) // nolint:wrapcheck
		}

		return s.repo.InsertTx(ctx, tx, slot) //nolint:wrapcheck
	})
	if err != nil {
		log.Error().Err(err).Str("providerId", slot.ProviderID).Msg("failed to create slot")

		return err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllSlots)
	}()

	return nil
}

// ListOpen returns the provider's claimable slots inside the booking window,
// oldest first. Past slots are filtered out.
func (s *serviceImpl) ListOpen(ctx context.Context, req dto.ListOpenSlotsRequest, params gDto.QueryParams) (res dto.GetSlotsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".slot.ListOpen")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllSlots, params, req)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for open slots")

		return res, nil
	}

	filter := s.openSlotFilter(req)

	if params.SortBy == "" {
		params.SortBy = model.FieldStartTime
		params.SortDir = gDto.SortDirAsc
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count open slots")

		return res, fmt.Errorf("failed to count open slots: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list open slots")

		return res, fmt.Errorf("failed to list open slots: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save open slots to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.SlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".slot.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetSlot, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slot")

		return res, nil
	}

	slot, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound(model.EntityName) // nolint:wrapcheck
	}

	res.FromModel(slot)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slot to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) openSlotFilter(req dto.ListOpenSlotsRequest) gDto.FilterGroup {
	now := timezone.Now()
	windowEnd := now.AddDate(0, 0, s.cfg.Booking.SlotWindowDays)

	filters := []any{
		gDto.Filter{Field: model.FieldProviderID, Value: req.ProviderID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldIsAvailable, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldIsBooked, Value: false, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{ArgName: "window_start", Field: model.FieldStartTime, Value: now, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName},
		gDto.Filter{ArgName: "window_end", Field: model.FieldStartTime, Value: windowEnd, Operator: gDto.FilterOperatorLessEq, Table: model.TableName},
	}

	if from, err := timezone.Parse("2006-01-02", req.FromDate); err == nil && req.FromDate != "" {
		filters = append(filters, gDto.Filter{ArgName: "from_date", Field: model.FieldSlotDate, Value: from, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName})
	}

	if to, err := timezone.Parse("2006-01-02", req.ToDate); err == nil && req.ToDate != "" {
		filters = append(filters, gDto.Filter{ArgName: "to_date", Field: model.FieldSlotDate, Value: to, Operator: gDto.FilterOperatorLessEq, Table: model.TableName})
	}

	return gDto.FilterGroup{
		Filters:  filters,
		Operator: gDto.FilterGroupOperatorAnd,
	}
}
