package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"tempah/config"
	"tempah/infras/otel"
	"tempah/infras/postgres"
	auditModel "tempah/internal/domains/audit/model"
	auditRepo "tempah/internal/domains/audit/repository"
	availRepo "tempah/internal/domains/availability/repository"
	"tempah/internal/domains/booking/model"
	"tempah/internal/domains/booking/model/dto"
	"tempah/internal/domains/booking/repository"
	outboxModel "tempah/internal/domains/outbox/model"
	outboxRepo "tempah/internal/domains/outbox/repository"
	"tempah/shared"
	"tempah/shared/cache"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/failure"
	"tempah/shared/timezone"

	"github.com/google/uuid"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheGetAllSlots   = "slot:gets"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest, actor dto.Actor) (dto.BookingResponse, error)
	Confirm(ctx context.Context, bookingID string, actor dto.Actor) (dto.BookingResponse, error)
	Start(ctx context.Context, bookingID string, actor dto.Actor) (dto.BookingResponse, error)
	Complete(ctx context.Context, bookingID string, req dto.CompleteBookingRequest, actor dto.Actor) (dto.BookingResponse, error)
	Cancel(ctx context.Context, bookingID string, req dto.CancelBookingRequest, actor dto.Actor) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
}

type serviceImpl struct {
	repo     repository.Booking
	slotRepo availRepo.Availability
	audit    auditRepo.Audit
	outbox   outboxRepo.Outbox
	txm      postgres.Transactor
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Booking,
	slotRepo availRepo.Availability,
	audit auditRepo.Audit,
	outbox outboxRepo.Outbox,
	txm postgres.Transactor,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:     repo,
		slotRepo: slotRepo,
		audit:    audit,
		outbox:   outbox,
		txm:      txm,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Create claims the slot and opens a PENDING booking. The slot row lock,
// the overlap scan, the booking insert, the audit record, and the outbox
// entry all commit together or not at all.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest, actor dto.Actor) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !model.ActorRole(actor.Role).Valid() {
		return res, failure.BadRequestFromString("unknown actor role: " + actor.Role) // nolint:wrapcheck
	}

	var booking model.Booking

	err = s.txm.WithinTx(ctx, func(tx *sqlx.Tx) error {
		slot, err := s.slotRepo.GetForUpdateTx(ctx, tx, req.SlotID)
		if err != nil {
			return fmt.Errorf("failed to lock slot: %w", err)
		}

		if slot.ID == constant.Empty || !slot.Open() {
			return failure.SlotUnavailable(req.SlotID) // nolint:wrapcheck
		}

		// Overlap via a different slot of the same provider is decided under
		// the provider lock, not just this slot's row lock.
		if err := s.slotRepo.LockProviderTx(ctx, tx, slot.ProviderID); err != nil {
			return fmt.Errorf("failed to lock provider: %w", err)
		}

		conflicting, err := s.repo.FindOverlappingActiveTx(ctx, tx, slot.ProviderID, slot.StartTime, slot.EndTime)
		if err != nil {
			return fmt.Errorf("failed to scan for schedule conflicts: %w", err)
		}

		if conflicting.ID != constant.Empty {
			return failure.BookingConflict( // nolint:wrapcheck
				slot.ProviderID,
				conflicting.ID,
				timezone.Format(conflicting.ScheduledStart, constant.DateFormat),
				timezone.Format(conflicting.ScheduledEnd, constant.DateFormat),
			)
		}

		booking = req.ToModel(slot, actor.UserID)

		claimed, err := s.slotRepo.ClaimTx(ctx, tx, slot.ID, booking.ID)
		if err != nil {
			return fmt.Errorf("failed to claim slot: %w", err)
		}

		if !claimed {
			return failure.SlotUnavailable(slot.ID) // nolint:wrapcheck
		}

		if err := s.repo.InsertTx(ctx, tx, booking); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		payload := dto.NewEventPayload(booking)

		if err := s.recordAuditTx(ctx, tx, booking.ID, model.ActionCreate, actor, "", dto.MarshalSnapshot(payload), req.Notes); err != nil {
			return err
		}

		return s.enqueueTx(ctx, tx, outboxModel.EventBookingCreated, booking, actor, payload)
	})

	if err != nil {
		log.Error().Err(err).Str("slotId", req.SlotID).Msg("failed to create booking")

		return res, err
	}

	s.invalidate(ctx, booking.ID)

	res.FromModel(booking)

	return res, nil
}

// Confirm moves PENDING to CONFIRMED.
func (s *serviceImpl) Confirm(ctx context.Context, bookingID string, actor dto.Actor) (dto.BookingResponse, error) {
	return s.transition(ctx, bookingID, actor, transitionSpec{
		name:      "Confirm",
		next:      model.StatusConfirmed,
		action:    model.ActionConfirm,
		eventType: outboxModel.EventBookingConfirmed,
		mutate: func(b *model.Booking, now time.Time) map[string]any {
			b.ConfirmedAt = &now

			return map[string]any{
				model.FieldConfirmedAt: now,
			}
		},
	})
}

// Start moves CONFIRMED to IN_PROGRESS and grades punctuality against the
// scheduled start under the configured tolerance.
func (s *serviceImpl) Start(ctx context.Context, bookingID string, actor dto.Actor) (dto.BookingResponse, error) {
	tolerance := time.Duration(s.cfg.Booking.OnTimeToleranceMinutes) * time.Minute

	return s.transition(ctx, bookingID, actor, transitionSpec{
		name:      "Start",
		next:      model.StatusInProgress,
		action:    model.ActionStart,
		eventType: outboxModel.EventBookingStarted,
		mutate: func(b *model.Booking, now time.Time) map[string]any {
			b.ActualStart = &now
			b.StartStatus, b.StartDelayMinutes = model.ComputePunctuality(b.ScheduledStart, now, tolerance)

			return map[string]any{
				model.FieldActualStart:       now,
				model.FieldStartStatus:       b.StartStatus,
				model.FieldStartDelayMinutes: b.StartDelayMinutes,
			}
		},
	})
}

// Complete moves IN_PROGRESS to COMPLETED, computes the actual duration and
// completion punctuality, and applies the optional price adjustment. The
// emitted event carries the review-request timestamp; no timer lives here.
func (s *serviceImpl) Complete(ctx context.Context, bookingID string, req dto.CompleteBookingRequest, actor dto.Actor) (dto.BookingResponse, error) {
	tolerance := time.Duration(s.cfg.Booking.OnTimeToleranceMinutes) * time.Minute
	reviewDelay := time.Duration(s.cfg.Booking.ReviewRequestDelayHours) * time.Hour

	return s.transition(ctx, bookingID, actor, transitionSpec{
		name:      "Complete",
		next:      model.StatusCompleted,
		action:    model.ActionComplete,
		eventType: outboxModel.EventBookingCompleted,
		comments:  req.CompletionNotes,
		mutate: func(b *model.Booking, now time.Time) map[string]any {
			b.ActualEnd = &now
			b.CompletionStatus, _ = model.ComputePunctuality(b.ScheduledEnd, now, tolerance)
			b.CompletionNotes = req.CompletionNotes

			started := b.ScheduledStart
			if b.ActualStart != nil {
				started = *b.ActualStart
			}

			actualDuration := model.DurationMinutes(started, now)
			b.ActualDuration = &actualDuration

			fields := map[string]any{
				model.FieldActualEnd:        now,
				model.FieldActualDuration:   actualDuration,
				model.FieldCompletionStatus: b.CompletionStatus,
				model.FieldCompletionNotes:  req.CompletionNotes,
			}

			if req.PriceAdjustment != nil {
				b.PriceAdjustment = req.PriceAdjustment
				b.TotalPrice = model.ApplyAdjustment(b.TotalPrice, req.PriceAdjustment)
				fields[model.FieldPriceAdjustment] = *req.PriceAdjustment
				fields[model.FieldTotalPrice] = b.TotalPrice
			}

			return fields
		},
		decorate: func(payload *dto.EventPayload, now time.Time) {
			reviewAt := now.Add(reviewDelay)
			payload.ReviewRequestAt = &reviewAt
		},
	})
}

// Cancel is legal from any non-terminal state. It releases the claimed slot
// so the window reappears in open-slot listings.
func (s *serviceImpl) Cancel(ctx context.Context, bookingID string, req dto.CancelBookingRequest, actor dto.Actor) (dto.BookingResponse, error) {
	return s.transition(ctx, bookingID, actor, transitionSpec{
		name:        "Cancel",
		next:        model.StatusCancelled,
		action:      model.ActionCancel,
		eventType:   outboxModel.EventBookingCancelled,
		comments:    req.Reason,
		releaseSlot: true,
		mutate: func(b *model.Booking, _ time.Time) map[string]any {
			b.CancellationReason = req.Reason

			return map[string]any{
				model.FieldCancellationReason: req.Reason,
			}
		},
	})
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound(model.EntityName) // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

// transitionSpec describes one state-machine edge: the target status, the
// audit action, the event type, and the mutation applied on success.
type transitionSpec struct {
	name        string
	next        model.Status
	action      model.Action
	eventType   string
	comments    string
	releaseSlot bool
	mutate      func(b *model.Booking, now time.Time) map[string]any
	decorate    func(payload *dto.EventPayload, now time.Time)
}

func (s *serviceImpl) transition(ctx context.Context, bookingID string, actor dto.Actor, spec transitionSpec) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking."+spec.name)
	defer scope.End()
	defer scope.TraceIfError(err)

	if !model.ActorRole(actor.Role).Valid() {
		return res, failure.BadRequestFromString("unknown actor role: " + actor.Role) // nolint:wrapcheck
	}

	var booking model.Booking

	err = s.txm.WithinTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.repo.GetForUpdateTx(ctx, tx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		if current.ID == constant.Empty {
			return failure.NotFound(model.EntityName) // nolint:wrapcheck
		}

		if !current.Status.CanTransitionTo(spec.next) {
			return failure.InvalidState(current.ID, current.Status.String(), spec.next.String()) // nolint:wrapcheck
		}

		now := timezone.Now()
		oldPayload := dto.NewEventPayload(current)

		booking = current
		fields := spec.mutate(&booking, now)

		booking.Status = spec.next
		booking.TransitionSeq = current.TransitionSeq + 1
		booking.ModifiedAt = now
		booking.ModifiedBy = actor.UserID

		fields[model.FieldStatus] = booking.Status
		fields[model.FieldTransitionSeq] = booking.TransitionSeq
		fields[constant.FieldModifiedAt] = now
		fields[constant.FieldModifiedBy] = actor.UserID

		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		if spec.releaseSlot {
			if err := s.slotRepo.ReleaseTx(ctx, tx, booking.SlotID); err != nil {
				return fmt.Errorf("failed to release slot: %w", err)
			}
		}

		newPayload := dto.NewEventPayload(booking)
		if spec.decorate != nil {
			spec.decorate(&newPayload, now)
		}

		if err := s.recordAuditTx(ctx, tx, booking.ID, spec.action, actor, dto.MarshalSnapshot(oldPayload), dto.MarshalSnapshot(newPayload), spec.comments); err != nil {
			return err
		}

		return s.enqueueTx(ctx, tx, spec.eventType, booking, actor, newPayload)
	})

	if err != nil {
		log.Error().Err(err).Str("bookingId", bookingID).Str("transition", spec.name).Msg("failed to transition booking")

		return res, err
	}

	s.invalidate(ctx, booking.ID)

	res.FromModel(booking)

	return res, nil
}

// recordAuditTx writes the mutation's immutable trace. A failed insert aborts
// the enclosing transaction: no mutation without its audit record.
func (s *serviceImpl) recordAuditTx(ctx context.Context, tx *sqlx.Tx, bookingID string, action model.Action, actor dto.Actor, oldValue, newValue, comments string) error {
	entry := auditModel.Audit{
		ID:                uuid.NewString(),
		BookingID:         bookingID,
		Action:            string(action),
		PerformedByUserID: actor.UserID,
		PerformedByRole:   actor.Role,
		OldValue:          oldValue,
		NewValue:          newValue,
		Comments:          comments,
		PerformedAt:       timezone.Now(),
	}

	if err := s.audit.InsertTx(ctx, tx, entry); err != nil {
		return failure.AuditWrite(err) // nolint:wrapcheck
	}

	return nil
}

// enqueueTx records the event envelope in the booking's transaction. The
// relay delivers it after commit; broker trouble never fails the caller.
func (s *serviceImpl) enqueueTx(ctx context.Context, tx *sqlx.Tx, eventType string, booking model.Booking, actor dto.Actor, payload dto.EventPayload) error {
	metadata := outboxModel.Metadata{
		UserID:     actor.UserID,
		ProviderID: booking.ProviderID,
		CustomerID: booking.CustomerID,
		Source:     actor.Source,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}

	entry, err := outboxModel.NewEntry(eventType, booking.ID, booking.ProviderID, booking.TransitionSeq, timezone.Now(), metadata, payload)
	if err != nil {
		return fmt.Errorf("failed to build outbox entry: %w", err)
	}

	if err := s.outbox.EnqueueTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, bookingID string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, bookingID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheGetAllSlots)
	}()
}
