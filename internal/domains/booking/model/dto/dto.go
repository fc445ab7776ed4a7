package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	availModel "tempah/internal/domains/availability/model"
	"tempah/internal/domains/booking/model"
	"tempah/shared"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	gModel "tempah/shared/model"
	"tempah/shared/timezone"
)

// Actor identifies who performs a lifecycle operation. Carried explicitly on
// every call; the role is never inferred from ambient request state.
type Actor struct {
	UserID    string `json:"user_id"    validate:"required"`
	Role      string `json:"role"       validate:"required,oneof=CUSTOMER PROVIDER ADMIN SYSTEM"`
	Source    string `json:"source"     validate:"omitempty"`
	IPAddress string `json:"ip_address" validate:"omitempty"`
	UserAgent string `json:"user_agent" validate:"omitempty"`
}

type CreateBookingRequest struct {
	CustomerID       string  `json:"customer_id"        validate:"required"`
	SlotID           string  `json:"slot_id"            validate:"required"`
	ServiceListingID string  `json:"service_listing_id" validate:"required"`
	TotalPrice       float64 `json:"total_price"        validate:"gte=0"`
	Notes            string  `json:"notes"              validate:"omitempty"`
}

// ToModel builds the PENDING booking from the claimed slot.
func (c *CreateBookingRequest) ToModel(slot availModel.Slot, user string) model.Booking {
	now := timezone.Now()

	return model.Booking{
		ID:               uuid.NewString(),
		CustomerID:       c.CustomerID,
		ProviderID:       slot.ProviderID,
		ServiceListingID: c.ServiceListingID,
		SlotID:           slot.ID,
		Status:           model.StatusPending,
		ScheduledStart:   slot.StartTime,
		ScheduledEnd:     slot.EndTime,
		DurationMinutes:  model.DurationMinutes(slot.StartTime, slot.EndTime),
		TotalPrice:       c.TotalPrice,
		Notes:            c.Notes,
		RequestedAt:      now,
		TransitionSeq:    1,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type CompleteBookingRequest struct {
	CompletionNotes string   `json:"completion_notes" validate:"omitempty"`
	PriceAdjustment *float64 `json:"price_adjustment" validate:"omitempty"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type BookingResponse struct {
	ID                 string   `json:"id"`
	CustomerID         string   `json:"customer_id"`
	ProviderID         string   `json:"provider_id"`
	ServiceListingID   string   `json:"service_listing_id"`
	SlotID             string   `json:"slot_id"`
	Status             string   `json:"status"`
	ScheduledStart     string   `json:"scheduled_start"`
	ScheduledEnd       string   `json:"scheduled_end"`
	ActualStart        string   `json:"actual_start,omitempty"`
	ActualEnd          string   `json:"actual_end,omitempty"`
	DurationMinutes    int      `json:"duration_minutes"`
	ActualDuration     *int     `json:"actual_duration_minutes,omitempty"`
	TotalPrice         float64  `json:"total_price"`
	PriceAdjustment    *float64 `json:"price_adjustment,omitempty"`
	StartStatus        string   `json:"start_status,omitempty"`
	StartDelayMinutes  int      `json:"start_delay_minutes,omitempty"`
	CompletionStatus   string   `json:"completion_status,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	CompletionNotes    string   `json:"completion_notes,omitempty"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`
	RequestedAt        string   `json:"requested_at"`
	ConfirmedAt        string   `json:"confirmed_at,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.CustomerID = mod.CustomerID
	r.ProviderID = mod.ProviderID
	r.ServiceListingID = mod.ServiceListingID
	r.SlotID = mod.SlotID
	r.Status = mod.Status.String()
	r.ScheduledStart = timezone.Format(mod.ScheduledStart, constant.DateFormat)
	r.ScheduledEnd = timezone.Format(mod.ScheduledEnd, constant.DateFormat)
	r.DurationMinutes = mod.DurationMinutes
	r.ActualDuration = mod.ActualDuration
	r.TotalPrice = mod.TotalPrice
	r.PriceAdjustment = mod.PriceAdjustment
	r.StartStatus = string(mod.StartStatus)
	r.StartDelayMinutes = mod.StartDelayMinutes
	r.CompletionStatus = string(mod.CompletionStatus)
	r.Notes = mod.Notes
	r.CompletionNotes = mod.CompletionNotes
	r.CancellationReason = mod.CancellationReason
	r.RequestedAt = timezone.Format(mod.RequestedAt, constant.DateFormat)

	if mod.ActualStart != nil {
		r.ActualStart = timezone.Format(*mod.ActualStart, constant.DateFormat)
	}

	if mod.ActualEnd != nil {
		r.ActualEnd = timezone.Format(*mod.ActualEnd, constant.DateFormat)
	}

	if mod.ConfirmedAt != nil {
		r.ConfirmedAt = timezone.Format(*mod.ConfirmedAt, constant.DateFormat)
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// EventPayload is the snapshot embedded in lifecycle events and in audit
// value columns. Derived fields are copied verbatim from the booking so event
// and audit stay byte-equal for the same transition.
type EventPayload struct {
	BookingID          string     `json:"bookingId"`
	CustomerID         string     `json:"customerId"`
	ProviderID         string     `json:"providerId"`
	ServiceListingID   string     `json:"serviceListingId"`
	SlotID             string     `json:"slotId"`
	Status             string     `json:"status"`
	ScheduledStart     time.Time  `json:"scheduledStart"`
	ScheduledEnd       time.Time  `json:"scheduledEnd"`
	ActualStart        *time.Time `json:"actualStart,omitempty"`
	ActualEnd          *time.Time `json:"actualEnd,omitempty"`
	DurationMinutes    int        `json:"durationMinutes"`
	ActualDuration     *int       `json:"actualDurationMinutes,omitempty"`
	TotalPrice         float64    `json:"totalPrice"`
	PriceAdjustment    *float64   `json:"priceAdjustment,omitempty"`
	StartStatus        string     `json:"startStatus,omitempty"`
	StartDelayMinutes  int        `json:"startDelayMinutes,omitempty"`
	CompletionStatus   string     `json:"completionStatus,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CompletionNotes    string     `json:"completionNotes,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	ReviewRequestAt    *time.Time `json:"reviewRequestAt,omitempty"`
}

// NewEventPayload snapshots the booking as event/audit payload.
func NewEventPayload(mod model.Booking) EventPayload {
	return EventPayload{
		BookingID:          mod.ID,
		CustomerID:         mod.CustomerID,
		ProviderID:         mod.ProviderID,
		ServiceListingID:   mod.ServiceListingID,
		SlotID:             mod.SlotID,
		Status:             mod.Status.String(),
		ScheduledStart:     mod.ScheduledStart,
		ScheduledEnd:       mod.ScheduledEnd,
		ActualStart:        mod.ActualStart,
		ActualEnd:          mod.ActualEnd,
		DurationMinutes:    mod.DurationMinutes,
		ActualDuration:     mod.ActualDuration,
		TotalPrice:         mod.TotalPrice,
		PriceAdjustment:    mod.PriceAdjustment,
		StartStatus:        string(mod.StartStatus),
		StartDelayMinutes:  mod.StartDelayMinutes,
		CompletionStatus:   string(mod.CompletionStatus),
		Notes:              mod.Notes,
		CompletionNotes:    mod.CompletionNotes,
		CancellationReason: mod.CancellationReason,
	}
}

// MarshalSnapshot renders the payload for audit value columns.
func MarshalSnapshot(payload EventPayload) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}

	return string(raw)
}
