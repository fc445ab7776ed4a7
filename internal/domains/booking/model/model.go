package model

import (
	"time"

	"tempah/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                 = "id"
	FieldCustomerID         = "customer_id"
	FieldProviderID         = "provider_id"
	FieldServiceListingID   = "service_listing_id"
	FieldSlotID             = "slot_id"
	FieldStatus             = "status"
	FieldScheduledStart     = "scheduled_start"
	FieldScheduledEnd       = "scheduled_end"
	FieldActualStart        = "actual_start"
	FieldActualEnd          = "actual_end"
	FieldDurationMinutes    = "duration_minutes"
	FieldActualDuration     = "actual_duration_minutes"
	FieldTotalPrice         = "total_price"
	FieldPriceAdjustment    = "price_adjustment"
	FieldStartStatus        = "start_status"
	FieldStartDelayMinutes  = "start_delay_minutes"
	FieldCompletionStatus   = "completion_status"
	FieldNotes              = "notes"
	FieldCompletionNotes    = "completion_notes"
	FieldCancellationReason = "cancellation_reason"
	FieldRequestedAt        = "requested_at"
	FieldConfirmedAt        = "confirmed_at"
	FieldTransitionSeq      = "transition_seq"
)

// Booking is one customer/provider appointment occupying a single slot while
// non-terminal. Only the lifecycle service writes it.
type Booking struct {
	ID                 string      `db:"id"`
	CustomerID         string      `db:"customer_id"`
	ProviderID         string      `db:"provider_id"`
	ServiceListingID   string      `db:"service_listing_id"`
	SlotID             string      `db:"slot_id"`
	Status             Status      `db:"status"`
	ScheduledStart     time.Time   `db:"scheduled_start"`
	ScheduledEnd       time.Time   `db:"scheduled_end"`
	ActualStart        *time.Time  `db:"actual_start"`
	ActualEnd          *time.Time  `db:"actual_end"`
	DurationMinutes    int         `db:"duration_minutes"`
	ActualDuration     *int        `db:"actual_duration_minutes"`
	TotalPrice         float64     `db:"total_price"`
	PriceAdjustment    *float64    `db:"price_adjustment"`
	StartStatus        Punctuality `db:"start_status"`
	StartDelayMinutes  int         `db:"start_delay_minutes"`
	CompletionStatus   Punctuality `db:"completion_status"`
	Notes              string      `db:"notes"`
	CompletionNotes    string      `db:"completion_notes"`
	CancellationReason string      `db:"cancellation_reason"`
	RequestedAt        time.Time   `db:"requested_at"`
	ConfirmedAt        *time.Time  `db:"confirmed_at"`
	TransitionSeq      int         `db:"transition_seq"`
	model.Metadata
}

// Terminal reports whether the booking reached a state that admits no further
// transition.
func (b *Booking) Terminal() bool {
	return b.Status.Terminal()
}
