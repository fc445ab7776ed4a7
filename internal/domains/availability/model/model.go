package model

import (
	"time"

	"tempah/shared/model"
)

const (
	TableName  = "availability_slots"
	EntityName = "slot"

	FieldID               = "id"
	FieldProviderID       = "provider_id"
	FieldServiceListingID = "service_listing_id"
	FieldSlotDate         = "slot_date"
	FieldStartTime        = "start_time"
	FieldEndTime          = "end_time"
	FieldIsAvailable      = "is_available"
	FieldIsBooked         = "is_booked"
	FieldBookingRef       = "booking_ref"
)

// Slot is one bookable time window a provider has opened. Occupancy is
// mutated only by the booking lifecycle through claim and release.
type Slot struct {
	ID               string     `db:"id"`
	ProviderID       string     `db:"provider_id"`
	ServiceListingID string     `db:"service_listing_id"`
	SlotDate         time.Time  `db:"slot_date"`
	StartTime        time.Time  `db:"start_time"`
	EndTime          time.Time  `db:"end_time"`
	IsAvailable      bool       `db:"is_available"`
	IsBooked         bool       `db:"is_booked"`
	BookingRef       *string    `db:"booking_ref"`
	model.Metadata
}

// Open reports whether the slot can currently accept a claim.
func (s *Slot) Open() bool {
	return s.IsAvailable && !s.IsBooked
}
