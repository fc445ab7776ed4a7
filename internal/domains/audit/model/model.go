package model

import "time"

const (
	TableName  = "booking_audit"
	EntityName = "audit"

	FieldID                = "id"
	FieldBookingID         = "booking_id"
	FieldAction            = "action"
	FieldPerformedByUserID = "performed_by_user_id"
	FieldPerformedByRole   = "performed_by_role"
	FieldOldValue          = "old_value"
	FieldNewValue          = "new_value"
	FieldComments          = "comments"
	FieldPerformedAt       = "performed_at"
)

// Audit is one immutable trace of an accepted booking mutation. Rows are only
// ever inserted, in the same transaction as the mutation they describe.
type Audit struct {
	ID                string    `db:"id"`
	BookingID         string    `db:"booking_id"`
	Action            string    `db:"action"`
	PerformedByUserID string    `db:"performed_by_user_id"`
	PerformedByRole   string    `db:"performed_by_role"`
	OldValue          string    `db:"old_value"`
	NewValue          string    `db:"new_value"`
	Comments          string    `db:"comments"`
	PerformedAt       time.Time `db:"performed_at"`
}
