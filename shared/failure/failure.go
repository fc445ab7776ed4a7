package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags a Failure with its place in the closed error taxonomy so callers
// can switch on the variant instead of matching message strings.
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindSlotUnavailable Kind = "SLOT_UNAVAILABLE"
	KindBookingConflict Kind = "BOOKING_CONFLICT"
	KindInvalidState    Kind = "INVALID_STATE"
	KindNotFound        Kind = "NOT_FOUND"
	KindAuditWrite      Kind = "AUDIT_WRITE_FAILURE"
	KindPublish         Kind = "PUBLISH_FAILURE"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
type Failure struct {
	Kind    Kind           `json:"kind"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

var ForbiddenError = &Failure{Kind: KindForbidden, Code: http.StatusForbidden, Message: "You don't have the required permissions"}
var ResourceRestrictedError = &Failure{Kind: KindForbidden, Code: http.StatusForbidden, Message: "You don't have permission to access this resource"}

// Error returns the error message.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Kind:    KindValidation,
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// Unauthorized returns a new Failure with code for unauthorized requests.
func Unauthorized(msg string) error {
	return &Failure{
		Kind:    KindUnauthorized,
		Code:    http.StatusUnauthorized,
		Message: msg,
	}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{
			Kind:    KindInternal,
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		}
	}

	return nil
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(entityName string) error {
	return &Failure{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: entityName + " not found",
	}
}

// Forbidden returns a new Failure with code for forbidden access.
func Forbidden(msg string) error {
	return &Failure{
		Kind:    KindForbidden,
		Code:    http.StatusForbidden,
		Message: msg,
	}
}

// SlotUnavailable reports that the target slot could not be claimed because it
// is closed, already booked, or gone.
func SlotUnavailable(slotID string) error {
	return &Failure{
		Kind:    KindSlotUnavailable,
		Code:    http.StatusConflict,
		Message: "slot is not available for booking",
		Details: map[string]any{
			"slot_id": slotID,
		},
	}
}

// BookingConflict reports a schedule overlap with another committed booking of
// the same provider, carrying the conflicting interval so the caller can
// render a precise message.
func BookingConflict(providerID, conflictingBookingID, start, end string) error {
	return &Failure{
		Kind:    KindBookingConflict,
		Code:    http.StatusConflict,
		Message: "provider already has a booking overlapping the requested time",
		Details: map[string]any{
			"provider_id":            providerID,
			"conflicting_booking_id": conflictingBookingID,
			"conflicting_start":      start,
			"conflicting_end":        end,
		},
	}
}

// InvalidState reports an illegal lifecycle transition.
func InvalidState(bookingID, currentStatus, attemptedStatus string) error {
	return &Failure{
		Kind:    KindInvalidState,
		Code:    http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("booking cannot transition from %s to %s", currentStatus, attemptedStatus),
		Details: map[string]any{
			"booking_id":       bookingID,
			"current_status":   currentStatus,
			"attempted_status": attemptedStatus,
		},
	}
}

// AuditWrite reports a failed audit insert. It is fatal to the enclosing
// operation: no mutation may commit without its audit record.
func AuditWrite(err error) error {
	return &Failure{
		Kind:    KindAuditWrite,
		Code:    http.StatusInternalServerError,
		Message: "failed to write audit record: " + err.Error(),
	}
}

// Publish reports a failed delivery to the broker. Never returned to lifecycle
// callers; the outbox relay retries on its own schedule.
func Publish(err error) error {
	return &Failure{
		Kind:    KindPublish,
		Code:    http.StatusInternalServerError,
		Message: "failed to publish event: " + err.Error(),
	}
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetKind returns the taxonomy tag of an error interface.
func GetKind(err error) Kind {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Kind
	}

	return KindInternal
}

// IsKind reports whether err carries the given taxonomy tag.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// GetDetails returns the structured detail map of an error interface, or nil.
func GetDetails(err error) map[string]any {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Details
	}

	return nil
}
