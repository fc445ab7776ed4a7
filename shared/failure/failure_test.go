package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"tempah/shared/failure"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind failure.Kind
		wantCode int
	}{
		{
			name:     "bad request from string",
			err:      failure.BadRequestFromString("invalid payload"),
			wantKind: failure.KindValidation,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not found",
			err:      failure.NotFound("booking"),
			wantKind: failure.KindNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "slot unavailable",
			err:      failure.SlotUnavailable("slot-1"),
			wantKind: failure.KindSlotUnavailable,
			wantCode: http.StatusConflict,
		},
		{
			name:     "booking conflict",
			err:      failure.BookingConflict("provider-1", "booking-9", "09:00", "10:00"),
			wantKind: failure.KindBookingConflict,
			wantCode: http.StatusConflict,
		},
		{
			name:     "invalid state",
			err:      failure.InvalidState("booking-1", "COMPLETED", "CANCELLED"),
			wantKind: failure.KindInvalidState,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "audit write",
			err:      failure.AuditWrite(errors.New("insert failed")),
			wantKind: failure.KindAuditWrite,
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "internal error",
			err:      failure.InternalError(errors.New("boom")),
			wantKind: failure.KindInternal,
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, failure.GetKind(tt.err))
			assert.Equal(t, tt.wantCode, failure.GetCode(tt.err))
		})
	}
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(errors.New("plain")))
	assert.Equal(t, failure.KindInternal, failure.GetKind(errors.New("plain")))
}

func TestGetCode_WrappedFailure(t *testing.T) {
	err := fmt.Errorf("create booking: %w", failure.SlotUnavailable("slot-1"))

	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.True(t, failure.IsKind(err, failure.KindSlotUnavailable))
}

func TestInvalidState_Details(t *testing.T) {
	err := failure.InvalidState("booking-1", "COMPLETED", "CANCELLED")

	details := failure.GetDetails(err)
	assert.Equal(t, "booking-1", details["booking_id"])
	assert.Equal(t, "COMPLETED", details["current_status"])
	assert.Equal(t, "CANCELLED", details["attempted_status"])
}

func TestBookingConflict_Details(t *testing.T) {
	err := failure.BookingConflict("provider-1", "booking-9", "2025-01-10T09:00:00Z", "2025-01-10T10:00:00Z")

	details := failure.GetDetails(err)
	assert.Equal(t, "provider-1", details["provider_id"])
	assert.Equal(t, "booking-9", details["conflicting_booking_id"])
}

func TestBadRequest_NilError(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}
