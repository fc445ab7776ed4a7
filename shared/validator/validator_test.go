package validator_test

import (
	"strings"
	"testing"

	"tempah/shared/validator"
)

type slotRequest struct {
	ProviderID string  `validate:"required"                         json:"providerId"`
	SlotDate   string  `validate:"required,datetime=2006-01-02"     json:"slotDate"`
	StartTime  string  `validate:"required"                         json:"startTime"`
	Price      float64 `validate:"gte=0"                            json:"price"`
	Role       string  `validate:"oneof=CUSTOMER PROVIDER ADMIN"    json:"role"`
}

func validSlotRequest() *slotRequest {
	return &slotRequest{
		ProviderID: "provider-1",
		SlotDate:   "2026-03-14",
		StartTime:  "2026-03-14T09:00:00Z",
		Price:      150,
		Role:       "PROVIDER",
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*slotRequest)
		expectError bool
	}{
		{
			name:        "valid request",
			mutate:      func(*slotRequest) {},
			expectError: false,
		},
		{
			name:        "missing provider",
			mutate:      func(req *slotRequest) { req.ProviderID = "" },
			expectError: true,
		},
		{
			name:        "malformed date",
			mutate:      func(req *slotRequest) { req.SlotDate = "14-03-2026" },
			expectError: true,
		},
		{
			name:        "negative price",
			mutate:      func(req *slotRequest) { req.Price = -10 },
			expectError: true,
		},
		{
			name:        "unknown role",
			mutate:      func(req *slotRequest) { req.Role = "AUDITOR" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSlotRequest()
			tt.mutate(req)

			err := validator.ValidateStruct(req)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name        string
		field       interface{}
		tag         string
		expectError bool
	}{
		{
			name:        "valid required string",
			field:       "booking-1",
			tag:         "required",
			expectError: false,
		},
		{
			name:        "empty required string",
			field:       "",
			tag:         "required",
			expectError: true,
		},
		{
			name:        "valid uuid",
			field:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
			tag:         "uuid",
			expectError: false,
		},
		{
			name:        "invalid uuid",
			field:       "not-a-uuid",
			tag:         "uuid",
			expectError: true,
		},
		{
			name:        "number in range",
			field:       25,
			tag:         "gte=0,lte=100",
			expectError: false,
		},
		{
			name:        "number out of range",
			field:       150,
			tag:         "gte=0,lte=100",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, tt.tag)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		jsonBody    string
		expectError bool
	}{
		{
			name:        "valid JSON",
			jsonBody:    `{"providerId":"provider-1","slotDate":"2026-03-14","startTime":"2026-03-14T09:00:00Z","price":150,"role":"PROVIDER"}`,
			expectError: false,
		},
		{
			name:        "failing field",
			jsonBody:    `{"providerId":"provider-1","slotDate":"garbage","startTime":"2026-03-14T09:00:00Z","price":150,"role":"PROVIDER"}`,
			expectError: true,
		},
		{
			name:        "malformed JSON",
			jsonBody:    `{"providerId":}`,
			expectError: true,
		},
		{
			name:        "empty JSON",
			jsonBody:    `{}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.jsonBody)
			var data slotRequest
			err := validator.Validate(reader, &data)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	err := validator.ValidateStruct(&slotRequest{})
	if err == nil {
		t.Fatal("expected validation error for empty struct")
	}

	if !strings.Contains(err.Error(), "required") {
		t.Errorf("expected message naming the required rule, got: %s", err.Error())
	}
}
