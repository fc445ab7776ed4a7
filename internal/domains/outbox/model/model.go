package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

const (
	TableName  = "outbox"
	EntityName = "outbox"

	FieldID           = "id"
	FieldEventID      = "event_id"
	FieldEventType    = "event_type"
	FieldAggregateID  = "aggregate_id"
	FieldPartitionKey = "partition_key"
	FieldOccurredAt   = "occurred_at"
	FieldMetadata     = "metadata"
	FieldPayload      = "payload"
	FieldStatus       = "status"
	FieldAttempts     = "attempts"
	FieldLeaseOwner   = "lease_owner"
	FieldLeasedUntil  = "leased_until"
	FieldDeliveredAt  = "delivered_at"
	FieldCreatedAt    = "created_at"
)

const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
)

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventBookingStarted   = "BOOKING_STARTED"
	EventBookingCompleted = "BOOKING_COMPLETED"
	EventBookingCancelled = "BOOKING_CANCELLED"
)

// EventID derives the stable idempotency key of one lifecycle transition.
// Consumers dedup on it across relay redeliveries.
func EventID(bookingID, eventType string, transitionSeq int) string {
	return fmt.Sprintf("%s:%s:%d", bookingID, eventType, transitionSeq)
}

// Metadata travels with every envelope and identifies who triggered the
// transition and from where.
type Metadata struct {
	UserID     string `json:"userId"`
	ProviderID string `json:"providerId"`
	CustomerID string `json:"customerId"`
	Source     string `json:"source"`
	IPAddress  string `json:"ipAddress,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// Envelope is the wire schema delivered to the broker.
type Envelope struct {
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	AggregateID  string          `json:"aggregateId"`
	PartitionKey string          `json:"partitionKey"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Metadata     Metadata        `json:"metadata"`
	Payload      json.RawMessage `json:"payload"`
}

// Entry is the durable outbox row recorded in the same transaction as the
// booking mutation it announces.
type Entry struct {
	ID           string         `db:"id"`
	EventID      string         `db:"event_id"`
	EventType    string         `db:"event_type"`
	AggregateID  string         `db:"aggregate_id"`
	PartitionKey string         `db:"partition_key"`
	OccurredAt   time.Time      `db:"occurred_at"`
	Metadata     types.JSONText `db:"metadata"`
	Payload      types.JSONText `db:"payload"`
	Status       string         `db:"status"`
	Attempts     int            `db:"attempts"`
	LeaseOwner   *string        `db:"lease_owner"`
	LeasedUntil  *time.Time     `db:"leased_until"`
	DeliveredAt  *time.Time     `db:"delivered_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

// NewEntry builds a pending outbox row for one committed transition.
func NewEntry(eventType, bookingID, partitionKey string, transitionSeq int, occurredAt time.Time, metadata Metadata, payload any) (Entry, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	return Entry{
		ID:           uuid.NewString(),
		EventID:      EventID(bookingID, eventType, transitionSeq),
		EventType:    eventType,
		AggregateID:  bookingID,
		PartitionKey: partitionKey,
		OccurredAt:   occurredAt,
		Metadata:     types.JSONText(rawMetadata),
		Payload:      types.JSONText(rawPayload),
		Status:       StatusPending,
		CreatedAt:    occurredAt,
	}, nil
}

// ToEnvelope converts the stored row back into the wire schema.
func (e *Entry) ToEnvelope() (Envelope, error) {
	var metadata Metadata
	if err := json.Unmarshal(e.Metadata, &metadata); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal event metadata: %w", err)
	}

	return Envelope{
		EventID:      e.EventID,
		EventType:    e.EventType,
		AggregateID:  e.AggregateID,
		PartitionKey: e.PartitionKey,
		OccurredAt:   e.OccurredAt,
		Metadata:     metadata,
		Payload:      json.RawMessage(e.Payload),
	}, nil
}
