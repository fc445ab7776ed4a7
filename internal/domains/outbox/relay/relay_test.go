package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tempah/config"
	"tempah/infras/kafka"
	kafkaMocks "tempah/infras/kafka/mocks"
	"tempah/infras/otel/mocks"
	outboxMocks "tempah/internal/domains/outbox/mocks"
	"tempah/internal/domains/outbox/model"
	"tempah/internal/domains/outbox/relay"
	"tempah/shared/failure"
)

func newRelay(t *testing.T) (*relay.Relay, *outboxMocks.MockOutbox, *kafkaMocks.MockClient) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := outboxMocks.NewMockOutbox(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Outbox.BatchSize = 50
	cfg.Outbox.LeaseSeconds = 30
	cfg.Kafka.BookingTopic = "booking-events"

	return relay.New(mockRepo, mockKafka, cfg, mocks.NewOtel()), mockRepo, mockKafka
}

func pendingEntry(t *testing.T, bookingID, partitionKey, eventType string, seq int, at time.Time) model.Entry {
	t.Helper()

	entry, err := model.NewEntry(eventType, bookingID, partitionKey, seq, at, model.Metadata{UserID: "user-1"}, map[string]any{"bookingId": bookingID})
	require.NoError(t, err)

	entry.ID = uuid.NewString()
	entry.CreatedAt = at

	return entry
}

func TestRelay_Drain(t *testing.T) {
	base := time.Now()

	t.Run("publishes leased entries and marks them delivered", func(t *testing.T) {
		r, mockRepo, mockKafka := newRelay(t)

		first := pendingEntry(t, "booking-1", "provider-1", model.EventBookingCreated, 1, base)
		second := pendingEntry(t, "booking-1", "provider-1", model.EventBookingConfirmed, 2, base.Add(time.Second))

		var keys []string

		mockRepo.EXPECT().Lease(gomock.Any(), gomock.Any(), 50, 30*time.Second).Return([]model.Entry{first, second}, nil)
		mockKafka.EXPECT().
			SendMessages(gomock.Any(), "booking-events", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
				for _, msg := range messages {
					keys = append(keys, msg.Key)
				}
				return nil
			}).
			Times(2)
		mockRepo.EXPECT().MarkDelivered(gomock.Any(), first.ID).Return(nil)
		mockRepo.EXPECT().MarkDelivered(gomock.Any(), second.ID).Return(nil)

		published, err := r.Drain(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, published)
		assert.Equal(t, []string{"provider-1", "provider-1"}, keys)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		r, mockRepo, _ := newRelay(t)

		mockRepo.EXPECT().Lease(gomock.Any(), gomock.Any(), 50, 30*time.Second).Return(nil, nil)

		published, err := r.Drain(context.Background())

		require.NoError(t, err)
		assert.Zero(t, published)
	})

	t.Run("a failed publish abandons the rest of its partition", func(t *testing.T) {
		r, mockRepo, mockKafka := newRelay(t)

		first := pendingEntry(t, "booking-1", "provider-1", model.EventBookingCreated, 1, base)
		second := pendingEntry(t, "booking-1", "provider-1", model.EventBookingConfirmed, 2, base.Add(time.Second))
		third := pendingEntry(t, "booking-2", "provider-2", model.EventBookingCreated, 1, base.Add(2*time.Second))

		mockRepo.EXPECT().Lease(gomock.Any(), gomock.Any(), 50, 30*time.Second).Return([]model.Entry{first, second, third}, nil)

		// provider-1: first publish fails, second must not be attempted.
		mockKafka.EXPECT().
			SendMessages(gomock.Any(), "booking-events", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
				raw, _ := json.Marshal(messages[0].Value)

				var envelope model.Envelope
				require.NoError(t, json.Unmarshal(raw, &envelope))

				if envelope.PartitionKey == "provider-1" {
					return errors.New("broker unavailable")
				}
				return nil
			}).
			Times(2)

		mockRepo.EXPECT().ReleaseLease(gomock.Any(), first.ID).Return(nil)
		mockRepo.EXPECT().ReleaseLease(gomock.Any(), second.ID).Return(nil)
		mockRepo.EXPECT().MarkDelivered(gomock.Any(), third.ID).Return(nil)

		published, err := r.Drain(context.Background())

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindPublish))
		assert.Equal(t, 1, published)
	})

	t.Run("lease failure surfaces to the poll loop", func(t *testing.T) {
		r, mockRepo, _ := newRelay(t)

		mockRepo.EXPECT().Lease(gomock.Any(), gomock.Any(), 50, 30*time.Second).Return(nil, errors.New("database error"))

		_, err := r.Drain(context.Background())

		assert.Error(t, err)
	})

	t.Run("configured worker count leases under distinct owners", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		mockRepo := outboxMocks.NewMockOutbox(ctrl)
		mockKafka := kafkaMocks.NewMockClient(ctrl)

		cfg := &config.Config{}
		cfg.Outbox.BatchSize = 50
		cfg.Outbox.LeaseSeconds = 30
		cfg.Outbox.Workers = 2
		cfg.Kafka.BookingTopic = "booking-events"

		var (
			mu     sync.Mutex
			owners = map[string]struct{}{}
		)

		mockRepo.EXPECT().
			Lease(gomock.Any(), gomock.Any(), 50, 30*time.Second).
			DoAndReturn(func(_ context.Context, owner string, _ int, _ time.Duration) ([]model.Entry, error) {
				mu.Lock()
				owners[owner] = struct{}{}
				mu.Unlock()
				return nil, nil
			}).
			AnyTimes()

		r := relay.New(mockRepo, mockKafka, cfg, mocks.NewOtel())

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			r.Run(ctx)
			close(done)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()
		<-done

		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, owners, 2)
	})

	t.Run("events carry the deterministic event id", func(t *testing.T) {
		r, mockRepo, mockKafka := newRelay(t)

		entry := pendingEntry(t, "booking-1", "provider-1", model.EventBookingStarted, 3, base)

		mockRepo.EXPECT().Lease(gomock.Any(), gomock.Any(), 50, 30*time.Second).Return([]model.Entry{entry}, nil)
		mockKafka.EXPECT().
			SendMessages(gomock.Any(), "booking-events", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
				raw, _ := json.Marshal(messages[0].Value)

				var envelope model.Envelope
				require.NoError(t, json.Unmarshal(raw, &envelope))

				assert.Equal(t, "booking-1:BOOKING_STARTED:3", envelope.EventID)
				assert.Equal(t, model.EventBookingStarted, envelope.EventType)
				assert.Equal(t, "booking-1", envelope.AggregateID)
				return nil
			})
		mockRepo.EXPECT().MarkDelivered(gomock.Any(), entry.ID).Return(nil)

		_, err := r.Drain(context.Background())

		assert.NoError(t, err)
	})
}
