package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tempah/config"
	"tempah/infras/kafka"
	"tempah/infras/otel"
	"tempah/internal/domains/outbox/model"
	"tempah/internal/domains/outbox/repository"
	"tempah/shared/constant"
	"tempah/shared/failure"
)

// Relay drains the outbox to the broker. It is the only component that talks
// to Kafka on the write path; lifecycle operations never wait on the broker.
type Relay struct {
	repo  repository.Outbox
	kafka kafka.Client
	cfg   *config.Config
	otel  otel.Otel
	owner string
}

func New(repo repository.Outbox, kafkaClient kafka.Client, cfg *config.Config, otel otel.Otel) *Relay {
	return &Relay{
		repo:  repo,
		kafka: kafkaClient,
		cfg:   cfg,
		otel:  otel,
		owner: uuid.NewString(),
	}
}

// Run spawns the configured number of polling workers and blocks until the
// context is cancelled. Each worker leases with its own owner id, so a
// partition leased by one worker is invisible to the others.
func (r *Relay) Run(ctx context.Context) {
	workers := r.cfg.Outbox.Workers
	if workers < 1 {
		workers = 1
	}

	log.Info().Str("owner", r.owner).Int("workers", workers).Msg("Outbox relay started.")

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			r.poll(ctx, fmt.Sprintf("%s-%d", r.owner, i))
		}()
	}

	wg.Wait()

	log.Info().Str("owner", r.owner).Msg("Outbox relay stopped.")
}

// poll drains until the context is cancelled. Publish failures back off
// exponentially up to the configured ceiling; leases expire on their own if
// this worker dies mid-batch.
func (r *Relay) poll(ctx context.Context, owner string) {
	interval := time.Duration(r.cfg.Outbox.PollIntervalSeconds) * time.Second
	maxBackoff := time.Duration(r.cfg.Outbox.MaxBackoffSeconds) * time.Second
	backoff := interval

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := r.drain(ctx, owner); err != nil {
				log.Error().Err(err).Str("owner", owner).Dur("backoff", backoff).Msg("failed to drain outbox, backing off")

				timer.Reset(backoff)

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}

				continue
			}

			backoff = interval

			timer.Reset(interval)
		}
	}
}

// Drain leases one batch and publishes it partition by partition, in commit
// order within each partition. A failed publish abandons the rest of that
// partition so order is preserved on retry.
func (r *Relay) Drain(ctx context.Context) (published int, err error) {
	return r.drain(ctx, r.owner)
}

func (r *Relay) drain(ctx context.Context, owner string) (published int, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRelayScopeName, constant.OtelRelayScopeName+".Drain")
	defer scope.End()
	defer scope.TraceIfError(err)

	leaseFor := time.Duration(r.cfg.Outbox.LeaseSeconds) * time.Second

	entries, err := r.repo.Lease(ctx, owner, r.cfg.Outbox.BatchSize, leaseFor)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	if len(entries) == 0 {
		return 0, nil
	}

	scope.SetAttribute("outbox.leased", len(entries))

	var firstErr error

	for _, partition := range partitionOrder(entries) {
		count, publishErr := r.publishPartition(ctx, partition)
		published += count

		if publishErr != nil && firstErr == nil {
			firstErr = publishErr
		}
	}

	scope.SetAttribute("outbox.published", published)

	if published > 0 {
		log.Info().Int("published", published).Str("owner", owner).Msg("Outbox entries published.")
	}

	return published, firstErr
}

func (r *Relay) publishPartition(ctx context.Context, entries []model.Entry) (int, error) {
	published := 0

	for i, entry := range entries {
		envelope, err := entry.ToEnvelope()
		if err != nil {
			log.Error().Err(err).Str("eventId", entry.EventID).Msg("failed to decode outbox entry, releasing partition")

			r.releaseFrom(ctx, entries, i)

			return published, err
		}

		err = r.kafka.SendMessages(ctx, r.cfg.Kafka.BookingTopic, kafka.Message{
			Key:   envelope.PartitionKey,
			Value: envelope,
		})
		if err != nil {
			log.Error().Err(err).Str("eventId", entry.EventID).Str("partitionKey", entry.PartitionKey).Msg("failed to publish event, releasing partition")

			r.releaseFrom(ctx, entries, i)

			return published, failure.Publish(err)
		}

		if err := r.repo.MarkDelivered(ctx, entry.ID); err != nil {
			// Already published: the entry will be redelivered after the
			// lease expires, which consumers absorb by deduping on eventId.
			log.Error().Err(err).Str("eventId", entry.EventID).Msg("failed to mark outbox entry delivered")

			return published + 1, err
		}

		published++
	}

	return published, nil
}

func (r *Relay) releaseFrom(ctx context.Context, entries []model.Entry, from int) {
	for _, entry := range entries[from:] {
		if err := r.repo.ReleaseLease(ctx, entry.ID); err != nil {
			log.Error().Err(err).Str("eventId", entry.EventID).Msg("failed to release outbox lease")
		}
	}
}

// partitionOrder groups entries by partition key, keeping both the relative
// order of entries inside a partition and the first-seen order of partitions.
func partitionOrder(entries []model.Entry) [][]model.Entry {
	index := map[string]int{}
	grouped := [][]model.Entry{}

	for _, entry := range entries {
		pos, ok := index[entry.PartitionKey]
		if !ok {
			pos = len(grouped)
			index[entry.PartitionKey] = pos
			grouped = append(grouped, nil)
		}

		grouped[pos] = append(grouped[pos], entry)
	}

	return grouped
}
