package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/outbox/registry"
)

const (
	publishTimeout = 15 * time.Second
	maxIdleBackoff = 10 * time.Second
	maxJitter      = 250 * time.Millisecond
)

type store interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type rowStore interface {
	Claim(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID, at time.Time) error
	RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error
	Park(tx *gorm.DB, id uuid.UUID, cause error, ceiling int) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.Resolved, error)
}

// sink publishes one message and blocks until the broker acknowledges it.
type sink interface {
	Ping(context.Context) error
	Send(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

type outcome string

const (
	outcomePublished outcome = "published"
	outcomeRetry     outcome = "retry"
	outcomeParked    outcome = "parked"
)

type delivery struct {
	outcome outcome
	topic   string
	cause   error
}

type RelayParams struct {
	Outbox   config.OutboxConfig
	Logger   *logger.Logger
	DB       store
	Rows     rowStore
	Registry resolver
	Sink     sink
	Metrics  *metrics.Domain
}

// Relay moves committed outbox rows to Pub/Sub. A row is published, retried
// on a later poll, or parked once it can never succeed.
type Relay struct {
	logg        *logger.Logger
	db          store
	rows        rowStore
	registry    resolver
	sink        sink
	metrics     *metrics.Domain
	batchSize   int
	maxAttempts int
	poll        time.Duration
	now         func() time.Time
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Rows == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	case p.Sink == nil:
		return nil, errors.New("pubsub sink is required")
	}
	return &Relay{
		logg:        p.Logger,
		db:          p.DB,
		rows:        p.Rows,
		registry:    p.Registry,
		sink:        p.Sink,
		metrics:     p.Metrics,
		batchSize:   orDefault(p.Outbox.BatchSize, 50),
		maxAttempts: orDefault(p.Outbox.MaxAttempts, 10),
		poll:        time.Duration(orDefault(p.Outbox.PollIntervalMS, 500)) * time.Millisecond,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// Run polls until ctx is cancelled. A non-empty batch is followed immediately by
// another; an empty one waits for the poll interval; a failed one backs off.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := r.sink.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping: %w", err)
	}

	wait := r.poll
	for {
		n, err := r.drain(ctx)
		switch {
		case ctx.Err() != nil:
			r.logg.Info(ctx, "outbox relay stopping")
			return ctx.Err()
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			wait = min(wait*2, maxIdleBackoff)
		case n > 0:
			wait = r.poll
			continue
		default:
			wait = r.poll
		}

		timer := time.NewTimer(wait + rand.N(maxJitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logg.Info(ctx, "outbox relay stopping")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// drain claims one batch and settles every row in it inside the claiming tx.
func (r *Relay) drain(ctx context.Context) (int, error) {
	var n int
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		batch, err := r.rows.Claim(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		n = len(batch)
		for _, row := range batch {
			if err := r.settle(ctx, tx, row, r.deliver(ctx, row)); err != nil {
				return err
			}
		}
		return nil
	})
	return n, err
}

func (r *Relay) deliver(ctx context.Context, row models.OutboxEvent) delivery {
	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return delivery{outcome: outcomeParked, cause: err}
	}
	topic := resolved.Route.Topic

	sendCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_, err = r.sink.Send(sendCtx, topic, row.Payload, map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID.String(),
		"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
	})
	switch {
	case err == nil:
		return delivery{outcome: outcomePublished, topic: topic}
	case registry.IsPermanent(err):
		return delivery{outcome: outcomeParked, topic: topic, cause: err}
	case row.AttemptCount+1 >= r.maxAttempts:
		return delivery{outcome: outcomeParked, topic: topic, cause: fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err)}
	default:
		return delivery{outcome: outcomeRetry, topic: topic, cause: err}
	}
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, d delivery) error {
	fields := map[string]any{
		"outbox_id":      row.ID.String(),
		"event_type":     row.EventType,
		"aggregate_type": row.AggregateType,
		"aggregate_id":   row.AggregateID.String(),
		"attempt_count":  row.AttemptCount,
		"outcome":        string(d.outcome),
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.cause != nil {
		fields["error"] = d.cause.Error()
	}
	logCtx := r.logg.WithFields(ctx, fields)

	var err error
	switch d.outcome {
	case outcomePublished:
		err = r.rows.MarkPublished(tx, row.ID, r.now())
		r.logg.Info(logCtx, "outbox event published")
	case outcomeRetry:
		err = r.rows.RecordFailure(tx, row.ID, d.cause)
		r.logg.Warn(logCtx, "outbox publish failed, will retry")
	case outcomeParked:
		err = r.rows.Park(tx, row.ID, d.cause, r.maxAttempts)
		r.logg.Warn(logCtx, "outbox event parked")
	}
	if err != nil {
		return fmt.Errorf("settle %s as %s: %w", row.ID, d.outcome, err)
	}
	r.metrics.ObserveOutboxPublish(string(row.EventType), string(d.outcome))
	return nil
}
