// Package registry maps outbox event types to Pub/Sub topics and payload types.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
)

// Route says where an event type goes and how its data decodes.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	newPayload    func() any
}

// Resolved is a stored row that passed every structural check.
type Resolved struct {
	Route    Route
	Envelope outbox.Envelope
	Payload  any
}

type Registry struct {
	routes map[enums.OutboxEventType]Route
}

// PermanentError marks a row that will never publish no matter how often it is retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

func permanentf(format string, args ...any) error {
	return Permanent(fmt.Errorf(format, args...))
}

func payload[T any]() func() any {
	return func() any { return new(T) }
}

// New builds the registry. Every topic in cfg must be set.
func New(cfg config.PubSubConfig) (*Registry, error) {
	topics := []struct {
		env    string
		name   string
		routes []Route
	}{
		{"RISBOW_PUBSUB_ORDERS_TOPIC", cfg.OrdersTopic, []Route{
			{EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder, newPayload: payload[payloads.OrderStatusChangedEvent]()},
			{EventType: enums.EventReplacementOrderCreated, AggregateType: enums.AggregateOrder, newPayload: payload[payloads.ReplacementOrderCreatedEvent]()},
			{EventType: enums.EventPackingProofUploaded, AggregateType: enums.AggregatePackingProof, newPayload: payload[payloads.PackingProofUploadedEvent]()},
		}},
		{"RISBOW_PUBSUB_RETURNS_TOPIC", cfg.ReturnsTopic, []Route{
			{EventType: enums.EventReturnRequested, AggregateType: enums.AggregateReturnRequest, newPayload: payload[payloads.ReturnRequestedEvent]()},
			{EventType: enums.EventReturnStatusChanged, AggregateType: enums.AggregateReturnRequest, newPayload: payload[payloads.ReturnStatusChangedEvent]()},
		}},
		{"RISBOW_PUBSUB_REFUNDS_TOPIC", cfg.RefundsTopic, []Route{
			{EventType: enums.EventRefundOverrideApplied, AggregateType: enums.AggregateRefund, newPayload: payload[payloads.RefundOverrideAppliedEvent]()},
		}},
	}

	reg := &Registry{routes: make(map[enums.OutboxEventType]Route)}
	var missing []string
	for _, topic := range topics {
		if strings.TrimSpace(topic.name) == "" {
			missing = append(missing, topic.env)
			continue
		}
		for _, route := range topic.routes {
			route.Topic = topic.name
			reg.routes[route.EventType] = route
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pubsub topics not configured: %s", strings.Join(missing, ", "))
	}
	return reg, nil
}

// Resolve checks a row against its route and decodes the payload. Every
// error it returns is permanent.
func (r *Registry) Resolve(row models.OutboxEvent) (*Resolved, error) {
	route, ok := r.routes[row.EventType]
	switch {
	case !ok:
		return nil, permanentf("unsupported event type %s", row.EventType)
	case route.AggregateType != row.AggregateType:
		return nil, permanentf("%s belongs to %s aggregates, row says %s", row.EventType, route.AggregateType, row.AggregateType)
	case row.AggregateID == uuid.Nil:
		return nil, permanentf("%s row has no aggregate id", row.EventType)
	}

	env, err := outbox.Open(row.Payload)
	if err != nil {
		return nil, Permanent(err)
	}
	data := route.newPayload()
	if err := json.Unmarshal(env.Data, data); err != nil {
		return nil, permanentf("decode %s payload: %w", row.EventType, err)
	}
	return &Resolved{Route: route, Envelope: env, Payload: data}, nil
}
