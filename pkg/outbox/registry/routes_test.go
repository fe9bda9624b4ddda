package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := New(config.PubSubConfig{
		OrdersTopic:  "orders-topic",
		ReturnsTopic: "returns-topic",
		RefundsTopic: "refunds-topic",
	})
	require.NoError(t, err)
	return reg
}

func envelope(t *testing.T, data string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(outbox.Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(data),
	})
	require.NoError(t, err)
	return raw
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	reg := newTestRegistry(t)
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderStatusChangedEvent{
		OrderID: orderID,
		From:    enums.OrderStatusConfirmed,
		To:      enums.OrderStatusPacked,
	})
	require.NoError(t, err)

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       envelope(t, string(data)),
	})
	require.NoError(t, err)
	assert.Equal(t, "orders-topic", resolved.Route.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)

	payload, ok := resolved.Payload.(*payloads.OrderStatusChangedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, enums.OrderStatusPacked, payload.To)
}

func TestResolveRoutesEveryEventType(t *testing.T) {
	reg := newTestRegistry(t)
	cases := map[enums.OutboxEventType]struct {
		aggregate enums.OutboxAggregateType
		topic     string
	}{
		enums.EventOrderStatusChanged:      {enums.AggregateOrder, "orders-topic"},
		enums.EventReplacementOrderCreated: {enums.AggregateOrder, "orders-topic"},
		enums.EventPackingProofUploaded:    {enums.AggregatePackingProof, "orders-topic"},
		enums.EventReturnRequested:         {enums.AggregateReturnRequest, "returns-topic"},
		enums.EventReturnStatusChanged:     {enums.AggregateReturnRequest, "returns-topic"},
		enums.EventRefundOverrideApplied:   {enums.AggregateRefund, "refunds-topic"},
	}
	require.Len(t, reg.routes, len(cases))
	for eventType, tc := range cases {
		resolved, err := reg.Resolve(models.OutboxEvent{
			EventType:     eventType,
			AggregateType: tc.aggregate,
			AggregateID:   uuid.New(),
			Payload:       envelope(t, `{}`),
		})
		require.NoError(t, err, eventType)
		assert.Equal(t, tc.topic, resolved.Route.Topic, eventType)
	}
}

func TestResolveRejectsBrokenRowsPermanently(t *testing.T) {
	reg := newTestRegistry(t)
	cases := map[string]models.OutboxEvent{
		"unknown type": {
			EventType: "inventory_reserved", AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: envelope(t, `{}`),
		},
		"aggregate mismatch": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateRefund,
			AggregateID: uuid.New(), Payload: envelope(t, `{}`),
		},
		"nil aggregate id": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder,
			Payload: envelope(t, `{}`),
		},
		"null data": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: envelope(t, `null`),
		},
		"wrong data shape": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: envelope(t, `[1,2]`),
		},
		"garbage payload": {
			EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: json.RawMessage(`"nope"`),
		},
	}
	for name, row := range cases {
		_, err := reg.Resolve(row)
		assert.True(t, IsPermanent(err), "%s: expected permanent error, got %v", name, err)
	}
}

func TestNewReportsEveryMissingTopic(t *testing.T) {
	_, err := New(config.PubSubConfig{OrdersTopic: "orders-topic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RISBOW_PUBSUB_RETURNS_TOPIC")
	assert.Contains(t, err.Error(), "RISBOW_PUBSUB_REFUNDS_TOPIC")
}

func TestPermanentNil(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(nil))
}
