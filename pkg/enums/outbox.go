package enums

import "slices"

// OutboxAggregateType names the root entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateReturnRequest OutboxAggregateType = "return_request"
	AggregateRefund        OutboxAggregateType = "refund"
	AggregatePackingProof  OutboxAggregateType = "packing_proof"
)

func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains([]OutboxAggregateType{
		AggregateOrder, AggregateReturnRequest, AggregateRefund, AggregatePackingProof,
	}, a)
}

// OutboxEventType identifies the domain event stored in outbox_events.
type OutboxEventType string

const (
	EventOrderStatusChanged      OutboxEventType = "order_status_changed"
	EventReplacementOrderCreated OutboxEventType = "replacement_order_created"
	EventReturnRequested         OutboxEventType = "return_requested"
	EventReturnStatusChanged     OutboxEventType = "return_status_changed"
	EventPackingProofUploaded    OutboxEventType = "packing_proof_uploaded"
	EventRefundOverrideApplied   OutboxEventType = "refund_override_applied"
)

func (e OutboxEventType) IsValid() bool {
	return slices.Contains([]OutboxEventType{
		EventOrderStatusChanged, EventReplacementOrderCreated, EventReturnRequested,
		EventReturnStatusChanged, EventPackingProofUploaded, EventRefundOverrideApplied,
	}, e)
}
