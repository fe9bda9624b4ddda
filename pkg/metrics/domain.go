package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain groups the counters emitted by the order, return and refund flows.
// A nil *Domain is valid and records nothing.
type Domain struct {
	orderTransitions  *prometheus.CounterVec
	orderRejections   *prometheus.CounterVec
	returnTransitions *prometheus.CounterVec
	packingUploads    *prometheus.CounterVec
	refundBlocked     *prometheus.CounterVec
	refundOverrides   prometheus.Counter
	outboxPublish     *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewDomain registers the domain metrics on the provided registerer.
func NewDomain(reg prometheus.Registerer) *Domain {
	if reg == nil {
		return &Domain{}
	}
	d := &Domain{
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Persisted order status transitions.",
		}, []string{"from", "to", "role"}),
		orderRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transition_rejected_total",
			Help: "Order status transitions refused by the state machine.",
		}, []string{"role", "code"}),
		returnTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "return_status_transitions_total",
			Help: "Persisted return request status transitions.",
		}, []string{"from", "to"}),
		packingUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "packing_proof_uploads_total",
			Help: "Packing proof video uploads by outcome.",
		}, []string{"outcome"}),
		refundBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refund_policy_blocked_total",
			Help: "Refund write operations refused by platform policy.",
		}, []string{"operation"}),
		refundOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refund_force_overrides_total",
			Help: "Refunds forced through by an administrator.",
		}),
		outboxPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Outbox rows handled by the publisher.",
		}, []string{"event_type", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		d.orderTransitions,
		d.orderRejections,
		d.returnTransitions,
		d.packingUploads,
		d.refundBlocked,
		d.refundOverrides,
		d.outboxPublish,
		d.httpDuration,
	)
	return d
}

func (d *Domain) ObserveOrderTransition(from, to, role string) {
	if d == nil || d.orderTransitions == nil {
		return
	}
	d.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(role)).Inc()
}

func (d *Domain) ObserveOrderRejection(role, code string) {
	if d == nil || d.orderRejections == nil {
		return
	}
	d.orderRejections.WithLabelValues(normalizeLabel(role), normalizeLabel(code)).Inc()
}

func (d *Domain) ObserveReturnTransition(from, to string) {
	if d == nil || d.returnTransitions == nil {
		return
	}
	d.returnTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (d *Domain) ObservePackingUpload(outcome string) {
	if d == nil || d.packingUploads == nil {
		return
	}
	d.packingUploads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (d *Domain) ObserveRefundBlocked(operation string) {
	if d == nil || d.refundBlocked == nil {
		return
	}
	d.refundBlocked.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (d *Domain) IncRefundOverride() {
	if d == nil || d.refundOverrides == nil {
		return
	}
	d.refundOverrides.Inc()
}

func (d *Domain) ObserveOutboxPublish(eventType, outcome string) {
	if d == nil || d.outboxPublish == nil {
		return
	}
	d.outboxPublish.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveHTTP records request latency keyed by the matched route pattern.
func (d *Domain) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if d == nil || d.httpDuration == nil {
		return
	}
	d.httpDuration.WithLabelValues(method, normalizeLabel(route), statusClass(status)).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
