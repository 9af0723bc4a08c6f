package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "warden"

// Metrics holds all Warden metric instruments.
type Metrics struct {
	CapabilityCalls  metric.Int64Counter
	PolicyDenials    metric.Int64Counter
	PolicyDegraded   metric.Int64Counter
	KillSwitchBlocks metric.Int64Counter
	AuditDropped     metric.Int64Counter
	CallDuration     metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CapabilityCalls, err = meter.Int64Counter("warden.capability.calls",
		metric.WithDescription("Number of governed capability calls"))
	if err != nil {
		return nil, err
	}

	m.PolicyDenials, err = meter.Int64Counter("warden.policy.denials",
		metric.WithDescription("Number of denied policy checks"))
	if err != nil {
		return nil, err
	}

	m.PolicyDegraded, err = meter.Int64Counter("warden.policy.degraded",
		metric.WithDescription("Number of policy checks served by the degraded fallback"))
	if err != nil {
		return nil, err
	}

	m.KillSwitchBlocks, err = meter.Int64Counter("warden.killswitch.blocks",
		metric.WithDescription("Number of runtime constructions blocked by the kill switch"))
	if err != nil {
		return nil, err
	}

	m.AuditDropped, err = meter.Int64Counter("warden.audit.dropped",
		metric.WithDescription("Number of audit entries shed under backpressure"))
	if err != nil {
		return nil, err
	}

	m.CallDuration, err = meter.Float64Histogram("warden.capability.duration_seconds",
		metric.WithDescription("Capability call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
