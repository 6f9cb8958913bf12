// Package metrics exposes the Driver's Prometheus counters/gauges, in the
// style of estuary-flow's go/network/metrics.go: package-level vars built
// with promauto so every process that imports this package registers once
// against the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CommandsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "uwbuci_commands_submitted_total",
	Help: "counter of commands submitted to the driver, by kind",
}, []string{"kind"})

var CommandsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "uwbuci_commands_completed_total",
	Help: "counter of commands resolved, by kind and outcome",
}, []string{"kind", "outcome"})

var RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "uwbuci_retries_total",
	Help: "counter of command retransmissions, by kind and cause",
}, []string{"kind", "cause"})

var ResponseTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "uwbuci_response_timeouts_total",
	Help: "counter of per-attempt response timeouts, by kind",
}, []string{"kind"})

var DeviceReadyTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "uwbuci_device_ready_timeouts_total",
	Help: "counter of device-ready timeouts while waiting for the chip to report Ready after open",
})

var HalErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "uwbuci_hal_errors_total",
	Help: "counter of HAL Error transport events observed by the driver",
})

var StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "uwbuci_hal_state_transitions_total",
	Help: "counter of HalState transitions, by from/to state",
}, []string{"from", "to"})

var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "uwbuci_command_queue_depth",
	Help: "number of commands currently queued ahead of the in-flight one",
})
