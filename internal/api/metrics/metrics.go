// Package metrics defines and registers all custom Prometheus metrics for the
// permit case tracking API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "permit"

// ActionsAppendedTotal counts ledger actions successfully appended.
// Label:
//   - kind: the action kind (e.g. "Submit", "Review", "Update")
var ActionsAppendedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_appended_total",
		Help:      "Total number of ledger actions appended, by kind.",
	},
	[]string{"kind"},
)

// TransitionsRejectedTotal counts case transitions that failed validation.
// Label:
//   - reason: short description of the failure (e.g. "invalid_transition", "case_not_found")
var TransitionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_rejected_total",
		Help:      "Total number of case transitions rejected before any write.",
	},
	[]string{"reason"},
)

// AppendDedupTotal counts dedup-key decisions on transition requests.
// Label:
//   - result: "hit" (replay, skipped) or "miss" (applied)
var AppendDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "append_dedup_total",
		Help:      "Total number of append deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ExportQueueDepth tracks the number of actions waiting in each audit export
// worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ExportQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "export_queue_depth",
		Help:      "Current number of actions pending in each export worker channel.",
	},
	[]string{"worker_id"},
)

// TransitionDuration measures how long a single transition takes end to end
// (resolve, ledger append, state update).
// Label:
//   - kind: the action kind applied, or "error" on failure
var TransitionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transition_duration_seconds",
		Help:      "Duration of case transitions from request to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// CasesCreatedTotal counts newly opened cases.
var CasesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cases_created_total",
		Help:      "Total number of cases created.",
	},
)
