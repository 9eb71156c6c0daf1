// Package metrics defines and registers all custom Prometheus metrics for
// the trial registry API. It is the single source of truth for metric
// names, labels, and help strings. Registration happens via promauto at
// package load; request-level metrics come from the echoprometheus
// middleware on the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "registry"

// LoginsTotal counts login attempts.
// Labels:
//   - portal: "user" or "admin"
//   - result: "success", "invalid_credentials" or "forbidden"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by portal and result.",
	},
	[]string{"portal", "result"},
)

// RegistrationsTotal counts successful self-service registrations.
// Label:
//   - role: "researcher" or "coordinator"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of successful registrations, by role.",
	},
	[]string{"role"},
)

// TrialMutationsTotal counts successful trial writes.
// Label:
//   - action: "create", "update" or "delete"
var TrialMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trial_mutations_total",
		Help:      "Total number of successful trial mutations, by action.",
	},
	[]string{"action"},
)

// ValidationRejectionsTotal counts requests rejected by the validation
// pipeline (every rejection carries the full list of violated rules).
var ValidationRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_rejections_total",
		Help:      "Total number of requests rejected with validation errors.",
	},
)
