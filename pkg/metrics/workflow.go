package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics counts application and locker state changes plus the
// requests that lost a race or hit an invalid state.
type WorkflowMetrics struct {
	applications *prometheus.CounterVec
	lockers      *prometheus.CounterVec
	rejected     *prometheus.CounterVec
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	m := &WorkflowMetrics{
		applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_transitions_total",
			Help:      "Application status transitions by target status.",
		}, []string{"status"}),
		lockers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locker_events_total",
			Help:      "Locker ledger events by action.",
		}, []string{"action"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_rejections_total",
			Help:      "Workflow operations refused by error code.",
		}, []string{"operation", "code"}),
	}
	reg.MustRegister(m.applications, m.lockers, m.rejected)
	return m
}

func (m *WorkflowMetrics) ApplicationTransition(status string) {
	if m == nil || m.applications == nil {
		return
	}
	m.applications.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *WorkflowMetrics) LockerEvent(action string) {
	if m == nil || m.lockers == nil {
		return
	}
	m.lockers.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *WorkflowMetrics) Rejected(operation, code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}
