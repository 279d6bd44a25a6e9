package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes. One is recorded per login attempt.
const (
	OutcomeOK              = "ok"
	OutcomeDeniedAssertion = "denied_assertion"
	OutcomeDeniedAttribute = "denied_attribute"
	OutcomeDeniedAccount   = "denied_account"
	OutcomeDeniedInactive  = "denied_inactive"
	OutcomeDeniedRedirect  = "denied_redirect"
	OutcomeDeniedLinkage   = "denied_linkage"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	LoginsTotal      *prometheus.CounterVec
	AccountsCreated  *prometheus.CounterVec
	SigninsInitiated *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "samlgate_logins_total",
				Help: "Total login attempts by tenant and outcome",
			},
			[]string{"tenant", "outcome"},
		),
		AccountsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "samlgate_accounts_created_total",
				Help: "Accounts auto-provisioned on first login, by tenant",
			},
			[]string{"tenant"},
		),
		SigninsInitiated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "samlgate_signins_initiated_total",
				Help: "SP-initiated login redirects issued, by tenant",
			},
			[]string{"tenant"},
		),
		registry: registry,
	}

	registry.MustRegister(m.LoginsTotal, m.AccountsCreated, m.SigninsInitiated)
	return m
}

// RecordLogin increments the outcome counter for one login attempt.
func (m *Metrics) RecordLogin(tenant, outcome string) {
	m.LoginsTotal.WithLabelValues(tenant, outcome).Inc()
}

// Handler returns the metrics exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
