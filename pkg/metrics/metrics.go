// Package metrics agrupa los colectores Prometheus de la aplicación.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics colectores registrados una sola vez por proceso (o por registro en tests).
type Metrics struct {
	SalesCommitted      prometheus.Counter
	SaleCommitRetries   prometheus.Counter
	SaleCommitDuration  *prometheus.HistogramVec // label outcome: committed, replayed, rejected, conflict, unknown, error
	AuditWriteFailures  *prometheus.CounterVec   // label action
	HTTPRequestsTotal   *prometheus.CounterVec   // labels method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels method, route
}

// New crea y registra los colectores en reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SalesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saori_sales_committed_total",
			Help: "Ventas confirmadas (sin contar repeticiones idempotentes).",
		}),
		SaleCommitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saori_sale_commit_retries_total",
			Help: "Reintentos de la transacción de venta por conflictos de concurrencia.",
		}),
		SaleCommitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saori_sale_commit_duration_seconds",
			Help:    "Duración del registro de una venta, reintentos incluidos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		AuditWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saori_audit_write_failures_total",
			Help: "Entradas de bitácora que no se pudieron escribir.",
		}, []string{"action"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saori_http_requests_total",
			Help: "Peticiones HTTP atendidas.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saori_http_request_duration_seconds",
			Help:    "Latencia de las peticiones HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.SalesCommitted, m.SaleCommitRetries, m.SaleCommitDuration,
		m.AuditWriteFailures, m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// NewForTest registro aislado, para que cada test cuente desde cero.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
