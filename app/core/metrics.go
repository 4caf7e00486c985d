package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/knowhive/knowhive/pkg/metrics"
)

type Metrics struct {
	apiResponseTime    *prometheus.HistogramVec
	apiErrorCounter    *prometheus.CounterVec
	validationTime     *prometheus.HistogramVec
	secretStoreError   *prometheus.CounterVec
	credentialCheck    *prometheus.CounterVec
	jobRunTime         *prometheus.HistogramVec
	jobErrorCounter    *prometheus.CounterVec
	rateLimitedCounter *prometheus.CounterVec
}

// NewMetrics registers the collectors on a registry of their own, exported by metrics.DefaultExportHandler.
func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.NewRegistry())

	return &Metrics{
		apiResponseTime:    metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:    metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		validationTime:     metrics.NewHistogramVec("validation_time", []string{"entity", "op"}),
		secretStoreError:   metrics.NewCounterVec("secret_store_error", []string{"op"}),
		credentialCheck:    metrics.NewCounterVec("credential_check", []string{"result"}),
		jobRunTime:         metrics.NewHistogramVec("job_run_time", []string{"job"}),
		jobErrorCounter:    metrics.NewCounterVec("job_error", []string{"job"}),
		rateLimitedCounter: metrics.NewCounterVec("rate_limited", []string{"api"}),
	}
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ValidationTimer(entity, op string) *prometheus.Timer {
	return prometheus.NewTimer(m.validationTime.WithLabelValues(entity, op))
}

func (m *Metrics) SecretStoreErrorInc(op string) {
	m.secretStoreError.WithLabelValues(op).Inc()
}

func (m *Metrics) CredentialCheckInc(accepted bool) {
	m.credentialCheck.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

func (m *Metrics) JobTimer(job string) *prometheus.Timer {
	return prometheus.NewTimer(m.jobRunTime.WithLabelValues(job))
}

func (m *Metrics) JobErrorInc(job string) {
	m.jobErrorCounter.WithLabelValues(job).Inc()
}

func (m *Metrics) RateLimitedInc(api string) {
	m.rateLimitedCounter.WithLabelValues(api).Inc()
}
