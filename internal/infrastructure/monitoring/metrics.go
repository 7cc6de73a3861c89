package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CustomersRegisteredTotal prometheus.Counter
	EligibilityChecksTotal   *prometheus.CounterVec
	LoansCreatedTotal        prometheus.Counter
	CreditScore              prometheus.Histogram
	IngestionRunsTotal       *prometheus.CounterVec
	IngestionRowsTotal       *prometheus.CounterVec
	DebtRecalculationsTotal  *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		CustomersRegisteredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_customers_registered_total",
				Help: "Total number of customers successfully registered.",
			},
		),
		EligibilityChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_eligibility_checks_total",
				Help: "Total number of eligibility decisions by outcome.",
			},
			[]string{"outcome"},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_loans_created_total",
				Help: "Total number of loans created through the API.",
			},
		),
		CreditScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_engine_credit_score",
				Help:    "Distribution of computed credit scores.",
				Buckets: []float64{0, 10, 30, 50, 75, 100},
			},
		),
		IngestionRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_ingestion_runs_total",
				Help: "Total number of ingestion runs by status.",
			},
			[]string{"status"},
		),
		IngestionRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_ingestion_rows_total",
				Help: "Total number of ingested rows by entity and result.",
			},
			[]string{"entity", "result"},
		),
		DebtRecalculationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_debt_recalculations_total",
				Help: "Total number of debt recalculation runs by status.",
			},
			[]string{"status"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCustomerRegistered() {
	Business.CustomersRegisteredTotal.Inc()
}

func RecordEligibilityCheck(outcome string, score int) {
	Business.EligibilityChecksTotal.WithLabelValues(outcome).Inc()
	Business.CreditScore.Observe(float64(score))
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordIngestionRun(status string) {
	Business.IngestionRunsTotal.WithLabelValues(status).Inc()
}

func RecordIngestionRows(entity, result string, count int) {
	Business.IngestionRowsTotal.WithLabelValues(entity, result).Add(float64(count))
}

func RecordDebtRecalculation(status string) {
	Business.DebtRecalculationsTotal.WithLabelValues(status).Inc()
}
