package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worktrack_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worktrack_register_total",
			Help: "Total number of company registrations",
		},
	)

	// Permission gate decisions by action and outcome
	DecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_gate_decisions_total",
			Help: "Total number of permission gate decisions",
		},
		[]string{"action", "outcome"}, // outcome is "allow", "not_found", "forbidden", "bad_request", "conflict", "unauthorized"
	)

	// Custody transitions by target status
	CustodyTransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_custody_transitions_total",
			Help: "Total number of file ticket custody transitions",
		},
		[]string{"transition"}, // transition can be "transfer", "receive", "processing", "approved", etc.
	)

	// Domain operation counters
	UserOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_user_operations_total",
			Help: "Total number of user operations",
		},
		[]string{"operation"},
	)

	ProjectOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_project_operations_total",
			Help: "Total number of project operations",
		},
		[]string{"operation"},
	)

	WorkItemOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_work_item_operations_total",
			Help: "Total number of work item operations",
		},
		[]string{"operation"},
	)

	// Audit rows appended
	ActivityRecordCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worktrack_activity_records_total",
			Help: "Total number of activity log rows appended",
		},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "db_error" etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worktrack_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worktrack_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(DecisionCounter)
	prometheus.MustRegister(CustodyTransitionCounter)
	prometheus.MustRegister(UserOperationCounter)
	prometheus.MustRegister(ProjectOperationCounter)
	prometheus.MustRegister(WorkItemOperationCounter)
	prometheus.MustRegister(ActivityRecordCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordDecision increments the gate decision counter
func RecordDecision(action, outcome string) {
	DecisionCounter.WithLabelValues(action, outcome).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(path, method, statusStr).Inc()
			RequestDuration.WithLabelValues(path, method, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
