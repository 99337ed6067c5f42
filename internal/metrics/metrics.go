package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistrationsTotal counts intake outcomes by result (admitted | waitlist)
var RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "saggita_registrations_total",
	Help: "Registrations created, by capacity outcome",
}, []string{"result"})

// SessionsCreatedTotal counts training sessions actually created (idempotent
// re-creates of an existing session are not counted)
var SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "saggita_sessions_created_total",
	Help: "Training sessions created",
})

// AttendanceMarksTotal counts processed bulk attendance entries
var AttendanceMarksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "saggita_attendance_marks_total",
	Help: "Attendance entries processed by bulk submissions",
})

// HTTPRequestDuration is observed by the HTTP metrics middleware
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "saggita_http_request_duration_seconds",
	Help:    "HTTP request latency by method, path and status",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path", "status"})
