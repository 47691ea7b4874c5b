// Package metrics registers the service's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CheckIns counts attendance check-ins by resulting status.
	CheckIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusattend_checkins_total",
		Help: "Student check-ins by resulting attendance status.",
	}, []string{"status"})

	// SessionsOpened counts sessions opened.
	SessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusattend_sessions_opened_total",
		Help: "Sessions opened by teachers.",
	})

	// SessionsClosed counts sessions closed.
	SessionsClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusattend_sessions_closed_total",
		Help: "Sessions closed.",
	})

	// ReportsMailed counts guardian reports delivered by the worker.
	ReportsMailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusattend_guardian_reports_mailed_total",
		Help: "Guardian attendance reports delivered over SMTP.",
	})
)

func init() {
	prometheus.MustRegister(CheckIns, SessionsOpened, SessionsClosed, ReportsMailed)
}
