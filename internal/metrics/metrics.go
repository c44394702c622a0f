package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VisitsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitors_visits_submitted_total",
		Help: "Visit requests stored.",
	})
	VisitsApproved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitors_visits_approved_total",
		Help: "Approval calls by outcome.",
	}, []string{"outcome"})
	PushNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitors_push_notifications_total",
		Help: "Push dispatch attempts by kind and outcome.",
	}, []string{"kind", "outcome"})
	ReportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitors_report_rows_total",
		Help: "Scan rows by source and outcome (included, out_of_range, malformed).",
	}, []string{"source", "outcome"})
	ProfileLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitors_profile_lookups_total",
		Help: "Profile enrichment lookups by outcome (found, missing, error).",
	}, []string{"outcome"})
	AccountsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitors_accounts_created_total",
		Help: "Accounts provisioned by role.",
	}, []string{"role"})
	AccountCleanup = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitors_account_cleanup_total",
		Help: "Compensation and sweep actions by outcome.",
	}, []string{"outcome"})
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visitors_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
