package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	chitsSigned        *prometheus.CounterVec
	signingFailures    *prometheus.CounterVec
	votesSubmitted     *prometheus.CounterVec
	submissionFailures *prometheus.CounterVec
	verifications      *prometheus.CounterVec
	troubleReports     *prometheus.CounterVec
}

// NewMetrics registers the voter metrics with reg. A nil registerer keeps the
// collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		chitsSigned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blindpoll_chits_signed_total",
			Help: "chits signed by the authority and verified locally",
		}, []string{"kind"}),
		signingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blindpoll_signing_failures_total",
			Help: "chit signing requests that failed",
		}, []string{"reason"}),
		votesSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blindpoll_votes_submitted_total",
			Help: "votes acknowledged by the authority",
		}, []string{"type"}),
		submissionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blindpoll_submission_failures_total",
			Help: "vote submissions that failed",
		}, []string{"reason"}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blindpoll_verifications_total",
			Help: "vote verifications by outcome",
		}, []string{"outcome"}),
		troubleReports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blindpoll_trouble_reports_total",
			Help: "trouble conditions reported in this session",
		}, []string{"kind"}),
	}
}
