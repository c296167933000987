package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the request-path counters of the site.
type Recorder struct {
	authRequests      *prometheus.CounterVec
	authDuration      *prometheus.HistogramVec
	languageRedirects *prometheus.CounterVec
	sessionCorrupt    prometheus.Counter
}

// NewRecorder creates the counters and registers them on registerer.
func NewRecorder(registerer prometheus.Registerer) *Recorder {
	recorder := &Recorder{
		authRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langsite_auth_requests_total",
			Help: "Calls to the authentication service by operation and outcome",
		}, []string{"operation", "outcome"}),
		authDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "langsite_auth_request_duration_seconds",
			Help:    "Latency of calls to the authentication service",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		languageRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langsite_language_redirects_total",
			Help: "Redirects issued by the language router grouped by reason",
		}, []string{"reason"}),
		sessionCorrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langsite_session_corrupt_total",
			Help: "Persisted sessions discarded because they could not be decoded",
		}),
	}
	registerer.MustRegister(recorder.authRequests, recorder.authDuration, recorder.languageRedirects, recorder.sessionCorrupt)
	return recorder
}

// ObserveAuth records one call to the authentication service.
func (r *Recorder) ObserveAuth(operation, outcome string, duration time.Duration) {
	r.authRequests.WithLabelValues(operation, outcome).Inc()
	r.authDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// LanguageRedirect counts a redirect away from an unusable language.
func (r *Recorder) LanguageRedirect(reason string) {
	r.languageRedirects.WithLabelValues(reason).Inc()
}

// SessionCorrupt counts a discarded session entry.
func (r *Recorder) SessionCorrupt() {
	r.sessionCorrupt.Inc()
}
