package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "anniversary", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "anniversary", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ContentFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "anniversary", Name: "content_fetch_failures_total", Help: "Content document fetches that fell back to defaults because of a store error."},
	)
	ContentSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "anniversary", Name: "content_saves_total", Help: "Admin saves by result (ok, upload_error, write_error)."},
		[]string{"result"},
	)
	AssetUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "anniversary", Name: "asset_uploads_total", Help: "Image uploads by backend and result."},
		[]string{"backend", "result"},
	)
	SaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "anniversary", Name: "save_duration_seconds", Help: "Wall time of a full admin save (upload phase plus merge write).", Buckets: prometheus.DefBuckets},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ContentFetchFailures)
	reg.MustRegister(ContentSaves)
	reg.MustRegister(AssetUploads)
	reg.MustRegister(SaveDuration)
}
