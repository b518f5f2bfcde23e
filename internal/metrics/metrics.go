package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer and the qualification service report to.
type Recorder interface {
	RecordRequest(route, method string, status int, d time.Duration)
	RecordSubmission(outcome string)
	RecordRedditLookup(result string)
	RecordNotification(channel string, err error)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	submissions   *prometheus.CounterVec
	redditLookups *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_http_requests_total",
			Help: "HTTP responses by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qualify_http_request_duration_seconds",
			Help:    "HTTP handler latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_submissions_total",
			Help: "Qualification submissions by outcome.",
		}, []string{"outcome"}),
		redditLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_reddit_lookups_total",
			Help: "Reddit account lookups by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_notifications_total",
			Help: "Contractor notifications by channel and result.",
		}, []string{"channel", "result"}),
	}

	reg.MustRegister(c.requests, c.latency, c.submissions, c.redditLookups, c.notifications)
	return c
}

func (c *Collector) RecordRequest(route, method string, status int, d time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRedditLookup(result string) {
	c.redditLookups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordNotification(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.notifications.WithLabelValues(channel, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where metrics are optional.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordSubmission(string)                          {}
func (Nop) RecordRedditLookup(string)                        {}
func (Nop) RecordNotification(string, error)                 {}
