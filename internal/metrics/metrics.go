package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduapi", Name: "requests_total", Help: "Processed API requests",
	}, []string{"op"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eduapi", Name: "handler_errors_total", Help: "Handler errors",
	})
	AuthFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eduapi", Name: "auth_failures_total", Help: "Rejected credentials",
	})
	VariantsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eduapi", Name: "variants_created_total", Help: "Homework variants created by fan-out",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eduapi", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Requests, HandlerErrors, AuthFailures, VariantsCreated, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
