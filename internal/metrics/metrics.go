package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zmdiary", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zmdiary", Name: "handler_errors_total", Help: "Handler errors",
	})
	GateDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zmdiary", Name: "gate_denials_total", Help: "Access gate denials",
	}, []string{"gate"})
	HomeworkAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zmdiary", Name: "homework_added_total", Help: "Homework entries added",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "zmdiary", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, GateDenials, HomeworkAdded, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
