package redikv

import (
	"context"
	"net/http"

	"github.com/kvwire/redikv/app/redikv/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the Ambient Stack's optional Prometheus surface: a
// connected-session gauge, a commands-processed counter, and gauge
// funcs reading keyspace size and expired-key count straight off the
// DB. The server builds a Metrics (and serves its HTTP endpoint) only
// when --metrics-addr is set; otherwise sessions run with nil metrics.
type Metrics struct {
	registry          *prometheus.Registry
	connectedSessions prometheus.Gauge
	commandsProcessed prometheus.Counter
}

// NewMetrics registers every gauge/counter against a fresh registry
// scoped to db, so multiple DBs (as in tests) never collide on the
// default global registry.
func NewMetrics(db *store.DB) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connectedSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "redikv",
			Name:      "connected_sessions",
			Help:      "Number of currently connected client sessions.",
		}),
		commandsProcessed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "redikv",
			Name:      "commands_processed_total",
			Help:      "Total number of commands applied across all sessions.",
		}),
	}
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "redikv",
		Name:      "keyspace_size",
		Help:      "Current number of live keys in the keyspace.",
	}, func() float64 { return float64(db.Size()) })
	promauto.With(reg).NewCounterFunc(prometheus.CounterOpts{
		Namespace: "redikv",
		Name:      "expired_keys_total",
		Help:      "Total number of keys collected by the expiry reaper.",
	}, func() float64 { return float64(db.ExpiredCount()) })
	return m
}

func (m *Metrics) SessionOpened()   { m.connectedSessions.Inc() }
func (m *Metrics) SessionClosed()   { m.connectedSessions.Dec() }
func (m *Metrics) CommandApplied()  { m.commandsProcessed.Inc() }

// Serve runs the /metrics HTTP endpoint on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		return err
	}
}
