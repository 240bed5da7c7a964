package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warp-tui/internal/logging"
	"warp-tui/internal/vpn"
)

const namespace = "warp_tui"

// Registry holds the poller and dispatcher metrics. A nil *Registry is valid
// and records nothing.
type Registry struct {
	reg *prometheus.Registry

	PollsTotal   *prometheus.CounterVec
	PollDuration prometheus.Histogram
	SkippedTicks prometheus.Counter
	ActionsTotal *prometheus.CounterVec
	State        *prometheus.GaugeVec
	LogDropped   prometheus.CounterFunc
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{reg: reg}

	r.PollsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls_total",
		Help:      "Status polls by result",
	}, []string{"result"})

	r.PollDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Time spent running the status command",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	r.SkippedTicks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_ticks_total",
		Help:      "Ticks skipped because a command was still in flight",
	})

	r.ActionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Connect, disconnect and mode changes by result",
	}, []string{"action", "result"})

	r.State = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connection_state",
		Help:      "1 for the current connection status, 0 otherwise",
	}, []string{"status"})

	r.LogDropped = factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_dropped_total",
		Help:      "Log entries dropped because the activity log channel was full",
	}, func() float64 {
		return float64(logging.Dropped())
	})

	for _, s := range vpn.AllStatuses {
		r.State.WithLabelValues(s.String()).Set(0)
	}
	r.State.WithLabelValues(vpn.StatusUnknown.String()).Set(1)

	return r
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (r *Registry) ObservePoll(took time.Duration, err error) {
	if r == nil {
		return
	}
	r.PollsTotal.WithLabelValues(result(err)).Inc()
	r.PollDuration.Observe(took.Seconds())
}

func (r *Registry) TickSkipped() {
	if r == nil {
		return
	}
	r.SkippedTicks.Inc()
}

func (r *Registry) ObserveAction(action string, err error) {
	if r == nil {
		return
	}
	r.ActionsTotal.WithLabelValues(action, result(err)).Inc()
}

func (r *Registry) SetState(status vpn.Status) {
	if r == nil {
		return
	}
	for _, s := range vpn.AllStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		r.State.WithLabelValues(s.String()).Set(v)
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("metrics", "Serving metrics on http://%s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
