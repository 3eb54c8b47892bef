package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageDuration *prometheus.HistogramVec
	sessionsTotal *prometheus.CounterVec
	tickersTotal  *prometheus.CounterVec
	signalsTotal  prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barscan_stage_duration_seconds",
				Help:    "Wall time per pipeline stage",
				Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 60, 300},
			},
			[]string{"stage"},
		),
		sessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barscan_sessions_total",
				Help: "Session fetches by result",
			},
			[]string{"result"},
		),
		tickersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barscan_tickers_total",
				Help: "Ticker evaluations by result",
			},
			[]string{"result"},
		),
		signalsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "barscan_signals_total",
				Help: "Signals emitted",
			},
		),
	}
}

func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (r *Recorder) SessionFetched() {
	r.sessionsTotal.WithLabelValues("fetched").Inc()
}

func (r *Recorder) SessionFailed() {
	r.sessionsTotal.WithLabelValues("failed").Inc()
}

func (r *Recorder) TickerEvaluated() {
	r.tickersTotal.WithLabelValues("evaluated").Inc()
}

func (r *Recorder) TickerSkipped(reason string) {
	r.tickersTotal.WithLabelValues("skipped_" + reason).Inc()
}

func (r *Recorder) SignalsEmitted(n int) {
	r.signalsTotal.Add(float64(n))
}

// Nop is a no-op recorder for tests, where promauto's default registry
// would reject duplicate registration.
type Nop struct{}

func (Nop) ObserveStage(string, time.Duration) {}
func (Nop) SessionFetched()                    {}
func (Nop) SessionFailed()                     {}
func (Nop) TickerEvaluated()                   {}
func (Nop) TickerSkipped(string)               {}
func (Nop) SignalsEmitted(int)                 {}
