package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeFinite labels posterior evaluations that produced a finite value.
	OutcomeFinite = "finite"
	// OutcomeRejected labels evaluations short-circuited by the bounds filter.
	OutcomeRejected = "rejected"
)

var (
	posteriorEvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eccfit",
			Name:      "posterior_evaluations_total",
			Help:      "Total log-posterior evaluations, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	boundsRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eccfit",
			Name:      "bounds_rejections_total",
			Help:      "Bounds-filter rejections, partitioned by the failing rule.",
		},
		[]string{"rule"},
	)

	walkerInitRetries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "eccfit",
			Name:      "walker_init_retries",
			Help:      "Rejection-sampling retries needed per initialized walker.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	samplerStepSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "eccfit",
			Name:      "sampler_step_seconds",
			Help:      "Wall time of one full-ensemble sampler step.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	samplerMovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eccfit",
			Name:      "sampler_moves_total",
			Help:      "Per-walker stretch-move proposals, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches eccfit collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		posteriorEvalsTotal,
		boundsRejectionsTotal,
		walkerInitRetries,
		samplerStepSeconds,
		samplerMovesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// PosteriorEval counts one log-posterior evaluation.
func PosteriorEval(outcome string) {
	if outcome != OutcomeRejected {
		outcome = OutcomeFinite
	}
	posteriorEvalsTotal.WithLabelValues(outcome).Inc()
}

// BoundsRejection counts one bounds-filter rejection for the given rule.
func BoundsRejection(rule string) {
	boundsRejectionsTotal.WithLabelValues(rule).Inc()
}

// InitRetries records how many resamples one walker needed before acceptance.
func InitRetries(count int) {
	if count < 0 {
		count = 0
	}
	walkerInitRetries.Observe(float64(count))
}

// SamplerStep records one full-ensemble step: its duration and how many of
// the proposed moves were accepted.
func SamplerStep(duration time.Duration, accepted, total int) {
	if duration < 0 {
		duration = 0
	}
	samplerStepSeconds.Observe(duration.Seconds())
	samplerMovesTotal.WithLabelValues("accepted").Add(float64(accepted))
	if total > accepted {
		samplerMovesTotal.WithLabelValues("rejected").Add(float64(total - accepted))
	}
}
