// Package sampler implements an affine-invariant ensemble MCMC (the
// Goodman-Weare stretch move): a population of walkers advanced in two
// half-ensembles, each proposal drawn along the line through the walker and a
// random member of the opposite half. Posterior evaluations fan out across a
// small worker pool; everything else is serial so a fixed seed reproduces a
// run exactly.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gwburst/eccfit/internal/metrics"
	"github.com/gwburst/eccfit/internal/utils"
)

// LogProbFunc evaluates the log-posterior of one flat parameter vector. It
// must be pure and safe for concurrent calls.
type LogProbFunc func(x []float64) float64

// Config sizes the ensemble.
type Config struct {
	Walkers      int
	Dim          int
	Workers      int     // concurrent posterior evaluations; default 2
	StretchScale float64 // stretch-move scale parameter a; default 2
	Seed         uint64  // 0 means time-derived
}

// Sampler owns the walker ensemble after initialization. Not safe for
// concurrent use by multiple callers; parallelism lives inside each step.
type Sampler struct {
	cfg     Config
	logProb LogProbFunc
	logger  *slog.Logger
	rnd     *rand.Rand

	pos [][]float64 // current walker positions
	lnp []float64   // current walker log-posteriors

	chain   [][][]float64 // recorded steps: step x walker x dim
	lnpHist [][]float64   // recorded log-posteriors: step x walker

	accept   *utils.RateTracker
	accepted int
	proposed int
}

// burninTol is the relative change in windowed mean log-posterior below
// which burn-in is considered converged.
const burninTol = 1e-3

// New constructs a Sampler. logProb is required; the ensemble must hold at
// least two walkers per half and more walkers than dimensions for the
// stretch move to span the space.
func New(cfg Config, logProb LogProbFunc, logger *slog.Logger) (*Sampler, error) {
	if logProb == nil {
		return nil, fmt.Errorf("log-probability function is required")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("dimensionality must be positive, got %d", cfg.Dim)
	}
	if cfg.Walkers < 2*cfg.Dim {
		return nil, fmt.Errorf("need at least %d walkers for %d dimensions, got %d", 2*cfg.Dim, cfg.Dim, cfg.Walkers)
	}
	if cfg.Walkers%2 != 0 {
		return nil, fmt.Errorf("walker count must be even, got %d", cfg.Walkers)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.StretchScale <= 1 {
		cfg.StretchScale = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		logger.Debug("sampler seed derived from clock", slog.Uint64("seed", seed))
	}
	return &Sampler{
		cfg:     cfg,
		logProb: logProb,
		logger:  logger,
		rnd:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		accept:  utils.NewRateTracker(cfg.Walkers * 50),
	}, nil
}

// Burnin seeds the ensemble from p0 and advances it until the windowed mean
// log-posterior stabilizes or maxSteps is reached. Every testSteps steps the
// mean over the last window is compared with the previous window. Burn-in
// steps are not recorded in the chain.
func (s *Sampler) Burnin(ctx context.Context, p0 [][]float64, testSteps, maxSteps int) error {
	if err := s.setPositions(p0); err != nil {
		return err
	}
	if testSteps <= 0 {
		testSteps = 30
	}
	if maxSteps < testSteps {
		maxSteps = testSteps
	}

	prevMean := math.Inf(-1)
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.step()
		if (step+1)%testSteps != 0 {
			continue
		}
		mean := meanFinite(s.lnp)
		s.logger.Debug("burn-in checkpoint",
			slog.Int("step", step+1),
			slog.Float64("mean_logpost", mean),
			slog.Float64("acceptance", s.accept.Rate()))
		if !math.IsInf(prevMean, 0) && relChange(prevMean, mean) < burninTol {
			s.logger.Info("burn-in converged", slog.Int("steps", step+1))
			return nil
		}
		prevMean = mean
	}
	s.logger.Info("burn-in reached step cap", slog.Int("steps", maxSteps))
	return nil
}

// Run advances the ensemble for the given number of iterations, recording
// every step. Acceptance is logged every updateInterval steps.
func (s *Sampler) Run(ctx context.Context, iterations, updateInterval int) error {
	if s.pos == nil {
		return fmt.Errorf("run called before burn-in seeded the ensemble")
	}
	if updateInterval <= 0 {
		updateInterval = 20
	}
	for step := 0; step < iterations; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.step()
		s.record()
		if (step+1)%updateInterval == 0 {
			s.logger.Info("sampling",
				slog.Int("step", step+1),
				slog.Int("total", iterations),
				slog.Float64("acceptance", s.accept.Rate()))
		}
	}
	return nil
}

// Chain returns the recorded positions, step x walker x dim.
func (s *Sampler) Chain() [][][]float64 { return s.chain }

// LogProbHistory returns the recorded log-posteriors, step x walker.
func (s *Sampler) LogProbHistory() [][]float64 { return s.lnpHist }

// AcceptanceRate returns the overall fraction of accepted proposals.
func (s *Sampler) AcceptanceRate() float64 {
	if s.proposed == 0 {
		return 0
	}
	return float64(s.accepted) / float64(s.proposed)
}

// FlatSamples flattens the recorded chain into one vector per (step, walker)
// pair, keeping every thin-th step. thin <= 1 keeps everything.
func (s *Sampler) FlatSamples(thin int) [][]float64 {
	if thin <= 1 {
		thin = 1
	}
	var flat [][]float64
	for i := 0; i < len(s.chain); i += thin {
		for _, x := range s.chain[i] {
			sample := make([]float64, len(x))
			copy(sample, x)
			flat = append(flat, sample)
		}
	}
	return flat
}

func (s *Sampler) setPositions(p0 [][]float64) error {
	if len(p0) != s.cfg.Walkers {
		return fmt.Errorf("got %d starting positions for %d walkers", len(p0), s.cfg.Walkers)
	}
	pos := make([][]float64, len(p0))
	for i, x := range p0 {
		if len(x) != s.cfg.Dim {
			return fmt.Errorf("walker %d has %d dimensions, want %d", i, len(x), s.cfg.Dim)
		}
		pos[i] = make([]float64, s.cfg.Dim)
		copy(pos[i], x)
	}
	s.pos = pos
	s.lnp = s.evalAll(pos)
	for i, lp := range s.lnp {
		if math.IsInf(lp, -1) {
			return fmt.Errorf("walker %d starts at -inf log-posterior", i)
		}
	}
	return nil
}

// step advances every walker once, half-ensemble by half-ensemble.
func (s *Sampler) step() {
	start := time.Now()
	half := s.cfg.Walkers / 2
	stepAccepted := 0

	for _, bounds := range [][2]int{{0, half}, {half, s.cfg.Walkers}} {
		lo, hi := bounds[0], bounds[1]
		otherLo, otherHi := half-lo, s.cfg.Walkers-lo // complementary half

		n := hi - lo
		proposals := make([][]float64, n)
		zs := make([]float64, n)
		for i := 0; i < n; i++ {
			walker := s.pos[lo+i]
			partner := s.pos[otherLo+s.rnd.IntN(otherHi-otherLo)]
			z := s.drawStretch()
			zs[i] = z
			y := make([]float64, s.cfg.Dim)
			for d := range y {
				y[d] = partner[d] + z*(walker[d]-partner[d])
			}
			proposals[i] = y
		}

		lnpNew := s.evalAll(proposals)
		for i := 0; i < n; i++ {
			idx := lo + i
			logRatio := float64(s.cfg.Dim-1)*math.Log(zs[i]) + lnpNew[i] - s.lnp[idx]
			s.proposed++
			if math.Log(s.rnd.Float64()) < logRatio {
				s.pos[idx] = proposals[i]
				s.lnp[idx] = lnpNew[i]
				s.accepted++
				stepAccepted++
				s.accept.Observe(true)
			} else {
				s.accept.Observe(false)
			}
		}
	}
	metrics.SamplerStep(time.Since(start), stepAccepted, s.cfg.Walkers)
}

// drawStretch samples z from g(z) proportional to 1/sqrt(z) on [1/a, a].
func (s *Sampler) drawStretch() float64 {
	a := s.cfg.StretchScale
	u := s.rnd.Float64()
	r := (a-1)*u + 1
	return r * r / a
}

// evalAll computes log-posteriors for a batch of positions across the worker
// pool.
func (s *Sampler) evalAll(xs [][]float64) []float64 {
	out := make([]float64, len(xs))
	workers := s.cfg.Workers
	if workers > len(xs) {
		workers = len(xs)
	}
	if workers <= 1 {
		for i, x := range xs {
			out[i] = s.logProb(x)
		}
		return out
	}

	var wg sync.WaitGroup
	chunk := (len(xs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(xs) {
			break
		}
		hi := lo + chunk
		if hi > len(xs) {
			hi = len(xs)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = s.logProb(xs[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}

func (s *Sampler) record() {
	step := make([][]float64, len(s.pos))
	for i, x := range s.pos {
		step[i] = make([]float64, len(x))
		copy(step[i], x)
	}
	s.chain = append(s.chain, step)
	lnp := make([]float64, len(s.lnp))
	copy(lnp, s.lnp)
	s.lnpHist = append(s.lnpHist, lnp)
}

func meanFinite(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.Inf(-1)
	}
	return sum / float64(n)
}

func relChange(prev, cur float64) float64 {
	denom := math.Abs(prev)
	if denom == 0 {
		denom = 1
	}
	return math.Abs(cur-prev) / denom
}
