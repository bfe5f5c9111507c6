// Package eccprior scores burst centroid triplets against a Newtonian model
// of burst timing in an eccentric binary. Bursts are emitted at periastron
// passages; given the anchor burst and the binary masses, the model predicts
// where the next centroid should land in time and frequency, and deviations
// are scored as independent Gaussians. Configurations that cannot come from
// a forward-evolving eccentric orbit are rejected outright with -inf.
package eccprior

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gwburst/eccfit/internal/models"
)

const (
	// solarMassSeconds is G*Msun/c^3: one solar mass expressed in seconds.
	solarMassSeconds = 4.92549e-6

	defaultTimeTolerance = 0.10
	defaultFreqTolerance = 0.10

	// marchCap bounds the forward march from the anchor to the window so a
	// far-away anchor cannot spin the predictor forever.
	marchCap = 10000
)

// chirpCoeff is the leading-order radiation-reaction coefficient
// (96/5) pi^(8/3) in df/dt = chirpCoeff * (G Mc / c^3)^(5/3) * f^(11/3).
var chirpCoeff = 96.0 / 5.0 * math.Pow(math.Pi, 8.0/3.0)

// Prior is the eccentricity-based joint prior over burst centroids. It is
// constructed once per run with the analysis window and is safe for
// concurrent use.
type Prior struct {
	tmin, tmax float64

	// Fractional Gaussian widths applied to the predicted burst gap and
	// frequency.
	timeTol float64
	freqTol float64
}

// Option adjusts prior construction.
type Option func(*Prior)

// WithTolerances overrides the fractional widths of the timing and frequency
// Gaussians.
func WithTolerances(timeTol, freqTol float64) Option {
	return func(p *Prior) {
		if timeTol > 0 {
			p.timeTol = timeTol
		}
		if freqTol > 0 {
			p.freqTol = freqTol
		}
	}
}

// New constructs a Prior for the analysis window [tmin, tmax].
func New(tmin, tmax float64, opts ...Option) *Prior {
	p := &Prior{
		tmin:    tmin,
		tmax:    tmax,
		timeTol: defaultTimeTolerance,
		freqTol: defaultFreqTolerance,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LogPrior scores three (time, frequency) centroid pairs under the meta
// parameters. Returns -inf for configurations the orbital model disallows.
func (p *Prior) LogPrior(centroids [3][2]float64, meta models.MetaParams) float64 {
	negInf := math.Inf(-1)

	if meta.TotalMass <= 0 || meta.ChirpMass <= 0 || meta.ChirpMass > meta.TotalMass {
		return negInf
	}
	if meta.EccAtAnchor <= 0 || meta.EccAtAnchor >= 1 {
		return negInf
	}
	if meta.AnchorFreq <= 0 {
		return negInf
	}
	for i, c := range centroids {
		if c[0] < p.tmin || c[0] > p.tmax {
			return negInf
		}
		if c[1] <= 0 {
			return negInf
		}
		if i > 0 && c[0] <= centroids[i-1][0] {
			return negInf
		}
	}

	// March the predictor forward from the anchor until it reaches the
	// first observed burst's neighborhood.
	predT, predF := meta.AnchorTime, meta.AnchorFreq
	de := meta.EccAtAnchor
	steps := 0
	for predT < centroids[0][0]-p.burstGap(predF, de)/2 {
		predT, predF = p.advance(predT, predF, de, meta.ChirpMass)
		steps++
		if steps > marchCap {
			return negInf
		}
	}

	ll := 0.0
	for i, c := range centroids {
		gap := p.burstGap(predF, de)
		sigmaT := p.timeTol * gap
		sigmaF := p.freqTol * predF
		ll += distuv.Normal{Mu: predT, Sigma: sigmaT}.LogProb(c[0])
		ll += distuv.Normal{Mu: predF, Sigma: sigmaF}.LogProb(c[1])
		if i < len(centroids)-1 {
			// Condition the next prediction on the observed centroid so the
			// gap terms stay local rather than compounding drift.
			predT, predF = p.advance(c[0], c[1], de, meta.ChirpMass)
		}
	}
	if math.IsNaN(ll) {
		return negInf
	}
	return ll
}

// burstGap is the predicted time between consecutive periastron passages for
// a burst at frequency f: the burst rides the periastron sweep, so the
// orbital period recovers a factor de^(3/2) relative to 1/f.
func (p *Prior) burstGap(f, de float64) float64 {
	return 1 / (f * math.Pow(de, 1.5))
}

// advance evolves one burst gap forward, chirping the burst frequency by the
// leading-order radiation-reaction rate.
func (p *Prior) advance(t, f, de, chirpMass float64) (float64, float64) {
	gap := p.burstGap(f, de)
	mc := chirpMass * solarMassSeconds
	df := chirpCoeff * math.Pow(mc, 5.0/3.0) * math.Pow(f, 11.0/3.0) * gap
	return t + gap, f + df
}
