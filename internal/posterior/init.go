package posterior

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gwburst/eccfit/internal/metrics"
	"github.com/gwburst/eccfit/internal/models"
	"github.com/gwburst/eccfit/internal/utils"
)

// MaxInitRetries bounds the rejection sampling for a single walker. A
// reference vector sitting on a hard boundary can starve acceptance; failing
// loudly beats hanging.
const MaxInitRetries = 10000

// perturbScales are the per-dimension Gaussian standard deviations applied
// around the reference vector, in the flat layout: (t, f, A, Q, phi) per
// wavelet, then (M, Mc, de*, t*, f*).
var perturbScales = [models.Dim]float64{
	0.01, 1, 1, 0.1, 0.2,
	0.01, 1, 1, 0.1, 0.2,
	0.01, 1, 1, 0.1, 0.2,
	1, 0.5, 0.01, 0.01, 1,
}

// PerturbScale returns the initializer's standard deviation for one flat
// dimension.
func PerturbScale(dim int) float64 { return perturbScales[dim] }

// InitWalkers draws n starting vectors around ref, resampling each walker's
// perturbation until its log-posterior is finite. Every returned vector is
// guaranteed finite under LogPosterior. src seeds the draws; pass a fixed
// source for reproducible populations.
func (e *Evaluator) InitWalkers(ref models.ParamVector, n int, src rand.Source) ([][]float64, error) {
	if n <= 0 {
		return nil, utils.NewAppError("posterior.InitWalkers", "walker count must be positive", nil)
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	center := ref.Pack()

	walkers := make([][]float64, n)
	for i := range walkers {
		var x []float64
		retries := 0
		for {
			x = make([]float64, models.Dim)
			for d := range x {
				x[d] = center[d] + perturbScales[d]*normal.Rand()
			}
			if !math.IsInf(e.LogPosteriorFlat(x), 0) {
				break
			}
			retries++
			if retries >= MaxInitRetries {
				return nil, utils.NewAppError("posterior.InitWalkers",
					"no valid starting point found; reference vector may sit on a hard boundary", nil)
			}
		}
		metrics.InitRetries(retries)
		walkers[i] = x
	}
	return walkers, nil
}
