package posterior_test

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/gwburst/eccfit/internal/catalog"
	"github.com/gwburst/eccfit/internal/eccprior"
	"github.com/gwburst/eccfit/internal/models"
	"github.com/gwburst/eccfit/internal/posterior"
	"github.com/gwburst/eccfit/internal/wavelet"
)

// TestInjectionRecovery wires the real catalog loader, eccentricity prior,
// and evaluator together: the posterior at the injected truth must have a
// perfect-fit likelihood and a finite, reproducible total.
func TestInjectionRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bursts.txt")
	content := "1.0 50 0.1\n1.2 55 0.12\n1.4 60 0.15\n1.6 65 0.18\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	records, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	triplet, err := catalog.Triplet(records, 0)
	if err != nil {
		t.Fatalf("select triplet: %v", err)
	}
	meta, err := catalog.MetaFor(records, 0, 40, 1.0)
	if err != nil {
		t.Fatalf("derive meta: %v", err)
	}
	tmin, tmax, err := catalog.Window(records, 0)
	if err != nil {
		t.Fatalf("derive window: %v", err)
	}
	if math.Abs(tmin-0.9) > 1e-12 || math.Abs(tmax-1.5) > 1e-12 {
		t.Fatalf("window [%v, %v], want [0.9, 1.5]", tmin, tmax)
	}

	var injected [3]models.Wavelet
	for i, b := range triplet {
		injected[i] = models.Wavelet{Time: b.Time, Freq: b.Freq, Amp: 50, Q: 2, Phase: 0}
	}
	times := floats.Span(make([]float64, 1000), tmin, tmax)
	data := wavelet.Composite(times, injected)

	eval, err := posterior.NewEvaluator(times, data, eccprior.New(tmin, tmax))
	if err != nil {
		t.Fatalf("build evaluator: %v", err)
	}

	truth := models.ParamVector{Wavelets: injected, Meta: meta}

	if ll := wavelet.LogLikelihood(data, data); ll != 0 {
		t.Fatalf("likelihood at perfect fit: got %v, want 0", ll)
	}

	lp := eval.LogPosterior(truth)
	if math.IsInf(lp, 0) || math.IsNaN(lp) {
		t.Fatalf("posterior at injected truth not finite: %v", lp)
	}
	if again := eval.LogPosterior(truth); again != lp {
		t.Fatalf("posterior not reproducible: %v vs %v", again, lp)
	}

	// The truth must also be a viable ensemble seed.
	walkers, err := eval.InitWalkers(truth, 8, rand.NewPCG(21, 22))
	if err != nil {
		t.Fatalf("init walkers around truth: %v", err)
	}
	for i, x := range walkers {
		if v := eval.LogPosteriorFlat(x); math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("walker %d not finite: %v", i, v)
		}
	}
}
