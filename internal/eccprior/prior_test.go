package eccprior

import (
	"math"
	"testing"

	"github.com/gwburst/eccfit/internal/models"
)

var testMeta = models.MetaParams{
	TotalMass:   40,
	ChirpMass:   17.4,
	EccAtAnchor: 0.1,
	AnchorTime:  1.0,
	AnchorFreq:  50,
}

var testCentroids = [3][2]float64{{1.0, 50}, {1.2, 55}, {1.4, 60}}

func TestLogPriorFiniteForCatalogTriplet(t *testing.T) {
	p := New(0.9, 1.5)
	lp := p.LogPrior(testCentroids, testMeta)
	if math.IsInf(lp, 0) || math.IsNaN(lp) {
		t.Fatalf("expected finite log prior, got %v", lp)
	}
}

func TestLogPriorDeterministic(t *testing.T) {
	p := New(0.9, 1.5)
	a := p.LogPrior(testCentroids, testMeta)
	b := p.LogPrior(testCentroids, testMeta)
	if a != b {
		t.Fatalf("repeated evaluation differs: %v vs %v", a, b)
	}
}

func TestLogPriorRejectsCentroidOutsideWindow(t *testing.T) {
	p := New(0.9, 1.5)
	c := testCentroids
	c[2][0] = 1.6
	if lp := p.LogPrior(c, testMeta); !math.IsInf(lp, -1) {
		t.Fatalf("expected -inf for centroid past the window, got %v", lp)
	}
}

func TestLogPriorRejectsNonIncreasingTimes(t *testing.T) {
	p := New(0.9, 1.5)
	c := [3][2]float64{{1.2, 50}, {1.0, 55}, {1.4, 60}}
	if lp := p.LogPrior(c, testMeta); !math.IsInf(lp, -1) {
		t.Fatalf("expected -inf for out-of-order bursts, got %v", lp)
	}
}

func TestLogPriorRejectsNonPositiveFrequency(t *testing.T) {
	p := New(0.9, 1.5)
	c := testCentroids
	c[1][1] = 0
	if lp := p.LogPrior(c, testMeta); !math.IsInf(lp, -1) {
		t.Fatalf("expected -inf for zero frequency, got %v", lp)
	}
}

func TestLogPriorRejectsUnphysicalMeta(t *testing.T) {
	p := New(0.9, 1.5)
	cases := map[string]models.MetaParams{
		"zero total mass":       {TotalMass: 0, ChirpMass: 17.4, EccAtAnchor: 0.1, AnchorTime: 1, AnchorFreq: 50},
		"chirp above total":     {TotalMass: 10, ChirpMass: 17.4, EccAtAnchor: 0.1, AnchorTime: 1, AnchorFreq: 50},
		"descriptor at unity":   {TotalMass: 40, ChirpMass: 17.4, EccAtAnchor: 1, AnchorTime: 1, AnchorFreq: 50},
		"negative descriptor":   {TotalMass: 40, ChirpMass: 17.4, EccAtAnchor: -0.1, AnchorTime: 1, AnchorFreq: 50},
		"zero anchor frequency": {TotalMass: 40, ChirpMass: 17.4, EccAtAnchor: 0.1, AnchorTime: 1, AnchorFreq: 0},
	}
	for name, meta := range cases {
		if lp := p.LogPrior(testCentroids, meta); !math.IsInf(lp, -1) {
			t.Fatalf("%s: expected -inf, got %v", name, lp)
		}
	}
}

// modelCentroids marches the orbital model forward from the anchor so the
// returned triplet sits exactly on the prior's predictions.
func modelCentroids(p *Prior, meta models.MetaParams) [3][2]float64 {
	var c [3][2]float64
	tt, f := meta.AnchorTime, meta.AnchorFreq
	c[0] = [2]float64{tt, f}
	for i := 1; i < 3; i++ {
		tt, f = p.advance(tt, f, meta.EccAtAnchor, meta.ChirpMass)
		c[i] = [2]float64{tt, f}
	}
	return c
}

var fastMeta = models.MetaParams{
	TotalMass:   40,
	ChirpMass:   17.4,
	EccAtAnchor: 0.25,
	AnchorTime:  1.0,
	AnchorFreq:  50,
}

func TestPredictedCentroidsScoreHighest(t *testing.T) {
	p := New(0.9, 1.5)
	base := modelCentroids(p, fastMeta)
	best := p.LogPrior(base, fastMeta)
	if math.IsInf(best, 0) || math.IsNaN(best) {
		t.Fatalf("expected finite log prior on predicted centroids, got %v", best)
	}

	shifted := base
	shifted[1][0] += 0.05
	if lp := p.LogPrior(shifted, fastMeta); lp >= best {
		t.Fatalf("displaced centroid should score lower: %v >= %v", lp, best)
	}
}

func TestWithTolerances(t *testing.T) {
	narrow := New(0.9, 1.5, WithTolerances(0.01, 0.01))
	wide := New(0.9, 1.5, WithTolerances(0.5, 0.5))

	base := modelCentroids(narrow, fastMeta)
	shifted := base
	shifted[1][0] += 0.05

	// The narrow prior should penalize the same displacement harder.
	dNarrow := narrow.LogPrior(base, fastMeta) - narrow.LogPrior(shifted, fastMeta)
	dWide := wide.LogPrior(base, fastMeta) - wide.LogPrior(shifted, fastMeta)
	if dNarrow <= dWide {
		t.Fatalf("narrow-tolerance penalty %v should exceed wide-tolerance penalty %v", dNarrow, dWide)
	}
}
