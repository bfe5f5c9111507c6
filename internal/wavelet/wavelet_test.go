package wavelet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwburst/eccfit/internal/models"
)

func grid(start, stop float64, n int) []float64 {
	ts := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range ts {
		ts[i] = start + float64(i)*step
	}
	return ts
}

func TestEvalPeaksAtCentroid(t *testing.T) {
	// Odd sample count puts a grid point exactly on the centroid.
	times := grid(0, 2, 201)
	w := models.Wavelet{Time: 1, Freq: 10, Amp: 50, Q: 2, Phase: 0}

	psi := Eval(times, w)
	require.Len(t, psi, len(times))

	assert.InDelta(t, 50, psi[100], 1e-12, "zero-phase wavelet should equal its amplitude at the centroid")
	for _, v := range psi {
		assert.LessOrEqual(t, math.Abs(v), 50+1e-12)
	}
}

func TestEvalEnvelopeSymmetricAboutCentroid(t *testing.T) {
	times := grid(0, 2, 201)
	w := models.Wavelet{Time: 1, Freq: 10, Amp: 3, Q: 4, Phase: 0}
	psi := Eval(times, w)

	// With phi = 0 the cosine is even in (t - t0), so the full waveform is
	// symmetric, not just the envelope.
	for i := 0; i < 100; i++ {
		assert.InDelta(t, psi[100+i], psi[100-i], 1e-9)
	}
}

func TestCompositeMatchesSumOfWavelets(t *testing.T) {
	times := grid(0, 3, 300)
	ws := [3]models.Wavelet{
		{Time: 0.5, Freq: 20, Amp: 1, Q: 2, Phase: 0},
		{Time: 1.5, Freq: 25, Amp: 2, Q: 3, Phase: 0.5},
		{Time: 2.5, Freq: 30, Amp: 3, Q: 4, Phase: -0.5},
	}
	sum := make([]float64, len(times))
	for _, w := range ws {
		for i, v := range Eval(times, w) {
			sum[i] += v
		}
	}
	composite := Composite(times, ws)
	for i := range sum {
		require.InDelta(t, sum[i], composite[i], 1e-12)
	}
}

func TestSNRValue(t *testing.T) {
	// SNR = A sqrt(Q) / sqrt(2 sqrt(2 pi) f).
	want := 50 * math.Sqrt2 / math.Sqrt(2*math.Sqrt(2*math.Pi)*50)
	assert.InDelta(t, want, SNR(50, 50, 2), 1e-12)
}

func TestSignalLogPriorFinite(t *testing.T) {
	lp := SignalLogPrior(50, 50, 2)
	require.False(t, math.IsInf(lp, 0) || math.IsNaN(lp))

	snr := SNR(50, 50, 2)
	want := math.Log(3 * snr / (4 * (1 + snr/4)))
	assert.InDelta(t, want, lp, 1e-12)
}

func TestSignalLogPriorDegenerateAmplitude(t *testing.T) {
	assert.True(t, math.IsInf(SignalLogPrior(0, 50, 2), -1))
}

func TestLogLikelihoodPerfectFit(t *testing.T) {
	data := []float64{1, -2, 3, 0.5}
	assert.Equal(t, 0.0, LogLikelihood(data, data))
}

func TestLogLikelihoodDecreasesWithResidual(t *testing.T) {
	data := []float64{0, 0, 0, 0}
	near := []float64{0.1, 0, 0, 0}
	far := []float64{1, 1, 0, 0}

	llNear := LogLikelihood(near, data)
	llFar := LogLikelihood(far, data)

	assert.Less(t, llNear, 0.0)
	assert.Less(t, llFar, llNear)
	assert.InDelta(t, -0.5*0.01, llNear, 1e-12)
	assert.InDelta(t, -1.0, llFar, 1e-12)
}
