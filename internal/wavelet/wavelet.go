// Package wavelet holds the pure numerical kernels of the fit: the
// Morlet-Gabor time-domain model, the SNR-derived amplitude prior, and the
// Gaussian log-likelihood.
package wavelet

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gwburst/eccfit/internal/models"
)

const (
	// RefSNR is the reference signal-to-noise ratio the amplitude prior is
	// scaled against.
	RefSNR = 1.0
	// NoiseSpectralDensity is the one-sided noise PSD assumed by the SNR
	// conversion.
	NoiseSpectralDensity = 1.0
	// NoiseVariance is the per-sample noise variance of the likelihood.
	NoiseVariance = 1.0
)

// Eval samples one Morlet-Gabor wavelet on the given time grid:
//
//	psi(t) = A exp(-(t-t0)^2/tau^2) cos(2 pi f0 (t-t0) + phi), tau = Q/(2 pi f0)
//
// The caller guarantees Freq > 0; on sampling paths the bounds filter runs
// before any wavelet evaluation.
func Eval(times []float64, w models.Wavelet) []float64 {
	psi := make([]float64, len(times))
	AccumulateInto(psi, times, w)
	return psi
}

// AccumulateInto adds one wavelet evaluation to dst in place. dst and times
// must have equal length.
func AccumulateInto(dst, times []float64, w models.Wavelet) {
	tau := w.Q / (2 * math.Pi * w.Freq)
	for i, t := range times {
		dt := t - w.Time
		dst[i] += w.Amp * math.Exp(-dt*dt/(tau*tau)) * math.Cos(2*math.Pi*w.Freq*dt+w.Phase)
	}
}

// Composite sums the three wavelet evaluations into one model waveform.
func Composite(times []float64, ws [3]models.Wavelet) []float64 {
	model := make([]float64, len(times))
	for _, w := range ws {
		AccumulateInto(model, times, w)
	}
	return model
}

// SNR converts a wavelet's amplitude, frequency, and quality factor into the
// per-wavelet signal-to-noise ratio implied by unit noise spectral density.
func SNR(amp, freq, q float64) float64 {
	return amp * math.Sqrt(q) / math.Sqrt(2*math.Sqrt(2*math.Pi)*freq*NoiseSpectralDensity)
}

// SignalLogPrior is the SNR-dependent amplitude prior for one wavelet:
// log(3 SNR / (4 (1 + SNR/4))), with SNR in units of RefSNR. Degenerate
// inputs (amp <= 0 or freq <= 0) yield -inf or NaN; the bounds filter keeps
// them off the sampling path.
func SignalLogPrior(amp, freq, q float64) float64 {
	snr := SNR(amp, freq, q) / RefSNR
	return math.Log(3 * snr / (4 * (1 + snr/4)))
}

// LogLikelihood scores a model waveform against the fixed data under unit,
// uncorrelated per-sample noise: -0.5 sum((data-model)^2). Normalization
// constants are dropped; only differences within a run are meaningful.
// model and data must have equal length.
func LogLikelihood(model, data []float64) float64 {
	res := make([]float64, len(data))
	copy(res, data)
	floats.Sub(res, model)
	return -0.5 * floats.Dot(res, res) / NoiseVariance
}
