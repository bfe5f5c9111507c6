package models

import "fmt"

// Dim is the length of the flat parameter vector consumed by the sampler:
// three wavelets of five parameters each plus five meta parameters.
const Dim = 20

// Wavelet holds the five parameters of one Morlet-Gabor wavelet.
type Wavelet struct {
	Time  float64 // centroid time (s)
	Freq  float64 // centroid frequency (Hz)
	Amp   float64 // amplitude, >= 0
	Q     float64 // quality factor, >= 1
	Phase float64 // phase offset in [-pi, pi]
}

// MetaParams are the five scalars that parameterize the eccentricity prior.
// They ride along in the sampled vector but stay effectively fixed for a run.
type MetaParams struct {
	TotalMass   float64 // solar masses
	ChirpMass   float64 // solar masses
	EccAtAnchor float64 // eccentricity descriptor at the anchor burst
	AnchorTime  float64 // anchor burst centroid time (s)
	AnchorFreq  float64 // anchor burst centroid frequency (Hz)
}

// ParamVector is the full MCMC state: three wavelets plus the meta parameters.
type ParamVector struct {
	Wavelets [3]Wavelet
	Meta     MetaParams
}

// Pack flattens the vector into the positional layout the sampler operates on:
// indices 0-4 wavelet 1, 5-9 wavelet 2, 10-14 wavelet 3, 15-19 meta.
func (p ParamVector) Pack() []float64 {
	x := make([]float64, Dim)
	for i, w := range p.Wavelets {
		off := i * 5
		x[off] = w.Time
		x[off+1] = w.Freq
		x[off+2] = w.Amp
		x[off+3] = w.Q
		x[off+4] = w.Phase
	}
	x[15] = p.Meta.TotalMass
	x[16] = p.Meta.ChirpMass
	x[17] = p.Meta.EccAtAnchor
	x[18] = p.Meta.AnchorTime
	x[19] = p.Meta.AnchorFreq
	return x
}

// UnpackParams rebuilds a ParamVector from the flat sampler layout.
func UnpackParams(x []float64) (ParamVector, error) {
	if len(x) != Dim {
		return ParamVector{}, fmt.Errorf("parameter vector has %d elements, want %d", len(x), Dim)
	}
	var p ParamVector
	for i := range p.Wavelets {
		off := i * 5
		p.Wavelets[i] = Wavelet{
			Time:  x[off],
			Freq:  x[off+1],
			Amp:   x[off+2],
			Q:     x[off+3],
			Phase: x[off+4],
		}
	}
	p.Meta = MetaParams{
		TotalMass:   x[15],
		ChirpMass:   x[16],
		EccAtAnchor: x[17],
		AnchorTime:  x[18],
		AnchorFreq:  x[19],
	}
	return p, nil
}

// Centroids returns the three (time, frequency) pairs handed to the
// eccentricity prior.
func (p ParamVector) Centroids() [3][2]float64 {
	var c [3][2]float64
	for i, w := range p.Wavelets {
		c[i] = [2]float64{w.Time, w.Freq}
	}
	return c
}
