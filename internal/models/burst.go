package models

// BurstRecord is one row of the burst catalog: the centroid time and
// frequency of a detected burst plus its eccentricity-derived descriptor.
type BurstRecord struct {
	Time          float64
	Freq          float64
	EccDescriptor float64
}

// Dataset is the frozen injection the likelihood compares against: a time
// grid and the strain sampled on it. Immutable once built.
type Dataset struct {
	Times  []float64
	Strain []float64
}
