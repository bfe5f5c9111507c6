// Package catalog loads the whitespace-delimited burst table and derives the
// per-run meta parameters and analysis window from it.
package catalog

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gwburst/eccfit/internal/models"
	"github.com/gwburst/eccfit/internal/utils"
)

// Load reads a burst catalog: one burst per line, three whitespace-separated
// columns (time, frequency, eccentricity descriptor). Blank lines and lines
// starting with '#' are skipped.
func Load(path string) ([]models.BurstRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, utils.NewAppError("catalog.Load", fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	var records []models.BurstRecord
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, utils.NewAppError("catalog.Load",
				fmt.Sprintf("line %d: want 3 columns, got %d", line, len(fields)), nil)
		}
		var vals [3]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, utils.NewAppError("catalog.Load",
					fmt.Sprintf("line %d column %d: %q is not a number", line, i+1, field), err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, utils.NewAppError("catalog.Load",
					fmt.Sprintf("line %d column %d: non-finite value", line, i+1), nil)
			}
			vals[i] = v
		}
		records = append(records, models.BurstRecord{
			Time:          vals[0],
			Freq:          vals[1],
			EccDescriptor: vals[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewAppError("catalog.Load", "read catalog", err)
	}
	if len(records) == 0 {
		return nil, utils.NewAppError("catalog.Load", "catalog is empty", nil)
	}
	return records, nil
}

// Triplet selects the three consecutive bursts starting at burstIdx.
func Triplet(records []models.BurstRecord, burstIdx int) ([3]models.BurstRecord, error) {
	var triplet [3]models.BurstRecord
	if burstIdx < 0 {
		return triplet, utils.NewAppError("catalog.Triplet",
			fmt.Sprintf("burst index %d is negative", burstIdx), nil)
	}
	if burstIdx+2 >= len(records) {
		return triplet, utils.NewAppError("catalog.Triplet",
			fmt.Sprintf("bursts %d-%d requested but catalog has %d rows", burstIdx, burstIdx+2, len(records)), nil)
	}
	copy(triplet[:], records[burstIdx:burstIdx+3])
	return triplet, nil
}

// Window derives the analysis window around the burst triplet: half a
// burst-to-burst gap of padding before the first and after the last centroid.
func Window(records []models.BurstRecord, burstIdx int) (tmin, tmax float64, err error) {
	if burstIdx < 0 || burstIdx+2 >= len(records) {
		return 0, 0, utils.NewAppError("catalog.Window",
			fmt.Sprintf("bursts %d-%d out of range for %d rows", burstIdx, burstIdx+2, len(records)), nil)
	}
	t0 := records[burstIdx].Time
	t1 := records[burstIdx+1].Time
	t2 := records[burstIdx+2].Time
	tmin = t0 + (t0-t1)/2
	tmax = t2 + (t2-t1)/2
	if tmax <= tmin {
		return 0, 0, utils.NewAppError("catalog.Window",
			fmt.Sprintf("degenerate window [%g, %g]; burst times must increase", tmin, tmax), nil)
	}
	return tmin, tmax, nil
}

// ChirpMass computes the chirp mass from total mass and mass ratio.
func ChirpMass(mtot, q float64) float64 {
	return math.Pow(q, 3.0/5.0) / math.Pow(1+q, 6.0/5.0) * mtot
}

// MetaFor builds the eccentricity-prior meta parameters anchored at
// anchorIdx.
func MetaFor(records []models.BurstRecord, anchorIdx int, mtot, q float64) (models.MetaParams, error) {
	if anchorIdx < 0 || anchorIdx >= len(records) {
		return models.MetaParams{}, utils.NewAppError("catalog.MetaFor",
			fmt.Sprintf("anchor index %d out of range for %d rows", anchorIdx, len(records)), nil)
	}
	if mtot <= 0 || q <= 0 {
		return models.MetaParams{}, utils.NewAppError("catalog.MetaFor",
			fmt.Sprintf("non-physical masses: mtot=%g q=%g", mtot, q), nil)
	}
	anchor := records[anchorIdx]
	return models.MetaParams{
		TotalMass:   mtot,
		ChirpMass:   ChirpMass(mtot, q),
		EccAtAnchor: anchor.EccDescriptor,
		AnchorTime:  anchor.Time,
		AnchorFreq:  anchor.Freq,
	}, nil
}
