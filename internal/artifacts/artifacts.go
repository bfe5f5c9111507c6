// Package artifacts persists run outputs under their fixed file names: the
// synthetic dataset and its plot, the parameter JSON documents, and the
// chain, sample, and log-posterior records.
package artifacts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gwburst/eccfit/internal/models"
)

// WriteDataset writes the injection as two whitespace rows: sample times,
// then strain.
func WriteDataset(path string, ds models.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range [][]float64{ds.Times, ds.Strain} {
		if err := writeRow(w, row); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush dataset file: %w", err)
	}
	return nil
}

// PlotWaveform renders the injection waveform to an image file.
func PlotWaveform(path string, ds models.Dataset) error {
	p := plot.New()
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "amplitude"

	pts := make(plotter.XYs, len(ds.Times))
	for i := range ds.Times {
		pts[i].X = ds.Times[i]
		pts[i].Y = ds.Strain[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build waveform line: %w", err)
	}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save waveform plot: %w", err)
	}
	return nil
}

type metaDoc struct {
	M      float64 `json:"M"`
	Mc     float64 `json:"Mc"`
	Destar float64 `json:"destar"`
	Tstar  float64 `json:"tstar"`
	Fstar  float64 `json:"fstar"`
}

// WriteMetaJSON writes the meta parameters under their catalog key names.
func WriteMetaJSON(path string, meta models.MetaParams) error {
	return writeJSON(path, metaDoc{
		M:      meta.TotalMass,
		Mc:     meta.ChirpMass,
		Destar: meta.EccAtAnchor,
		Tstar:  meta.AnchorTime,
		Fstar:  meta.AnchorFreq,
	})
}

// WriteWaveletJSON writes the three injected wavelet parameter sets, keyed
// t_1..phi_3.
func WriteWaveletJSON(path string, ws [3]models.Wavelet) error {
	doc := make(map[string]float64, 15)
	for i, w := range ws {
		n := strconv.Itoa(i + 1)
		doc["t_"+n] = w.Time
		doc["f_"+n] = w.Freq
		doc["A_"+n] = w.Amp
		doc["Q_"+n] = w.Q
		doc["phi_"+n] = w.Phase
	}
	return writeJSON(path, doc)
}

// WriteChains writes the recorded chain as a NumPy array. The step and
// walker axes are flattened into rows of dim columns; row i holds step
// i/walkers, walker i%walkers.
func WriteChains(path string, chain [][][]float64) error {
	if len(chain) == 0 || len(chain[0]) == 0 {
		return fmt.Errorf("chain is empty")
	}
	walkers := len(chain[0])
	dim := len(chain[0][0])
	dense := mat.NewDense(len(chain)*walkers, dim, nil)
	for i, step := range chain {
		for j, x := range step {
			dense.SetRow(i*walkers+j, x)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chain file: %w", err)
	}
	defer f.Close()
	if err := npyio.Write(f, dense); err != nil {
		return fmt.Errorf("write chain array: %w", err)
	}
	return nil
}

// WriteSamples writes flattened posterior samples, one vector per row.
func WriteSamples(path string, samples [][]float64) error {
	return writeRows(path, samples)
}

// WriteLogPost writes per-step log-posterior values, one row per step with
// one column per walker.
func WriteLogPost(path string, logpost [][]float64) error {
	return writeRows(path, logpost)
}

func writeRows(path string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		if err := writeRow(w, row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func writeRow(w *bufio.Writer, row []float64) error {
	for i, v := range row {
		if i > 0 {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(strconv.FormatFloat(v, 'e', 17, 64)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func writeJSON(path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
