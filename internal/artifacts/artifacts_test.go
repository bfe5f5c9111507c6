package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gwburst/eccfit/internal/models"
)

func TestWriteDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_set.txt")
	ds := models.Dataset{
		Times:  []float64{0.9, 1.0, 1.1},
		Strain: []float64{0.5, -0.25, 0.125},
	}
	if err := WriteDataset(path, ds); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("dataset has %d rows, want 2", len(lines))
	}
	for row, want := range [][]float64{ds.Times, ds.Strain} {
		fields := strings.Fields(lines[row])
		if len(fields) != len(want) {
			t.Fatalf("row %d has %d columns, want %d", row, len(fields), len(want))
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				t.Fatalf("row %d column %d: %v", row, i, err)
			}
			if v != want[i] {
				t.Fatalf("row %d column %d: got %v want %v", row, i, v, want[i])
			}
		}
	}
}

func TestWriteMetaJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta_params.json")
	meta := models.MetaParams{TotalMass: 40, ChirpMass: 17.4, EccAtAnchor: 0.1, AnchorTime: 1.0, AnchorFreq: 50}
	if err := WriteMetaJSON(path, meta); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read meta back: %v", err)
	}
	var doc map[string]float64
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	want := map[string]float64{"M": 40, "Mc": 17.4, "destar": 0.1, "tstar": 1.0, "fstar": 50}
	for key, v := range want {
		if doc[key] != v {
			t.Fatalf("key %q: got %v want %v", key, doc[key], v)
		}
	}
}

func TestWriteWaveletJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wavelet_params.json")
	ws := [3]models.Wavelet{
		{Time: 1.0, Freq: 50, Amp: 50, Q: 2, Phase: 0},
		{Time: 1.2, Freq: 55, Amp: 50, Q: 2, Phase: 0},
		{Time: 1.4, Freq: 60, Amp: 50, Q: 2, Phase: 0},
	}
	if err := WriteWaveletJSON(path, ws); err != nil {
		t.Fatalf("write wavelet params: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wavelet params back: %v", err)
	}
	var doc map[string]float64
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal wavelet params: %v", err)
	}
	if len(doc) != 15 {
		t.Fatalf("document has %d keys, want 15", len(doc))
	}
	if doc["t_1"] != 1.0 || doc["f_2"] != 55 || doc["Q_3"] != 2 {
		t.Fatalf("unexpected values: %v", doc)
	}
}

func TestWriteChains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.npy")
	chain := [][][]float64{
		{{1, 2}, {3, 4}},
		{{5, 6}, {7, 8}},
	}
	if err := WriteChains(path, chain); err != nil {
		t.Fatalf("write chains: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat chains: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("chain file is empty")
	}
}

func TestWriteChainsRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.npy")
	if err := WriteChains(path, nil); err == nil {
		t.Fatal("expected error for an empty chain")
	}
}

func TestWriteLogPost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logpost.txt")
	if err := WriteLogPost(path, [][]float64{{-1, -2}, {-3, -4}}); err != nil {
		t.Fatalf("write logpost: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read logpost back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || len(strings.Fields(lines[0])) != 2 {
		t.Fatalf("unexpected logpost layout: %q", string(data))
	}
}
