package analysis

import (
	"os"
	"path/filepath"
	"testing"
)

func plotTable(t *testing.T, params int) *DistributionPlot {
	t.Helper()

	top := make([]TrialRecord, 4)
	for i := range top {
		p := make(map[string]interface{}, params)
		for j := 0; j < params-1; j++ {
			p["p"+string(rune('a'+j))] = float64(i * (j + 1))
		}
		p["kind"] = []string{"sgd", "adam"}[i%2]
		top[i] = TrialRecord{Number: i, Values: []float64{float64(i)}, Params: p}
	}

	dp, err := PlotDistributions(ParamTable(top, nil))
	if err != nil {
		t.Fatalf("PlotDistributions() error = %v", err)
	}
	return dp
}

func TestPlotDistributionsGrid(t *testing.T) {
	tests := []struct {
		name       string
		params     int
		rows, cols int
	}{
		{"single parameter", 1, 1, 1},
		{"two parameters", 2, 2, 1},
		{"three parameters", 3, 2, 2},
		{"five parameters", 5, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp := plotTable(t, tt.params)
			if dp.Rows() != tt.rows || dp.Cols() != tt.cols {
				t.Fatalf("grid = %dx%d, want %dx%d", dp.Rows(), dp.Cols(), tt.rows, tt.cols)
			}

			drawn := 0
			for _, row := range dp.Plots {
				for _, p := range row {
					if p != nil {
						drawn++
					}
				}
			}
			if drawn != tt.params {
				t.Errorf("drawn subplots = %d, want %d", drawn, tt.params)
			}
		})
	}
}

func TestPlotDistributionsEmptyTable(t *testing.T) {
	if _, err := PlotDistributions(ParamTable(nil, nil)); err == nil {
		t.Fatal("expected error for empty table")
	}
}

func TestWritePNG(t *testing.T) {
	dp := plotTable(t, 3)

	path := filepath.Join(t.TempDir(), "distributions.png")
	if err := dp.WritePNG(path); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("plot file is empty")
	}
}
