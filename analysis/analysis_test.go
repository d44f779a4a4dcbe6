package analysis

import (
	"strconv"
	"testing"

	"github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
)

// completedTrials builds n completed records with Values[0] = number and a
// single parameter "x" mirroring the value.
func completedTrials(n int) []TrialRecord {
	records := make([]TrialRecord, n)
	for i := range records {
		records[i] = TrialRecord{
			Number: i,
			Values: []float64{float64(i)},
			Params: map[string]interface{}{"x": float64(i)},
		}
	}
	return records
}

func TestTopTrialsSelection(t *testing.T) {
	tests := []struct {
		name        string
		records     []TrialRecord
		percent     float64
		direction   Direction
		wantNumbers []int
		wantErr     bool
	}{
		{
			name:        "maximize takes highest values",
			records:     completedTrials(10),
			percent:     30,
			direction:   DirectionMaximize,
			wantNumbers: []int{9, 8, 7},
		},
		{
			name:        "minimize takes lowest values",
			records:     completedTrials(10),
			percent:     30,
			direction:   DirectionMinimize,
			wantNumbers: []int{0, 1, 2},
		},
		{
			name:        "fraction is floored",
			records:     completedTrials(7),
			percent:     50, // floor(3.5) = 3
			direction:   DirectionMinimize,
			wantNumbers: []int{0, 1, 2},
		},
		{
			name:        "subset never empty",
			records:     completedTrials(3),
			percent:     10, // floor(0.3) = 0, clamped to 1
			direction:   DirectionMinimize,
			wantNumbers: []int{0},
		},
		{
			name:        "hundred percent keeps all",
			records:     completedTrials(4),
			percent:     100,
			direction:   DirectionMinimize,
			wantNumbers: []int{0, 1, 2, 3},
		},
		{
			name: "skipped trials excluded before ranking",
			records: []TrialRecord{
				{Number: 0, Values: []float64{5}, Params: map[string]interface{}{"x": 5.0}},
				{Number: 1, Params: map[string]interface{}{"x": 1.0}}, // skipped
				{Number: 2, Values: []float64{1}, Params: map[string]interface{}{"x": 1.0}},
				{Number: 3, Params: map[string]interface{}{"x": 9.0}}, // skipped
				{Number: 4, Values: []float64{3}, Params: map[string]interface{}{"x": 3.0}},
			},
			percent:     67, // floor(3 * 0.67) = 2
			direction:   DirectionMinimize,
			wantNumbers: []int{2, 4},
		},
		{
			name:      "all skipped",
			records:   []TrialRecord{{Number: 0}, {Number: 1}},
			percent:   50,
			direction: DirectionMinimize,
			wantErr:   true,
		},
		{
			name:      "percent out of range",
			records:   completedTrials(3),
			percent:   0,
			direction: DirectionMinimize,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, err := TopTrials(tt.records, tt.percent, tt.direction)

			if (err != nil) != tt.wantErr {
				t.Fatalf("TopTrials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if len(top) != len(tt.wantNumbers) {
				t.Fatalf("TopTrials() returned %d trials, want %d", len(top), len(tt.wantNumbers))
			}
			for i, want := range tt.wantNumbers {
				if top[i].Number != want {
					t.Errorf("TopTrials()[%d].Number = %d, want %d", i, top[i].Number, want)
				}
			}
		})
	}
}

func TestTopTrialsAllSkippedError(t *testing.T) {
	_, err := TopTrials([]TrialRecord{{Number: 0}, {Number: 1}, {Number: 2}}, 50, DirectionMinimize)
	if err == nil {
		t.Fatal("expected error for all-skipped study")
	}
	var emptyErr *errors.EmptyStudyError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyStudyError, got %T: %v", err, err)
	}
	if emptyErr.Total != 3 {
		t.Errorf("EmptyStudyError.Total = %d, want 3", emptyErr.Total)
	}
}

func mixedTop() []TrialRecord {
	return []TrialRecord{
		{Number: 7, Values: []float64{1}, Params: map[string]interface{}{"lr": 0.5, "opt": "sgd", "n": 4}},
		{Number: 2, Values: []float64{2}, Params: map[string]interface{}{"lr": 0.1, "opt": "adam", "n": 8}},
		{Number: 9, Values: []float64{3}, Params: map[string]interface{}{"lr": 0.3, "opt": "adam", "n": 2}},
	}
}

func TestParamTable(t *testing.T) {
	table := ParamTable(mixedTop(), []string{"lr", "opt", "n"})

	wantNames := []string{TrialNumberColumn, RankColumn, "lr", "opt", "n"}
	names := table.Names()
	if len(names) != len(wantNames) {
		t.Fatalf("column count = %d, want %d (%v)", len(names), len(wantNames), names)
	}
	for i, want := range wantNames {
		if names[i] != want {
			t.Errorf("column[%d] = %q, want %q", i, names[i], want)
		}
	}

	if got := table.Nrow(); got != 3 {
		t.Fatalf("Nrow() = %d, want 3", got)
	}

	numbers := table.Col(TrialNumberColumn).Float()
	for i, want := range []float64{7, 2, 9} {
		if numbers[i] != want {
			t.Errorf("trial_number[%d] = %v, want %v", i, numbers[i], want)
		}
	}

	ranks := table.Col(RankColumn).Float()
	for i, want := range []float64{1, 2, 3} {
		if ranks[i] != want {
			t.Errorf("rank[%d] = %v, want %v", i, ranks[i], want)
		}
	}

	lr := table.Col("lr").Float()
	for i, want := range []float64{0.5, 0.1, 0.3} {
		if lr[i] != want {
			t.Errorf("lr[%d] = %v, want %v", i, lr[i], want)
		}
	}

	opt := table.Col("opt").Records()
	for i, want := range []string{"sgd", "adam", "adam"} {
		if opt[i] != want {
			t.Errorf("opt[%d] = %q, want %q", i, opt[i], want)
		}
	}
}

func TestParamTableSortsUnlistedColumns(t *testing.T) {
	table := ParamTable(mixedTop(), nil)

	wantNames := []string{TrialNumberColumn, RankColumn, "lr", "n", "opt"}
	names := table.Names()
	for i, want := range wantNames {
		if names[i] != want {
			t.Errorf("column[%d] = %q, want %q", i, names[i], want)
		}
	}
}

func TestMinMaxTable(t *testing.T) {
	table := ParamTable(mixedTop(), []string{"lr", "opt", "n"})
	ranges, err := MinMaxTable(table)
	if err != nil {
		t.Fatalf("MinMaxTable() error = %v", err)
	}

	records := ranges.Records()
	want := map[string][2]string{
		RankColumn: {"1", "3"},
		"lr":       {"0.1", "0.5"},
		"opt":      {"adam", "sgd"},
		"n":        {"2", "8"},
	}

	if len(records) != len(want)+1 {
		t.Fatalf("row count = %d, want %d", len(records), len(want)+1)
	}
	for _, row := range records[1:] {
		param := row[0]
		if param == TrialNumberColumn {
			t.Fatal("trial_number must not appear in the min/max table")
		}
		bounds, ok := want[param]
		if !ok {
			t.Errorf("unexpected parameter %q", param)
			continue
		}
		if row[1] != bounds[0] || row[2] != bounds[1] {
			t.Errorf("%s: got [%s, %s], want [%s, %s]", param, row[1], row[2], bounds[0], bounds[1])
		}
	}
}

// Min/max bounds must be members of the filtered subset, whatever the data.
func TestMinMaxTableBoundsObserved(t *testing.T) {
	top := completedTrials(25)
	table := ParamTable(top, []string{"x"})
	ranges, err := MinMaxTable(table)
	if err != nil {
		t.Fatalf("MinMaxTable() error = %v", err)
	}

	for _, row := range ranges.Records()[1:] {
		if row[0] != "x" {
			continue
		}
		minV, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			t.Fatalf("min parse: %v", err)
		}
		maxV, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			t.Fatalf("max parse: %v", err)
		}
		if minV != 0 || maxV != 24 {
			t.Errorf("x bounds = [%v, %v], want [0, 24]", minV, maxV)
		}
	}
}

func TestMinMaxTableEmpty(t *testing.T) {
	if _, err := MinMaxTable(ParamTable(nil, nil)); err == nil {
		t.Fatal("expected error for empty table")
	}
}

func TestParseDirection(t *testing.T) {
	if _, err := ParseDirection("minimize"); err != nil {
		t.Errorf("ParseDirection(minimize) error = %v", err)
	}
	if _, err := ParseDirection("maximize"); err != nil {
		t.Errorf("ParseDirection(maximize) error = %v", err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("ParseDirection(sideways) expected error")
	}
}
