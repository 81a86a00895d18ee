package fluid

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		v         float64
		precision int
		want      float64
	}{
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{0.5, 0, 1},
		{1.4999, 0, 1},
		{0.125, 2, 0.13},
		{1.005, 2, 1}, // 1.005 is 1.00499999999999989... in binary
		{0.662983425414365, 5, 0.66298},
		{13.513812154696133, 5, 13.51381},
		{2.2727272727272725, 5, 2.27273},
		{-0.0000001, 3, 0},
		{1e21, 2, 1e21},
		{123.456, 200, 123.456},
		{123.456, -1, 123},
	}

	for _, tt := range tests {
		if got := Round(tt.v, tt.precision); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.precision, got, tt.want)
		}
	}
}

func TestRound_NonFinite(t *testing.T) {
	if got := Round(math.Inf(1), 2); !math.IsInf(got, 1) {
		t.Errorf("Round(+Inf) = %v", got)
	}
	if got := Round(math.NaN(), 2); !math.IsNaN(got) {
		t.Errorf("Round(NaN) = %v", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v         float64
		precision int
		want      string
	}{
		{5, 2, "5"},
		{5.10, 2, "5.1"},
		{5.004, 2, "5"},
		{-0.0001, 2, "0"},
		{-0.66298342, 5, "-0.66298"},
		{1.23456789, 3, "1.235"},
		{0.0000001, 10, "1e-7"},
		{0.00000015, 8, "1.5e-7"},
		{-0.00000025, 8, "-2.5e-7"},
		{0.000001, 6, "0.000001"},
		{1e20, 0, "100000000000000000000"},
		{1e21, 0, "1e+21"},
		{1.5e22, 2, "1.5e+22"},
		{13.513812154696133, 0, "14"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.v, tt.precision); got != tt.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tt.v, tt.precision, got, tt.want)
		}
	}
}

func TestOptions_ViewportUnit(t *testing.T) {
	opts := DefaultOptions()
	if got := opts.viewportUnit(); got != UnitVw {
		t.Errorf("viewportUnit() = %q, want %q", got, UnitVw)
	}
	opts.UseLogicalUnits = true
	if got := opts.viewportUnit(); got != UnitVi {
		t.Errorf("viewportUnit() = %q, want %q", got, UnitVi)
	}
	if opts.RootFontSize != 16 || opts.Precision != 5 {
		t.Errorf("DefaultOptions() = %+v", DefaultOptions())
	}
}
