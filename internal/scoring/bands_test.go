package scoring

import "testing"

func TestConvertBand(t *testing.T) {
	tests := []struct {
		name        string
		raw         int
		total       int
		anyAnswered bool
		want        float64
	}{
		{"nothing answered", 0, 20, false, 0.0},
		{"answered but all wrong", 0, 20, true, 0.0},
		{"raw zero overrides table", 0, 10, true, 0.0},
		{"listening minimum", 1, 20, true, 2.5},
		{"listening midpoint", 10, 20, true, 6.5},
		{"listening ceiling reached", 15, 20, true, 9.0},
		{"listening perfect", 20, 20, true, 9.0},
		{"reading minimum", 1, 10, true, 2.5},
		{"reading midpoint", 5, 10, true, 6.5},
		{"reading perfect", 10, 10, true, 9.0},
		{"scaled total half", 3, 6, true, 6.5},
		{"scaled total perfect", 6, 6, true, 9.0},
		{"scaled never below table floor", 1, 100, true, 2.5},
		{"zero total", 5, 0, true, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertBand(tt.raw, tt.total, tt.anyAnswered)
			if got != tt.want {
				t.Errorf("ConvertBand(%d, %d, %v) = %v, want %v", tt.raw, tt.total, tt.anyAnswered, got, tt.want)
			}
		})
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{6.25, 6.3},
		{6.24, 6.2},
		{6.0, 6.0},
		{8.95, 9.0},
		{0.0, 0.0},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
