package utils

import "testing"

func TestMean(t *testing.T) {
	if Mean(nil) != 0 {
		t.Error("empty mean should be 0")
	}
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("Mean = %v, want 2.5", got)
	}
}

func TestRound(t *testing.T) {
	if got := Round(0.123456, 3); got != 0.123 {
		t.Errorf("Round = %v, want 0.123", got)
	}
	if got := Round(0.5555, 2); got != 0.56 {
		t.Errorf("Round = %v, want 0.56", got)
	}
}
