package nodes

import (
	"testing"
	"time"
)

func TestTrendFromTendency(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"Falling Rapidly", TrendFallingRapidly, true},
		{"Falling Slowly", TrendFallingSlowly, true},
		{"Steady", TrendSteady, true},
		{"rising slowly", TrendRisingSlowly, true},
		{" Rising Rapidly ", TrendRisingRapidly, true},
		{"", 0, false},
		{"Sideways", 0, false},
	}

	for _, tt := range tests {
		got, ok := TrendFromTendency(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("TrendFromTendency(%q) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPressureHistoryTrend(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		perSample float64 // inHg change per sample, one sample every 10 minutes
		samples   int
		want      int
	}{
		{"too few samples", 0.05, 2, TrendSteady},
		{"flat", 0, 6, TrendSteady},
		{"rising slowly", 0.03 / 6, 6, TrendRisingSlowly},
		{"rising rapidly", 0.1 / 6, 6, TrendRisingRapidly},
		{"falling slowly", -0.03 / 6, 6, TrendFallingSlowly},
		{"falling rapidly", -0.2 / 6, 6, TrendFallingRapidly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h pressureHistory
			for i := 0; i < tt.samples; i++ {
				h.add(start.Add(time.Duration(i)*10*time.Minute), 30+float64(i)*tt.perSample)
			}
			if got := h.trend(); got != tt.want {
				t.Errorf("trend() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPressureHistoryWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var h pressureHistory
	h.add(start, 29.0)
	h.add(start.Add(30*time.Minute), 29.5)
	h.add(start.Add(2*time.Hour), 30.0)

	if len(h.samples) != 1 {
		t.Errorf("samples after window expiry = %d, want 1", len(h.samples))
	}
}
