package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/oddsearch/internal/model"
)

func TestTrialMetrics(t *testing.T) {
	s := model.TrialStats{
		TrialTime:   30,
		Hits:        3,
		Misses:      1,
		Targets:     4,
		Taps:        4,
		TapDistance: 3.2,
	}
	hitRate, precision, tapsPerMin := TrialMetrics(s)
	if math.Abs(hitRate-0.75) > 1e-9 {
		t.Errorf("hit rate = %v, want 0.75", hitRate)
	}
	if math.Abs(precision-0.8) > 1e-9 {
		t.Errorf("precision = %v, want 0.8", precision)
	}
	if math.Abs(tapsPerMin-8) > 1e-9 {
		t.Errorf("taps per minute = %v, want 8", tapsPerMin)
	}
}

func TestTrialMetricsZeroGuards(t *testing.T) {
	hitRate, precision, tapsPerMin := TrialMetrics(model.TrialStats{})
	if hitRate != 0 || precision != 0 || tapsPerMin != 0 {
		t.Errorf("got %v %v %v, want zeros", hitRate, precision, tapsPerMin)
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{2, 4, 6, 8}
	got := MovingAverage(values, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageIdentityWindow(t *testing.T) {
	values := []float64{1, 2, 3}
	got := MovingAverage(values, 1)
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], values[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Errorf("empty input produced %q", got)
	}
	got := Sparkline([]float64{0, 5, 10})
	if len(got) != 3 {
		t.Fatalf("got %q, want 3 characters", got)
	}
	if got[0] != sparkChars[0] {
		t.Errorf("minimum rendered as %q", got[0])
	}
	if got[2] != sparkChars[len(sparkChars)-1] {
		t.Errorf("maximum rendered as %q", got[2])
	}
	flat := Sparkline([]float64{3, 3, 3})
	if len(flat) != 3 {
		t.Fatalf("flat sparkline %q", flat)
	}
}
