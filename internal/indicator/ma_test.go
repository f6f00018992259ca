package indicator

import (
	"math"
	"testing"

	"github.com/newthinker/botdeck/internal/core"
)

func closes(prices ...float64) []core.Bar {
	bars := make([]core.Bar, len(prices))
	for i, p := range prices {
		bars[i] = core.Bar{Time: int64(i+1) * 60, Open: p, High: p, Low: p, Close: p}
	}
	return bars
}

func TestSMA_AlignedWithBars(t *testing.T) {
	bars := closes(10, 11, 12, 13, 14, 15)

	sma := SMA(bars, 3)

	if len(sma) != len(bars) {
		t.Fatalf("expected %d values, got %d", len(bars), len(sma))
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(sma[i]) {
			t.Errorf("sma[%d] = %f, want NaN during warmup", i, sma[i])
		}
	}
	expected := []float64{11, 12, 13, 14}
	for i, v := range expected {
		if !almostEqual(sma[i+2], v, 1e-9) {
			t.Errorf("sma[%d] = %f, want %f", i+2, sma[i+2], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	sma := SMA(closes(10, 11), 5)

	if len(sma) != 2 {
		t.Fatalf("expected 2 values, got %d", len(sma))
	}
	if _, ok := Last(sma); ok {
		t.Error("expected no defined value")
	}
}

func TestSMA_ZeroPeriod(t *testing.T) {
	if _, ok := Last(SMA(closes(1, 2, 3), 0)); ok {
		t.Error("zero period should yield no values")
	}
}

func TestEMA_SeededWithSMA(t *testing.T) {
	ema := EMA(closes(10, 11, 12, 13, 14, 15), 3)

	if len(ema) != 6 {
		t.Fatalf("expected 6 values, got %d", len(ema))
	}
	if ema[2] != 11 {
		t.Errorf("first EMA should equal SMA, got %f", ema[2])
	}
	for i := 3; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA should be increasing, ema[%d]=%f <= ema[%d]=%f", i, ema[i], i-1, ema[i-1])
		}
	}
}

func TestLast(t *testing.T) {
	v, ok := Last(SMA(closes(2, 4, 6), 2))
	if !ok || v != 5 {
		t.Errorf("Last = %f, %v; want 5, true", v, ok)
	}
	if _, ok := Last(nil); ok {
		t.Error("empty input should yield no value")
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
