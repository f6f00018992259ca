package indicator

import (
	"math"

	"github.com/newthinker/botdeck/internal/core"
)

// SMA returns the simple moving average of bar closes, aligned with bars.
// Entries before the first full window are NaN.
func SMA(bars []core.Bar, period int) []float64 {
	out := warmup(len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}

	var sum float64
	for i, b := range bars {
		sum += b.Close
		if i >= period {
			sum -= bars[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average of bar closes, aligned with
// bars. It is seeded with the SMA of the first window.
func EMA(bars []core.Bar, period int) []float64 {
	out := warmup(len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}

	k := 2.0 / float64(period+1)
	var ema float64
	for i := 0; i < period; i++ {
		ema += bars[i].Close
	}
	ema /= float64(period)
	out[period-1] = ema

	for i := period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*k + ema
		out[i] = ema
	}
	return out
}

// Last returns the newest defined value, or false if there is none.
func Last(values []float64) (float64, bool) {
	if len(values) == 0 || math.IsNaN(values[len(values)-1]) {
		return 0, false
	}
	return values[len(values)-1], true
}

func warmup(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
