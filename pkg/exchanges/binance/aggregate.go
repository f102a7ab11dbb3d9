package binance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
)

// PriceField selects which price of a base candle feeds an aggregation
// window.
type PriceField int

const (
	// FieldClose keeps the last base close in each window.
	FieldClose PriceField = iota
	// FieldHigh keeps the highest base high in each window.
	FieldHigh
	// FieldLow keeps the lowest base low in each window.
	FieldLow
)

// Rebucket folds base-interval candles into one value per window of the
// given width, oldest first. Window boundaries are computed from absolute
// epoch time, never from a running counter, so a gap in the base series
// cannot shift later windows: a window with no base candles simply
// produces no element. Base candles before the first epoch-aligned
// boundary belong to a window whose start is missing and are dropped.
//
// The input must be ordered oldest to newest, which is how all fetch
// operations in this package return series.
func Rebucket(series interfaces.CandleSeries, window time.Duration, field PriceField) []float64 {
	windowSec := int64(window / time.Second)
	if windowSec <= 0 {
		return nil
	}

	var out []float64
	opened := false
	currentWindow := int64(-1)
	for _, c := range series {
		ts := c.OpenTime.Unix()
		if !opened {
			if ts%windowSec != 0 {
				continue
			}
			opened = true
		}
		v := fieldValue(c, field)
		start := ts - ts%windowSec
		if start != currentWindow {
			out = append(out, v)
			currentWindow = start
			continue
		}
		last := len(out) - 1
		switch field {
		case FieldHigh:
			if v > out[last] {
				out[last] = v
			}
		case FieldLow:
			if v < out[last] {
				out[last] = v
			}
		default:
			out[last] = v
		}
	}
	return out
}

func fieldValue(c interfaces.Candle, field PriceField) float64 {
	switch field {
	case FieldHigh:
		return c.High
	case FieldLow:
		return c.Low
	default:
		return c.Close
	}
}

// parseWindow converts an interval string such as "15m", "4h" or "1d"
// into a duration. Any positive integer count is accepted; aggregation
// is not limited to the interval set the exchange serves natively.
func parseWindow(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("%w: %q", interfaces.ErrInvalidInterval, interval)
	}
	unit := interval[len(interval)-1]
	count, err := strconv.Atoi(strings.TrimSpace(interval[:len(interval)-1]))
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("%w: %q", interfaces.ErrInvalidInterval, interval)
	}
	switch unit {
	case 'm':
		return time.Duration(count) * time.Minute, nil
	case 'h':
		return time.Duration(count) * time.Hour, nil
	case 'd':
		return time.Duration(count) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", interfaces.ErrInvalidInterval, interval)
	}
}
