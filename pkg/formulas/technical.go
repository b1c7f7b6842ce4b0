package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateRSI calculates the Relative Strength Index
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
//
// Returns the latest RSI value (0-100) or nil if insufficient data
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}
	return last(talib.Rsi(closes, length))
}

// CalculateEMA calculates the Exponential Moving Average
// Falls back to the SMA of the available prices when the series is shorter than length.
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 || length <= 0 {
		return nil
	}

	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}

	if ema := last(talib.Ema(closes, length)); ema != nil {
		return ema
	}

	sma := Mean(closes[len(closes)-length:])
	return &sma
}

// CalculateSMA calculates the Simple Moving Average of the last length prices
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}
	return last(talib.Sma(closes, length))
}

// TechnicalSnapshot is the latest value of each indicator on a close series
type TechnicalSnapshot struct {
	LastClose float64  `json:"last_close"`
	RSI14     *float64 `json:"rsi_14"`
	SMA20     *float64 `json:"sma_20"`
	SMA50     *float64 `json:"sma_50"`
	EMA200    *float64 `json:"ema_200"`
}

// CalculateTechnicalSnapshot computes RSI(14), SMA(20), SMA(50) and EMA(200)
func CalculateTechnicalSnapshot(closes []float64) *TechnicalSnapshot {
	if len(closes) == 0 {
		return nil
	}
	return &TechnicalSnapshot{
		LastClose: closes[len(closes)-1],
		RSI14:     CalculateRSI(closes, 14),
		SMA20:     CalculateSMA(closes, 20),
		SMA50:     CalculateSMA(closes, 50),
		EMA200:    CalculateEMA(closes, 200),
	}
}

func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MovingAverageSeries returns the SMA(length) at every point of closes.
// The first length-1 points, where talib has no value yet, hold the running
// mean of the closes seen so far.
func MovingAverageSeries(closes []float64, length int) []float64 {
	if len(closes) == 0 || length <= 0 {
		return nil
	}

	out := make([]float64, len(closes))
	warm := length - 1
	if warm > len(closes) {
		warm = len(closes)
	}

	sum := 0.0
	for i := 0; i < warm; i++ {
		sum += closes[i]
		out[i] = sum / float64(i+1)
	}
	if len(closes) < length {
		return out
	}

	copy(out[warm:], talib.Sma(closes, length)[warm:])
	return out
}
