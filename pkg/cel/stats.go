package cel

import "math"

// MaxIntensity is the largest valid spot intensity; values are 16-bit scanner counts.
const MaxIntensity = 65535

// IntensityStats summarises the per-spot intensity values of one array.
type IntensityStats struct {
	Min     float32
	Max     float32
	Unique  int
	Invalid int
}

// ComputeIntensityStats reduces values in a single pass. Values outside
// [0, MaxIntensity] (and NaN) are counted as invalid and ignored otherwise.
// Unique counts distinct rounded integer values, not distinct floats.
func ComputeIntensityStats(values []float32) IntensityStats {
	var (
		seen  [MaxIntensity + 1]bool
		stats = IntensityStats{Min: MaxIntensity + 1, Max: -1}
	)
	for _, v := range values {
		if v < 0 || v > MaxIntensity || v != v {
			stats.Invalid++
			continue
		}
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		bin := int(math.Round(float64(v)))
		if !seen[bin] {
			seen[bin] = true
			stats.Unique++
		}
	}
	if stats.Invalid == len(values) {
		return IntensityStats{Invalid: stats.Invalid}
	}
	return stats
}
