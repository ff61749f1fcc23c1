package audiolevel

// DefaultThreshold is the mean byte level above which a frame is loud.
const DefaultThreshold = 10.0

// WaveThresholds are the levels at which each additional animation wave
// is shown.
var WaveThresholds = [3]float64{15, 20, 25}

// Intensity returns how many wave thresholds level exceeds, from 0 to 3.
func Intensity(level float64) int {
	n := 0
	for _, t := range WaveThresholds {
		if level > t {
			n++
		}
	}
	return n
}
