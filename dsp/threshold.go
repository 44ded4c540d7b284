package dsp

import "gonum.org/v1/gonum/stat"

// AutoThreshold derives a threshold from the noise statistics of a sample
// run: mean minus k standard deviations for negative polarity, mean plus k
// for positive. A k of 4-5 sits comfortably above thermal noise for
// typical extracellular recordings.
func AutoThreshold(samples []float64, k float64, pol Polarity) float64 {
	mean, std := stat.MeanStdDev(samples, nil)
	if pol == Positive {
		return mean + k*std
	}
	return mean - k*std
}
