package forecast

import (
	"fmt"

	"tidecast/internal/signal"
)

// Bins defines the six-bucket partition around the reference price. Edges
// are fractional offsets: with ModerateEdge=0.05 and LargeEdge=0.10 a
// sample 7% above reference lands in the moderate-rise bucket.
type Bins struct {
	ModerateEdge float64
	LargeEdge    float64
}

// Distribution is the raw six-bucket sample count. Samples exactly at the
// reference price fall in none of the directional buckets.
type Distribution struct {
	SmallRise       int
	ModerateRise    int
	LargeRise       int
	SmallDecline    int
	ModerateDecline int
	LargeDecline    int
	Unchanged       int
}

// Total returns the number of partitioned samples.
func (d Distribution) Total() int {
	return d.SmallRise + d.ModerateRise + d.LargeRise +
		d.SmallDecline + d.ModerateDecline + d.LargeDecline + d.Unchanged
}

// Partition buckets each sample by its fractional change from the reference
// price. Pure and deterministic; works for a single sample and for
// zero-variance sample sets.
func Partition(samples []float64, refPrice float64, bins Bins) (Distribution, error) {
	var d Distribution
	if len(samples) == 0 {
		return d, fmt.Errorf("%w: empty sample set", ErrInvalidInput)
	}
	if refPrice <= 0 {
		return d, fmt.Errorf("%w: reference price must be positive, got %v", ErrInvalidInput, refPrice)
	}

	for _, s := range samples {
		change := (s - refPrice) / refPrice
		switch {
		case change > bins.LargeEdge:
			d.LargeRise++
		case change > bins.ModerateEdge:
			d.ModerateRise++
		case change > 0:
			d.SmallRise++
		case change == 0:
			d.Unchanged++
		case change >= -bins.ModerateEdge:
			d.SmallDecline++
		case change >= -bins.LargeEdge:
			d.ModerateDecline++
		default:
			d.LargeDecline++
		}
	}
	return d, nil
}

// Summary converts bucket counts to the four directional probabilities the
// classifier consumes.
func (d Distribution) Summary() signal.Summary {
	n := float64(d.Total())
	if n == 0 {
		return signal.Summary{}
	}
	return signal.Summary{
		PUp:           float64(d.SmallRise+d.ModerateRise+d.LargeRise) / n,
		PUpModerate:   float64(d.ModerateRise+d.LargeRise) / n,
		PDown:         float64(d.SmallDecline+d.ModerateDecline+d.LargeDecline) / n,
		PDownModerate: float64(d.ModerateDecline+d.LargeDecline) / n,
	}
}

// Summarize is the one-step form: partition then reduce.
func Summarize(samples []float64, refPrice float64, bins Bins) (signal.Summary, error) {
	d, err := Partition(samples, refPrice, bins)
	if err != nil {
		return signal.Summary{}, err
	}
	return d.Summary(), nil
}
