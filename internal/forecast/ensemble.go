package forecast

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"tidecast/internal/config"
)

// Forecaster is the trained sequence model, treated as a black box. The
// input window is reference-scaled (each value divided by the current
// price), and the prediction is the model's next-price estimate on the
// same scale, so multiplying by the reference price recovers currency.
type Forecaster interface {
	Predict(window []float32) (float64, error)
	Close() error
}

// ForecastFunc adapts a plain function to the Forecaster interface.
type ForecastFunc func(window []float32) (float64, error)

func (f ForecastFunc) Predict(window []float32) (float64, error) { return f(window) }

func (f ForecastFunc) Close() error { return nil }

// RandomWalk is the model-free fallback: it projects the most recent scaled
// price forward unchanged, leaving all spread to the ensemble jitter.
type RandomWalk struct{}

func (RandomWalk) Predict(window []float32) (float64, error) {
	if len(window) == 0 {
		return 0, fmt.Errorf("%w: empty feature window", ErrInvalidInput)
	}
	return float64(window[len(window)-1]), nil
}

func (RandomWalk) Close() error { return nil }

// Ensemble produces N sampled future prices by repeatedly perturbing the
// model input with gaussian noise and jittering the output in proportion
// to the reference price. Randomness is injected so runs are reproducible
// under a fixed seed.
type Ensemble struct {
	model      Forecaster
	samples    int
	inputNoise float64
	jitterPct  float64
	rng        *rand.Rand
}

func NewEnsemble(model Forecaster, cfg config.ForecastConfig, rng *rand.Rand) *Ensemble {
	return &Ensemble{
		model:      model,
		samples:    cfg.Samples,
		inputNoise: cfg.InputNoise,
		jitterPct:  cfg.PriceJitterPct,
		rng:        rng,
	}
}

// Sample runs the model e.samples times against noisy copies of window and
// returns the projected prices in currency terms.
func (e *Ensemble) Sample(window []float32, refPrice float64) ([]float64, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: empty feature window", ErrInvalidInput)
	}
	if refPrice <= 0 {
		return nil, fmt.Errorf("%w: reference price must be positive, got %v", ErrInvalidInput, refPrice)
	}

	noisy := make([]float32, len(window))
	volatility := refPrice * e.jitterPct

	prices := make([]float64, 0, e.samples)
	for i := 0; i < e.samples; i++ {
		for j, v := range window {
			noisy[j] = v + float32(e.rng.NormFloat64()*e.inputNoise)
		}

		scaled, err := e.model.Predict(noisy)
		if err != nil {
			return nil, fmt.Errorf("model prediction %d/%d: %w", i+1, e.samples, err)
		}

		price := scaled*refPrice + e.rng.NormFloat64()*volatility
		prices = append(prices, price)
	}
	return prices, nil
}

// Stats returns the ensemble mean and standard deviation.
func Stats(samples []float64) (mean, std float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	mean = stat.Mean(samples, nil)
	if len(samples) > 1 {
		std = stat.StdDev(samples, nil)
	}
	return mean, std
}
