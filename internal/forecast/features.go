package forecast

import "fmt"

// Window builds the model input from recent closing prices of the tracked
// asset and an optional reference asset (featureDim 2 interleaves both,
// featureDim 1 uses the primary series alone). Every value is divided by
// refPrice so the window is on the model's reference scale. The newest
// price is last.
func Window(primary, reference []float64, seqLen, featureDim int, refPrice float64) ([]float32, error) {
	if refPrice <= 0 {
		return nil, fmt.Errorf("%w: reference price must be positive, got %v", ErrInvalidInput, refPrice)
	}
	if len(primary) < seqLen {
		return nil, fmt.Errorf("%w: need %d primary closes, have %d", ErrInvalidInput, seqLen, len(primary))
	}
	if featureDim > 1 && len(reference) < seqLen {
		return nil, fmt.Errorf("%w: need %d reference closes, have %d", ErrInvalidInput, seqLen, len(reference))
	}

	// The reference asset is scaled by its own latest close so both series
	// sit near 1.0 regardless of absolute price levels.
	refScale := 1.0
	if featureDim > 1 {
		refScale = reference[len(reference)-1]
		if refScale <= 0 {
			return nil, fmt.Errorf("%w: non-positive reference asset close", ErrInvalidInput)
		}
	}

	window := make([]float32, 0, seqLen*featureDim)
	pOff := len(primary) - seqLen
	rOff := len(reference) - seqLen
	for i := 0; i < seqLen; i++ {
		window = append(window, float32(primary[pOff+i]/refPrice))
		if featureDim > 1 {
			window = append(window, float32(reference[rOff+i]/refScale))
		}
	}
	return window, nil
}
