package forecast

import "errors"

// ErrInvalidInput covers malformed summarizer and ensemble inputs: empty
// sample sets, non-positive reference prices, short feature windows.
var ErrInvalidInput = errors.New("invalid forecast input")
