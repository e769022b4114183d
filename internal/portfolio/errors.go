package portfolio

import "errors"

var (
	// ErrInvalidPrice rejects a tick with a non-positive price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrStaleTick rejects a tick whose timestamp precedes the last
	// accepted tick.
	ErrStaleTick = errors.New("tick timestamp before last tick")

	// ErrInsufficientCapital is a defensive check; the sizer's cash clamp
	// makes it unreachable unless sizing is bypassed.
	ErrInsufficientCapital = errors.New("insufficient capital")
)
