package builder

import "errors"

// Sentinel errors reported to the operator. Both are advisory: the builder's
// state is unchanged when they occur.
var (
	ErrNoTableSelected   = errors.New("no table selected")
	ErrTooManyConditions = errors.New("condition limit reached")
)
