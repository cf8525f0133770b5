package metrics

import (
	"errors"
)

// Sentinel kinds for metric recording errors.
var (
	ErrObserveFailed = errors.New("metrics observe failed")
)
