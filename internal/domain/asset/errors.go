package asset

import "errors"

// Sentinel error kinds for asset resolution.
var (
	ErrNotFound = errors.New("asset not found")
	ErrStorage  = errors.New("asset storage failure")
)
