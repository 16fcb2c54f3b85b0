package assetstore

import "errors"

// Sentinel error kinds for store construction.
var (
	ErrUnknownStrategy = errors.New("unknown asset strategy")
	ErrInvalidStore    = errors.New("invalid asset store")
)
