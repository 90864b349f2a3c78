package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("key not found")
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrCorrupt      = errors.New("corrupt stored value")
)
