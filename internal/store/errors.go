package store

import "errors"

var (
	// ErrNotFound means the referenced account or link does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness constraint rejected the write. Callers
	// treat it as "already done", never as a hard failure.
	ErrConflict = errors.New("record already exists")
	// ErrExhaustedRetries means code generation kept colliding past the
	// retry budget.
	ErrExhaustedRetries = errors.New("code generation retries exhausted")
)
