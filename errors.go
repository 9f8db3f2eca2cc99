package maglev

import "errors"

var (
	// ErrInvalidTableSize is returned by New() when table size is not prime.
	ErrInvalidTableSize = errors.New("maglev: table size must be prime")

	// ErrDuplicateBackend is returned when backend is already on the table.
	ErrDuplicateBackend = errors.New("maglev: backend already exists")

	// ErrBackendNotFound is returned when backend does not exist on the table.
	ErrBackendNotFound = errors.New("maglev: backend doesn't exist")

	// ErrTooManyBackends is returned when number of backends exceeds table
	// size, so the table can not be populated.
	ErrTooManyBackends = errors.New("maglev: too many backends")

	// ErrIndexOutOfRange is returned by Lookup() for slot indices outside of
	// [0, Size()).
	ErrIndexOutOfRange = errors.New("maglev: slot index out of range")

	// ErrEmptyTable is returned by Lookup() when there are no backends.
	ErrEmptyTable = errors.New("maglev: table is empty")
)
