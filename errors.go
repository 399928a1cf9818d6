package argon2crack

import "errors"

var (
	// ErrInvalidHash reports an encoded hash the decoder cannot parse:
	// unknown prefix, malformed fields or out-of-range parameters.
	ErrInvalidHash = errors.New("argon2crack: malformed argon2 hash")

	// ErrUnsupportedVersion reports an argon2 version 0x10 hash. Only
	// version 0x13 is supported.
	ErrUnsupportedVersion = errors.New("argon2crack: argon2 version 0x10 not supported")

	// ErrTagTooShort reports a decoded tag below the 8-byte acceptance
	// threshold.
	ErrTagTooShort = errors.New("argon2crack: tag shorter than 8 bytes")

	// ErrBadGeometry reports an autotuned geometry that violates the
	// work-group invariants. This is a configuration bug, not user input.
	ErrBadGeometry = errors.New("argon2crack: invalid kernel geometry")

	// ErrOutOfDeviceMemory reports that the planner halved the batch
	// width down to zero without a successful scratch allocation.
	ErrOutOfDeviceMemory = errors.New("argon2crack: cannot fit scratch buffer in device memory")

	// ErrNotPlanned reports pipeline use before Reset sized the buffers.
	ErrNotPlanned = errors.New("argon2crack: memory planner has not run")

	// ErrNotTuned reports a crypt over a salt whose kernel geometry was
	// never measured; Reset must see every salt before it is used.
	ErrNotTuned = errors.New("argon2crack: salt has no autotuned geometry")

	// ErrClosed reports use of an engine after Close.
	ErrClosed = errors.New("argon2crack: engine is closed")
)
