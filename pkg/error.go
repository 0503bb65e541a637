package pkg

import "errors"

// Bus-level transfer errors. Controller layers map hardware completion
// codes onto these sentinels; the dispatch core exposes them through
// driver-facing errors via Unwrap.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrNAK indicates a NAK response (device busy).
	ErrNAK = errors.New("NAK received")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrBusError indicates host-controller level corruption (CRC, bit
	// stuffing, babble).
	ErrBusError = errors.New("bus error")

	// ErrCancelled indicates a transfer cancelled by device removal.
	ErrCancelled = errors.New("transfer cancelled")
)

// Address registry errors.
var (
	// ErrAddressExhausted indicates no free device address in [1,127].
	ErrAddressExhausted = errors.New("address space exhausted")

	// ErrAddressInUse indicates the requested address is already attached.
	ErrAddressInUse = errors.New("address already in use")

	// ErrInvalidAddress indicates an address outside [1,127].
	ErrInvalidAddress = errors.New("invalid device address")
)

// Configuration descriptor parse errors.
var (
	// ErrDescriptorTruncated indicates a declared descriptor length that
	// would read past the end of the buffer.
	ErrDescriptorTruncated = errors.New("descriptor truncated")

	// ErrDescriptorOversized indicates a descriptor set exceeding the
	// enumeration arena capacity.
	ErrDescriptorOversized = errors.New("descriptor set exceeds arena capacity")

	// ErrDescriptorMalformed indicates a descriptor ordering or framing
	// violation (e.g. an endpoint descriptor before any interface).
	ErrDescriptorMalformed = errors.New("descriptor malformed")
)

// Driver dispatch errors.
var (
	// ErrAlreadyBound indicates the interface already has a bound driver.
	ErrAlreadyBound = errors.New("interface already bound")

	// ErrNotAttached indicates the device address is not attached.
	ErrNotAttached = errors.New("device not attached")

	// ErrInvalidInterface indicates an interface index outside the
	// table's range.
	ErrInvalidInterface = errors.New("invalid interface index")
)

// ErrInvalidPolicy indicates an out-of-range policy parameter.
var ErrInvalidPolicy = errors.New("invalid policy parameter")
