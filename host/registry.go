package host

import (
	"github.com/emblab/usbhost/pkg"
)

// DeviceAddress is a USB device address in [1,127]. Zero is reserved for
// the default state during enumeration and is never attached.
type DeviceAddress uint8

// AddressRegistry is the single source of truth for which device
// addresses are attached to the bus. No other component keeps an address
// list; the dispatch table and core query the registry.
//
// All methods must be called from the controller's event loop. The
// registry is not safe for concurrent use; attachment mutation order is
// part of the correctness contract and is preserved by confining all
// calls to one execution context.
type AddressRegistry struct {
	attached [MaxAddress + 1]bool
	count    int
	next     DeviceAddress

	// onRelease runs for an attached address before its slot is freed,
	// so removal notifications observe the address as still attached.
	onRelease func(DeviceAddress)
}

// NewAddressRegistry creates an empty registry.
func NewAddressRegistry() *AddressRegistry {
	return &AddressRegistry{next: 1}
}

// SetReleaseHook installs the callback invoked when an attached address
// is released. The dispatch table uses this to deliver informative
// removal notifications to bound drivers.
func (r *AddressRegistry) SetReleaseHook(fn func(DeviceAddress)) {
	r.onRelease = fn
}

// Allocate claims the next free address, scanning round-robin from the
// most recently assigned slot. Returns [pkg.ErrAddressExhausted] when
// every address in [1,127] is attached.
func (r *AddressRegistry) Allocate() (DeviceAddress, error) {
	for i := 0; i < MaxAddress; i++ {
		addr := r.next
		r.next++
		if r.next > MaxAddress {
			r.next = 1
		}
		if !r.attached[addr] {
			r.attached[addr] = true
			r.count++
			pkg.LogDebug(pkg.ComponentRegistry, "address allocated", "address", addr)
			return addr, nil
		}
	}
	pkg.LogWarn(pkg.ComponentRegistry, "address space exhausted")
	return 0, pkg.ErrAddressExhausted
}

// Claim marks a specific address as attached. Controllers that assign
// addresses themselves (SET_ADDRESS issued at the transport layer) report
// attachment with the address already chosen; Claim records it.
func (r *AddressRegistry) Claim(addr DeviceAddress) error {
	if addr == 0 || addr > MaxAddress {
		return pkg.ErrInvalidAddress
	}
	if r.attached[addr] {
		return pkg.ErrAddressInUse
	}
	r.attached[addr] = true
	r.count++
	pkg.LogDebug(pkg.ComponentRegistry, "address claimed", "address", addr)
	return nil
}

// Release frees an address. Releasing an address that is not attached is
// a no-op: removal is informative, and the controller may report a
// detachment the core has already reacted to.
//
// For an attached address the release hook runs first, then the slot is
// freed.
func (r *AddressRegistry) Release(addr DeviceAddress) {
	if addr == 0 || addr > MaxAddress || !r.attached[addr] {
		return
	}
	if r.onRelease != nil {
		r.onRelease(addr)
	}
	r.attached[addr] = false
	r.count--
	pkg.LogDebug(pkg.ComponentRegistry, "address released", "address", addr)
}

// IsAttached reports whether addr is currently attached.
func (r *AddressRegistry) IsAttached(addr DeviceAddress) bool {
	if addr == 0 || addr > MaxAddress {
		return false
	}
	return r.attached[addr]
}

// Count returns the number of attached addresses.
func (r *AddressRegistry) Count() int {
	return r.count
}
