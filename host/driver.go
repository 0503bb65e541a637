package host

// Driver is the capability set an interface-level driver implements.
// Drivers are bound to one functional interface of a device rather than
// the whole device, and each bound instance is notified independently of
// every other binding in the dispatch table.
//
// All callbacks run synchronously on the controller's event loop and
// must not block.
type Driver interface {
	// InterfaceAttached is called once at bind time with the parsed
	// interface record. The record borrows enumeration storage: drivers
	// must copy anything they need (endpoint addresses, class-specific
	// descriptor bytes) before returning. A non-nil error rejects the
	// binding.
	InterfaceAttached(iface *Interface) error

	// TransferComplete delivers the data of a successful transfer on
	// one of the interface's endpoints.
	TransferComplete(ep *Endpoint, data []byte)

	// TransferError delivers a classified transfer failure. The error's
	// verdict distinguishes retryable conditions from permanent ones,
	// and its outcome preserves the originating bus-level result.
	TransferError(ep *Endpoint, err *DriverError)

	// DeviceRemoved is informative: the device is already gone and no
	// further communication with it is possible or attempted.
	DeviceRemoved()
}

// Diagnostic is an optional capability a driver may implement to enrich
// dispatch-table logging. The table queries it defensively; drivers are
// never required to expose a printable representation.
type Diagnostic interface {
	DriverInfo() string
}

// driverInfo returns the driver's self-description if it offers one.
func driverInfo(d Driver) string {
	if diag, ok := d.(Diagnostic); ok {
		return diag.DriverInfo()
	}
	return ""
}

// MatchAny is the wildcard value for Matcher fields.
const MatchAny = 0xFF

// Matcher selects interfaces by their class/subclass/protocol triple.
// A field set to [MatchAny] matches any value.
type Matcher struct {
	Class    uint8
	SubClass uint8
	Protocol uint8
}

// MatchClass returns a matcher for a class code, any subclass, any
// protocol.
func MatchClass(class uint8) Matcher {
	return Matcher{Class: class, SubClass: MatchAny, Protocol: MatchAny}
}

// Matches reports whether the interface satisfies the matcher.
func (m Matcher) Matches(iface *Interface) bool {
	if m.Class != MatchAny && m.Class != iface.Class {
		return false
	}
	if m.SubClass != MatchAny && m.SubClass != iface.SubClass {
		return false
	}
	if m.Protocol != MatchAny && m.Protocol != iface.Protocol {
		return false
	}
	return true
}

// DriverFactory constructs a driver instance for a matched interface.
// The interface record borrows enumeration storage, as with
// [Driver.InterfaceAttached]. Returning nil declines the interface.
type DriverFactory func(addr DeviceAddress, iface *Interface) Driver
