package host

import (
	"fmt"

	"github.com/emblab/usbhost/pkg"
)

// binding is one (device, interface) slot in the dispatch table. It
// keeps durable copies of the interface identity and endpoint records so
// that dispatch never touches enumeration storage after the arena is
// reset for the next device.
type binding struct {
	driver Driver
	active bool

	ifaceNumber uint8
	class       uint8
	subClass    uint8
	protocol    uint8

	endpoints [MaxEndpointsPerInterface]Endpoint
	epCount   int
}

func (b *binding) bound() bool {
	return b.driver != nil
}

// adopt copies the parsed record's identity and endpoints out of
// enumeration storage. Data toggles start cleared.
func (b *binding) adopt(iface *Interface) {
	b.ifaceNumber = iface.Number
	b.class = iface.Class
	b.subClass = iface.SubClass
	b.protocol = iface.Protocol
	b.epCount = copy(b.endpoints[:], iface.Endpoints)
	for i := 0; i < b.epCount; i++ {
		b.endpoints[i].SetInToggle(false)
		b.endpoints[i].SetOutToggle(false)
	}
}

// endpoint returns the durable record for an endpoint address, or nil.
func (b *binding) endpoint(epAddr uint8) *Endpoint {
	for i := 0; i < b.epCount; i++ {
		if b.endpoints[i].Address == epAddr {
			return &b.endpoints[i]
		}
	}
	return nil
}

// deviceEntry holds the bindings of one attached device. Allocated on
// first bind, dropped on removal.
type deviceEntry struct {
	interfaces [MaxInterfacesPerDevice]binding
}

// DriverDispatchTable maps each active (device, interface) pair to its
// bound driver and routes transfer outcomes and removal events to it,
// in isolation from every other binding: a permanent failure or removal
// on one interface never blocks or aborts processing for any other
// interface or device.
//
// Attachment state is owned by the [AddressRegistry]; the table only
// queries it. All methods run on the controller's event loop.
type DriverDispatchTable struct {
	registry *AddressRegistry
	model    *TransferErrorModel
	stats    *Stats

	devices [MaxAddress + 1]*deviceEntry
}

// NewDriverDispatchTable creates a table routing through the given
// registry and error model.
func NewDriverDispatchTable(registry *AddressRegistry, model *TransferErrorModel, stats *Stats) *DriverDispatchTable {
	return &DriverDispatchTable{
		registry: registry,
		model:    model,
		stats:    stats,
	}
}

// Bind attaches a driver to one interface of an attached device. The
// driver's InterfaceAttached callback runs before the binding is
// recorded; a callback error rejects the binding.
//
// Fails with [pkg.ErrNotAttached] if the address is not attached,
// [pkg.ErrInvalidInterface] if the index is out of range, and
// [pkg.ErrAlreadyBound] if the interface already has a driver.
func (t *DriverDispatchTable) Bind(addr DeviceAddress, ifaceIdx int, iface *Interface, drv Driver) error {
	if !t.registry.IsAttached(addr) {
		return fmt.Errorf("%w: address %d", pkg.ErrNotAttached, addr)
	}
	if ifaceIdx < 0 || ifaceIdx >= MaxInterfacesPerDevice {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidInterface, ifaceIdx)
	}

	entry := t.devices[addr]
	if entry == nil {
		entry = &deviceEntry{}
		t.devices[addr] = entry
	}
	b := &entry.interfaces[ifaceIdx]
	if b.bound() {
		return fmt.Errorf("%w: device %d interface %d", pkg.ErrAlreadyBound, addr, ifaceIdx)
	}

	if err := drv.InterfaceAttached(iface); err != nil {
		return fmt.Errorf("driver rejected device %d interface %d: %w", addr, ifaceIdx, err)
	}

	b.adopt(iface)
	b.driver = drv
	b.active = true

	pkg.LogInfo(pkg.ComponentDispatch, "driver bound",
		"address", addr,
		"interface", ifaceIdx,
		"class", ClassName(b.class),
		"driver", driverInfo(drv))
	return nil
}

// Bound reports whether the interface slot has a bound driver.
func (t *DriverDispatchTable) Bound(addr DeviceAddress, ifaceIdx int) bool {
	entry := t.devices[addr]
	if entry == nil || ifaceIdx < 0 || ifaceIdx >= MaxInterfacesPerDevice {
		return false
	}
	return entry.interfaces[ifaceIdx].bound()
}

// Active reports whether the interface slot is bound and not deactivated
// by a permanent failure.
func (t *DriverDispatchTable) Active(addr DeviceAddress, ifaceIdx int) bool {
	entry := t.devices[addr]
	if entry == nil || ifaceIdx < 0 || ifaceIdx >= MaxInterfacesPerDevice {
		return false
	}
	b := &entry.interfaces[ifaceIdx]
	return b.bound() && b.active
}

// DispatchOutcome routes one transaction outcome through the error model
// and into the driver bound to the endpoint's interface. Outcomes for
// unknown endpoints or deactivated interfaces are counted and dropped.
func (t *DriverDispatchTable) DispatchOutcome(addr DeviceAddress, epAddr uint8, outcome TransferOutcome, data []byte) {
	entry := t.devices[addr]
	if entry == nil {
		t.stats.orphanOutcomes.Add(1)
		pkg.LogDebug(pkg.ComponentDispatch, "outcome for unknown device",
			"address", addr, "endpoint", epAddr, "outcome", outcome)
		return
	}

	for i := range entry.interfaces {
		b := &entry.interfaces[i]
		if !b.bound() {
			continue
		}
		ep := b.endpoint(epAddr)
		if ep == nil {
			continue
		}
		if !b.active {
			pkg.LogDebug(pkg.ComponentDispatch, "outcome for deactivated interface",
				"address", addr, "interface", i, "outcome", outcome)
			return
		}
		t.resolve(addr, i, b, ep, outcome, data)
		return
	}

	t.stats.orphanOutcomes.Add(1)
	pkg.LogDebug(pkg.ComponentDispatch, "outcome for unbound endpoint",
		"address", addr, "endpoint", epAddr, "outcome", outcome)
}

// resolve applies the error model's disposition for one binding.
func (t *DriverDispatchTable) resolve(addr DeviceAddress, ifaceIdx int, b *binding, ep *Endpoint, outcome TransferOutcome, data []byte) {
	switch t.model.Observe(addr, ep.Address, outcome) {
	case DispositionCompleted:
		t.stats.completions.Add(1)
		b.driver.TransferComplete(ep, data)

	case DispositionRetrying:
		// Still in flight; the controller resubmits. The driver is not
		// notified until the transaction resolves.
		t.stats.retries.Add(1)

	case DispositionFailed:
		t.stats.permanentFailures.Add(1)
		derr := &DriverError{
			Verdict:   VerdictPermanent,
			Outcome:   outcome,
			Address:   addr,
			Interface: b.ifaceNumber,
		}
		pkg.LogWarn(pkg.ComponentDispatch, "interface deactivated",
			"address", addr,
			"interface", ifaceIdx,
			"outcome", outcome,
			"driver", driverInfo(b.driver))
		b.active = false
		b.driver.TransferError(ep, derr)
	}
}

// RemoveDevice delivers the informative removal notification to every
// driver bound to the device's interfaces, then unbinds them and drops
// all transaction state for the address. Each interface is processed
// independently; the loop never aborts early.
//
// This runs from the registry's release hook, while the registry still
// reports the address attached.
func (t *DriverDispatchTable) RemoveDevice(addr DeviceAddress) {
	entry := t.devices[addr]
	if entry != nil {
		for i := range entry.interfaces {
			b := &entry.interfaces[i]
			if !b.bound() {
				continue
			}
			pkg.LogInfo(pkg.ComponentDispatch, "notifying driver of removal",
				"address", addr,
				"interface", i,
				"driver", driverInfo(b.driver))
			b.driver.DeviceRemoved()
			*b = binding{}
		}
		t.devices[addr] = nil
	}
	t.model.DiscardDevice(addr)
}
