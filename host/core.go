package host

import (
	"fmt"

	"github.com/emblab/usbhost/pkg"
)

// registeredDriver pairs a matcher with the factory that builds driver
// instances for interfaces it selects.
type registeredDriver struct {
	matcher Matcher
	factory DriverFactory
}

// Core is the controller-facing surface of the dispatch layer. The
// controller layer reports device attachment, detachment, and raw
// transfer results; the core keeps canonical attachment state, parses
// configuration descriptors, binds drivers to interfaces, and routes
// classified outcomes to them.
//
// All entry points must be invoked from the controller's single poll or
// interrupt loop. The core performs no locking and no blocking waits;
// correctness depends on attach-before-bind and release-before-free
// ordering, which confinement to one execution context preserves.
type Core struct {
	registry *AddressRegistry
	model    *TransferErrorModel
	table    *DriverDispatchTable
	arena    *Arena
	policy   Policy
	stats    Stats

	drivers []registeredDriver
}

// NewCore creates a dispatch core with the given policy. An invalid
// policy falls back to [DefaultPolicy] after logging the rejection.
func NewCore(policy Policy) *Core {
	if err := policy.Validate(); err != nil {
		pkg.LogWarn(pkg.ComponentCore, "rejecting policy, using defaults", "error", err)
		policy = DefaultPolicy()
	}

	c := &Core{
		registry: NewAddressRegistry(),
		model:    NewTransferErrorModel(policy),
		arena:    NewArena(policy.ArenaCapacity),
		policy:   policy,
	}
	c.table = NewDriverDispatchTable(c.registry, c.model, &c.stats)
	c.registry.SetReleaseHook(c.table.RemoveDevice)
	return c
}

// Registry returns the address registry, the sole authority on
// attachment state.
func (c *Core) Registry() *AddressRegistry {
	return c.registry
}

// Table returns the driver dispatch table, for controllers that bind
// drivers explicitly rather than through registered matchers.
func (c *Core) Table() *DriverDispatchTable {
	return c.table
}

// Policy returns the policy the core was built with.
func (c *Core) Policy() Policy {
	return c.policy
}

// Stats returns a snapshot of the core's event counters.
func (c *Core) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// RegisterDriver installs a driver factory for interfaces selected by
// the matcher. On attachment each parsed interface is offered to the
// registered factories in registration order; the first factory to
// return a driver is bound.
func (c *Core) RegisterDriver(m Matcher, f DriverFactory) {
	c.drivers = append(c.drivers, registeredDriver{matcher: m, factory: f})
}

// AllocateAddress claims the next free device address for a controller
// about to issue SET_ADDRESS during enumeration.
func (c *Core) AllocateAddress() (DeviceAddress, error) {
	return c.registry.Allocate()
}

// DeviceAttached records a newly enumerated device and binds drivers to
// its interfaces. The configuration bytes are the device's full
// configuration descriptor set as read by the controller layer.
//
// The enumeration arena is reset before parsing, so records from the
// previous pass are invalidated here. A parse failure aborts only this
// device: the claim taken by this call is released again and every
// other attached device is unaffected. An address the controller
// pre-claimed through [Core.AllocateAddress] is reused here and, on
// parse failure, left to the controller to release.
func (c *Core) DeviceAttached(addr DeviceAddress, configBytes []byte) error {
	claimed := false
	if !c.registry.IsAttached(addr) {
		if err := c.registry.Claim(addr); err != nil {
			return err
		}
		claimed = true
	}

	c.arena.Reset()
	cfg, err := ParseConfiguration(configBytes, c.arena)
	if err != nil {
		c.stats.parseFailures.Add(1)
		if claimed {
			c.registry.Release(addr)
		}
		pkg.LogWarn(pkg.ComponentCore, "enumeration aborted",
			"address", addr, "error", err)
		return fmt.Errorf("device %d: %w", addr, err)
	}

	for i := range cfg.Interfaces {
		iface := &cfg.Interfaces[i]
		if err := c.bindMatching(addr, i, iface); err != nil {
			// Binding failures isolate to one interface; keep going.
			pkg.LogWarn(pkg.ComponentCore, "interface bind failed",
				"address", addr, "interface", i, "error", err)
		}
	}

	c.stats.devicesAttached.Add(1)
	pkg.LogInfo(pkg.ComponentCore, "device attached",
		"address", addr,
		"interfaces", len(cfg.Interfaces))
	return nil
}

// bindMatching offers one interface to the registered factories.
func (c *Core) bindMatching(addr DeviceAddress, ifaceIdx int, iface *Interface) error {
	for _, reg := range c.drivers {
		if !reg.matcher.Matches(iface) {
			continue
		}
		drv := reg.factory(addr, iface)
		if drv == nil {
			continue
		}
		return c.table.Bind(addr, ifaceIdx, iface, drv)
	}
	pkg.LogDebug(pkg.ComponentCore, "no driver for interface",
		"address", addr,
		"interface", ifaceIdx,
		"class", ClassName(iface.Class))
	return nil
}

// DeviceDetached records an informative removal. Drivers bound to the
// device are notified through the registry's release hook before the
// address is freed; pending retry state for the address is discarded
// rather than retried. Detachment of an unknown address is a no-op.
func (c *Core) DeviceDetached(addr DeviceAddress) {
	if !c.registry.IsAttached(addr) {
		return
	}
	c.registry.Release(addr)
	c.stats.devicesDetached.Add(1)
}

// TransferResult feeds one raw transaction outcome from the controller
// into the error model and dispatch table. Outcomes for addresses no
// longer attached are discarded silently: device removal cancels all
// pending transfers to it.
func (c *Core) TransferResult(addr DeviceAddress, epAddr uint8, outcome TransferOutcome, data []byte) {
	if !c.registry.IsAttached(addr) {
		c.stats.orphanOutcomes.Add(1)
		pkg.LogDebug(pkg.ComponentCore, "outcome for released address",
			"address", addr, "endpoint", epAddr, "outcome", outcome)
		return
	}
	c.table.DispatchOutcome(addr, epAddr, outcome, data)
}
