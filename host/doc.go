// Package host implements the dispatch core of an embedded USB host
// stack: the authoritative device address registry, the configuration
// descriptor parser, the transfer error taxonomy with its retry policy,
// and the interface-level driver dispatch table.
//
// The host-controller transport layer (DMA, endpoint scheduling, bus
// signaling) is an external collaborator. It feeds the core raw
// descriptor bytes and transfer completion events through [Core] and
// consumes nothing but the [Driver] callbacks the core routes back out.
//
// # Architecture
//
//   - AddressRegistry owns attachment state for addresses in [1,127]
//   - Arena and ParseConfiguration decode descriptor sets without heap
//     allocation, scoped to one enumeration pass
//   - TransferErrorModel classifies transaction outcomes into the
//     retry/escalation state machine
//   - DriverDispatchTable routes outcomes and removal events to bound
//     drivers, isolating faults per interface
//   - Core ties these together behind the controller-facing surface
//
// # Execution model
//
// The core runs single-threaded on the controller's poll or interrupt
// loop. No entry point blocks, and none takes a lock: mutation ordering
// (attach before bind, release before free) is part of the correctness
// contract, preserved by confining all calls to one execution context.
// A multi-core port must keep registry and table mutations confined to
// one serialized task rather than introducing fine-grained locks.
//
// # Fault isolation
//
// One faulty peripheral never starves the bus. Parse failures abort only
// the failing device's enumeration, permanent transfer errors deactivate
// only the interface they arose on, and removal notifications are
// delivered independently per interface. Only resource exhaustion
// (address space, arena capacity) is surfaced as an operator-level
// warning, and never as a shutdown.
//
// # Example
//
//	core := host.NewCore(host.DefaultPolicy())
//	core.RegisterDriver(host.MatchClass(host.ClassHID), newKeyboardDriver)
//
//	// Controller event loop:
//	core.DeviceAttached(addr, configBytes)
//	core.TransferResult(addr, 0x81, host.OutcomeSuccess, report)
//	core.DeviceDetached(addr)
package host
