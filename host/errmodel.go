package host

import (
	"fmt"

	"github.com/emblab/usbhost/pkg"
)

// Verdict is the driver-facing classification of a transfer failure.
type Verdict uint8

// Verdict values.
const (
	VerdictRetry     Verdict = iota // The operation may be retried
	VerdictPermanent                // Retrying cannot fix this
)

// String returns "retry" or "permanent".
func (v Verdict) String() string {
	if v == VerdictPermanent {
		return "permanent"
	}
	return "retry"
}

// DriverError is the classified error surfaced to a bound driver. It
// carries the originating transaction outcome along with the device and
// interface it arose on, so the fine-grained bus detail survives the
// Retry/Permanent boundary.
type DriverError struct {
	Verdict   Verdict
	Outcome   TransferOutcome
	Address   DeviceAddress
	Interface uint8
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	return fmt.Sprintf("%s error on device %d interface %d: %s",
		e.Verdict, e.Address, e.Interface, e.Outcome)
}

// Unwrap returns the sentinel error for the originating outcome, so
// callers can classify with errors.Is.
func (e *DriverError) Unwrap() error {
	return e.Outcome.Err()
}

// Disposition is the error model's resolution of one observed outcome.
type Disposition uint8

// Disposition values form the transaction state machine: a pending
// transaction completes, keeps retrying within budget, or fails.
const (
	DispositionCompleted Disposition = iota // Deliver data to the driver
	DispositionRetrying                     // Still in flight; controller retries
	DispositionFailed                       // Deliver a permanent error
)

// String returns a string representation of the disposition.
func (d Disposition) String() string {
	switch d {
	case DispositionCompleted:
		return "completed"
	case DispositionRetrying:
		return "retrying"
	case DispositionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// txnState tracks retry budgets for one in-flight transaction.
type txnState struct {
	nakCount     uint8
	timeoutCount uint8
}

// TransferErrorModel classifies transaction outcomes and drives the
// per-transaction retry and escalation state machine. Transactions are
// keyed by (device address, endpoint address); successive outcomes for
// the same key accrue against that transaction's retry budgets until it
// completes or fails.
//
// Classification policy:
//   - Stall fails immediately. A stall is a protocol-level device fault
//     that retrying cannot fix.
//   - Nak retries up to the NAK budget, then fails.
//   - Timeout retries like Nak but against a separate, shorter budget,
//     since timeouts usually indicate transient bus contention.
//   - BusError fails immediately. These indicate host-controller level
//     corruption, not device behavior, and are escalated without local
//     retry.
//   - Success completes the transaction and clears its accrued budgets.
//
// Like the rest of the core, the model is confined to the controller's
// event loop and performs no locking.
type TransferErrorModel struct {
	nakLimit     int
	timeoutLimit int

	// Transactions indexed by address and a 5-bit endpoint slot
	// (number plus direction).
	txns [MaxAddress + 1][32]txnState
}

// NewTransferErrorModel creates a model with the given policy's retry
// budgets.
func NewTransferErrorModel(p Policy) *TransferErrorModel {
	return &TransferErrorModel{
		nakLimit:     p.NakRetryLimit,
		timeoutLimit: p.TimeoutRetryLimit,
	}
}

// epSlot folds an endpoint address into a dense index: number in the low
// four bits, direction in the fifth.
func epSlot(epAddr uint8) int {
	return int(epAddr&0x0F) | int(epAddr>>3)&0x10
}

// Observe feeds one transaction outcome into the state machine and
// returns its disposition.
func (m *TransferErrorModel) Observe(addr DeviceAddress, epAddr uint8, outcome TransferOutcome) Disposition {
	if addr > MaxAddress {
		return DispositionFailed
	}
	st := &m.txns[addr][epSlot(epAddr)]

	switch outcome {
	case OutcomeSuccess:
		*st = txnState{}
		return DispositionCompleted

	case OutcomeNak:
		st.nakCount++
		if int(st.nakCount) >= m.nakLimit {
			*st = txnState{}
			return DispositionFailed
		}
		pkg.LogDebug(pkg.ComponentTransfer, "transaction retrying",
			"address", addr, "endpoint", epAddr,
			"outcome", outcome, "naks", st.nakCount)
		return DispositionRetrying

	case OutcomeTimeout:
		st.timeoutCount++
		if int(st.timeoutCount) >= m.timeoutLimit {
			*st = txnState{}
			return DispositionFailed
		}
		pkg.LogDebug(pkg.ComponentTransfer, "transaction retrying",
			"address", addr, "endpoint", epAddr,
			"outcome", outcome, "timeouts", st.timeoutCount)
		return DispositionRetrying

	default: // Stall, BusError
		*st = txnState{}
		return DispositionFailed
	}
}

// DiscardDevice drops all transaction state for an address. Device
// removal cancels every pending transfer addressed to it; a retrying
// transaction for a released address is discarded, not retried.
func (m *TransferErrorModel) DiscardDevice(addr DeviceAddress) {
	if addr > MaxAddress {
		return
	}
	m.txns[addr] = [32]txnState{}
}
