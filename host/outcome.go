package host

import "github.com/emblab/usbhost/pkg"

// TransferOutcome is the transaction-level result reported by the
// controller layer for one transfer.
type TransferOutcome uint8

// Transfer outcome values.
const (
	OutcomeSuccess  TransferOutcome = iota // Transfer completed successfully
	OutcomeStall                           // Endpoint stalled
	OutcomeNak                             // NAK received (device busy)
	OutcomeTimeout                         // Transfer timed out
	OutcomeBusError                        // Host-controller level error
)

// String returns a string representation of the outcome.
func (o TransferOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeStall:
		return "stall"
	case OutcomeNak:
		return "nak"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeBusError:
		return "bus error"
	default:
		return "unknown"
	}
}

// Err returns the corresponding sentinel error for the outcome, or nil
// for success.
func (o TransferOutcome) Err() error {
	switch o {
	case OutcomeSuccess:
		return nil
	case OutcomeStall:
		return pkg.ErrStall
	case OutcomeNak:
		return pkg.ErrNAK
	case OutcomeTimeout:
		return pkg.ErrTimeout
	case OutcomeBusError:
		return pkg.ErrBusError
	default:
		return pkg.ErrBusError
	}
}
