package host

import "sync/atomic"

// Stats holds monotonic event counters for the dispatch core. Counters
// are updated with atomics so an operator path on another goroutine can
// snapshot them while the event loop runs.
type Stats struct {
	devicesAttached   atomic.Uint64
	devicesDetached   atomic.Uint64
	parseFailures     atomic.Uint64
	completions       atomic.Uint64
	retries           atomic.Uint64
	permanentFailures atomic.Uint64
	orphanOutcomes    atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	DevicesAttached   uint64 // Devices successfully attached and parsed
	DevicesDetached   uint64 // Devices released
	ParseFailures     uint64 // Enumerations aborted by descriptor errors
	Completions       uint64 // Transfer completions delivered to drivers
	Retries           uint64 // Outcomes absorbed by the retry budgets
	PermanentFailures uint64 // Permanent errors delivered to drivers
	OrphanOutcomes    uint64 // Outcomes with no attached device or binding
}

// Snapshot returns a copy of the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		DevicesAttached:   s.devicesAttached.Load(),
		DevicesDetached:   s.devicesDetached.Load(),
		ParseFailures:     s.parseFailures.Load(),
		Completions:       s.completions.Load(),
		Retries:           s.retries.Load(),
		PermanentFailures: s.permanentFailures.Load(),
		OrphanOutcomes:    s.orphanOutcomes.Load(),
	}
}
