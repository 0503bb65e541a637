package host

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emblab/usbhost/pkg"
)

// Policy holds the tunable parameters of the dispatch core. The right
// values depend on the target hardware: retry budgets track how noisy
// the bus is, and the arena capacity bounds the largest configuration
// descriptor set a device may present (choose it generously enough for
// real class descriptors such as HID report descriptors).
//
// Policies load from YAML so a target can ship its tuning in a file:
//
//	nak_retry_limit: 8
//	timeout_retry_limit: 3
//	arena_capacity: 1024
type Policy struct {
	// NakRetryLimit is the number of consecutive NAK outcomes on one
	// transaction before it fails permanently.
	NakRetryLimit int `yaml:"nak_retry_limit"`

	// TimeoutRetryLimit is the number of consecutive timeout outcomes
	// on one transaction before it fails permanently. Kept shorter than
	// the NAK budget: timeouts usually indicate bus contention.
	TimeoutRetryLimit int `yaml:"timeout_retry_limit"`

	// ArenaCapacity is the enumeration arena size in bytes.
	ArenaCapacity int `yaml:"arena_capacity"`
}

// DefaultPolicy returns conservative defaults suitable for full-speed
// devices with moderate class descriptors.
func DefaultPolicy() Policy {
	return Policy{
		NakRetryLimit:     8,
		TimeoutRetryLimit: 3,
		ArenaCapacity:     1024,
	}
}

// Validate checks that every parameter is finite and in range.
func (p Policy) Validate() error {
	if p.NakRetryLimit < 1 || p.NakRetryLimit > 255 {
		return fmt.Errorf("%w: nak_retry_limit %d not in [1,255]",
			pkg.ErrInvalidPolicy, p.NakRetryLimit)
	}
	if p.TimeoutRetryLimit < 1 || p.TimeoutRetryLimit > 255 {
		return fmt.Errorf("%w: timeout_retry_limit %d not in [1,255]",
			pkg.ErrInvalidPolicy, p.TimeoutRetryLimit)
	}
	if p.ArenaCapacity < ConfigurationDescriptorSize {
		return fmt.Errorf("%w: arena_capacity %d below minimum %d",
			pkg.ErrInvalidPolicy, p.ArenaCapacity, ConfigurationDescriptorSize)
	}
	return nil
}

// LoadPolicy reads a YAML policy file. Fields absent from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
