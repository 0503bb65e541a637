package host

import (
	"fmt"

	"github.com/emblab/usbhost/pkg"
)

// Configuration is the parsed form of one configuration descriptor set.
// Its interface records and raw bytes borrow arena storage; they are
// valid only until the arena is reset for the next enumeration pass.
type Configuration struct {
	TotalLength   uint16
	NumInterfaces uint8
	Value         uint8
	Attributes    uint8
	MaxPower      uint8

	// Interfaces holds the parsed interface records in declaration
	// order. Alternate settings appear as separate records.
	Interfaces []Interface

	// Raw is the full descriptor set as copied into the arena.
	Raw []byte
}

// Interface is one parsed interface descriptor and its endpoints.
type Interface struct {
	Number      uint8
	AltSetting  uint8
	Class       uint8
	SubClass    uint8
	Protocol    uint8
	StringIndex uint8

	// Endpoints in declaration order. Borrowed from arena storage.
	Endpoints []Endpoint

	// Extra holds the class-specific descriptors immediately following
	// the interface descriptor (HID descriptors, CDC functional
	// descriptors, and the like), raw and length-prefixed. Borrowed
	// from arena storage.
	Extra []byte
}

// Endpoint is one parsed endpoint descriptor. Immutable after parsing
// except for the data toggle bits, which the controller layer maintains
// across transfers.
type Endpoint struct {
	Address       uint8  // Endpoint address including direction bit
	Attributes    uint8  // Transfer type and sync/usage flags
	MaxPacketSize uint16 // Maximum packet size
	Interval      uint8  // Polling interval for interrupt/isochronous

	inToggle  bool
	outToggle bool
}

// Number returns the endpoint number (0-15).
func (e *Endpoint) Number() uint8 {
	return e.Address & 0x0F
}

// Direction returns the endpoint direction.
func (e *Endpoint) Direction() Direction {
	if e.Address&0x80 != 0 {
		return DirectionIn
	}
	return DirectionOut
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e *Endpoint) IsIn() bool {
	return e.Address&0x80 != 0
}

// TransferType returns the transfer type encoded in the attributes.
func (e *Endpoint) TransferType() TransferType {
	return TransferType(e.Attributes & 0x03)
}

// InToggle returns the data toggle for the next IN transfer.
func (e *Endpoint) InToggle() bool {
	return e.inToggle
}

// SetInToggle updates the data toggle for the next IN transfer.
func (e *Endpoint) SetInToggle(t bool) {
	e.inToggle = t
}

// OutToggle returns the data toggle for the next OUT transfer.
func (e *Endpoint) OutToggle() bool {
	return e.outToggle
}

// SetOutToggle updates the data toggle for the next OUT transfer.
func (e *Endpoint) SetOutToggle(t bool) {
	e.outToggle = t
}

// ParseConfiguration decodes a raw configuration descriptor set into
// interface and endpoint records backed by the arena.
//
// The walk consumes length-prefixed sub-descriptors, classifying each by
// its type byte. Interface descriptors open a new record, endpoint
// descriptors append to the open record, and unrecognized descriptor
// types are skipped by their declared length so that class-specific
// extensions never cause a rejection.
//
// Failure modes:
//   - [pkg.ErrDescriptorOversized]: the descriptor set does not fit the
//     arena, or overruns its record stores.
//   - [pkg.ErrDescriptorTruncated]: a declared length reads past the end
//     of the buffer.
//   - [pkg.ErrDescriptorMalformed]: framing or ordering violations, such
//     as an endpoint descriptor before any interface descriptor.
//
// The returned Configuration borrows the arena and is invalidated by the
// next [Arena.Reset].
func ParseConfiguration(data []byte, arena *Arena) (Configuration, error) {
	var cfg Configuration

	raw, ok := arena.copyIn(data)
	if !ok {
		return cfg, fmt.Errorf("%w: %d bytes, capacity %d",
			pkg.ErrDescriptorOversized, len(data), arena.Capacity())
	}

	if len(raw) < ConfigurationDescriptorSize {
		return cfg, fmt.Errorf("%w: %d byte header", pkg.ErrDescriptorTruncated, len(raw))
	}
	if raw[1] != DescriptorTypeConfiguration {
		return cfg, fmt.Errorf("%w: descriptor type 0x%02X is not a configuration",
			pkg.ErrDescriptorMalformed, raw[1])
	}
	headerLen := int(raw[0])
	if headerLen < ConfigurationDescriptorSize {
		return cfg, fmt.Errorf("%w: configuration header length %d",
			pkg.ErrDescriptorMalformed, headerLen)
	}

	cfg.TotalLength = getUint16(raw[2:])
	cfg.NumInterfaces = raw[4]
	cfg.Value = raw[5]
	cfg.Attributes = raw[7]
	cfg.MaxPower = raw[8]
	cfg.Raw = raw

	end := int(cfg.TotalLength)
	if end > len(raw) {
		return cfg, fmt.Errorf("%w: total length %d exceeds %d bytes provided",
			pkg.ErrDescriptorTruncated, end, len(raw))
	}

	ifaceStart := arena.ifaceCount

	var (
		current    *Interface // open interface record
		epStart    int        // arena endpoint index when current opened
		extraStart int        // start offset of current's extra run
		extraEnd   int        // end offset of current's contiguous extra run
	)

	closeCurrent := func() {
		if current != nil {
			current.Endpoints = arena.endpointsFrom(epStart)
		}
	}

	offset := headerLen
	for offset < end {
		if offset+2 > end {
			return cfg, fmt.Errorf("%w: dangling descriptor header at offset %d",
				pkg.ErrDescriptorTruncated, offset)
		}
		length := int(raw[offset])
		descType := raw[offset+1]
		if length < 2 {
			return cfg, fmt.Errorf("%w: descriptor length %d at offset %d",
				pkg.ErrDescriptorMalformed, length, offset)
		}
		if offset+length > end {
			return cfg, fmt.Errorf("%w: descriptor of %d bytes at offset %d reads past end %d",
				pkg.ErrDescriptorTruncated, length, offset, end)
		}

		switch descType {
		case DescriptorTypeInterface:
			if length < InterfaceDescriptorSize {
				return cfg, fmt.Errorf("%w: interface descriptor length %d",
					pkg.ErrDescriptorMalformed, length)
			}
			closeCurrent()
			current = arena.newInterface()
			if current == nil {
				return cfg, fmt.Errorf("%w: more than %d interfaces",
					pkg.ErrDescriptorOversized, MaxInterfacesPerDevice)
			}
			current.Number = raw[offset+2]
			current.AltSetting = raw[offset+3]
			current.Class = raw[offset+5]
			current.SubClass = raw[offset+6]
			current.Protocol = raw[offset+7]
			current.StringIndex = raw[offset+8]
			epStart = arena.epCount
			extraStart = offset + length
			extraEnd = offset + length

		case DescriptorTypeEndpoint:
			if current == nil {
				return cfg, fmt.Errorf("%w: endpoint descriptor at offset %d before any interface",
					pkg.ErrDescriptorMalformed, offset)
			}
			if length < EndpointDescriptorSize {
				return cfg, fmt.Errorf("%w: endpoint descriptor length %d",
					pkg.ErrDescriptorMalformed, length)
			}
			if arena.epCount-epStart >= MaxEndpointsPerInterface {
				return cfg, fmt.Errorf("%w: more than %d endpoints on interface %d",
					pkg.ErrDescriptorMalformed, MaxEndpointsPerInterface, current.Number)
			}
			ep := arena.newEndpoint()
			if ep == nil {
				return cfg, fmt.Errorf("%w: more than %d endpoints",
					pkg.ErrDescriptorOversized, MaxEndpointsPerDevice)
			}
			ep.Address = raw[offset+2]
			ep.Attributes = raw[offset+3]
			ep.MaxPacketSize = getUint16(raw[offset+4:])
			ep.Interval = raw[offset+6]

		default:
			// Class-specific or unknown: skip by declared length. A
			// contiguous run following the interface descriptor is
			// retained as that interface's extra bytes.
			if current != nil && offset == extraEnd {
				extraEnd = offset + length
				current.Extra = raw[extraStart:extraEnd]
			}
			pkg.LogDebug(pkg.ComponentParser, "skipping descriptor",
				"type", descType, "length", length, "offset", offset)
		}

		offset += length
	}

	closeCurrent()
	cfg.Interfaces = arena.interfacesFrom(ifaceStart)

	pkg.LogDebug(pkg.ComponentParser, "configuration parsed",
		"interfaces", len(cfg.Interfaces),
		"bytes", len(raw))
	return cfg, nil
}
