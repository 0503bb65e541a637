package host

import "fmt"

// Descriptor types (USB 2.0 §9.4, table 9-5).
const (
	DescriptorTypeDevice               = 0x01
	DescriptorTypeConfiguration        = 0x02
	DescriptorTypeString               = 0x03
	DescriptorTypeInterface            = 0x04
	DescriptorTypeEndpoint             = 0x05
	DescriptorTypeDeviceQualifier      = 0x06
	DescriptorTypeOtherSpeedConfig     = 0x07
	DescriptorTypeInterfacePower       = 0x08
	DescriptorTypeOTG                  = 0x09
	DescriptorTypeDebug                = 0x0A
	DescriptorTypeInterfaceAssociation = 0x0B
)

// Standard descriptor sizes.
const (
	// ConfigurationDescriptorSize is the size of a configuration
	// descriptor header.
	ConfigurationDescriptorSize = 9

	// InterfaceDescriptorSize is the size of an interface descriptor.
	InterfaceDescriptorSize = 9

	// EndpointDescriptorSize is the size of an endpoint descriptor.
	EndpointDescriptorSize = 7
)

// Structural limits for fixed-size storage.
const (
	// MaxAddress is the highest valid device address on the bus.
	MaxAddress = 127

	// MaxInterfacesPerDevice is the maximum interface records parsed from
	// one configuration.
	MaxInterfacesPerDevice = 8

	// MaxEndpointsPerDevice is the maximum endpoint records parsed from
	// one configuration, across all its interfaces.
	MaxEndpointsPerDevice = 32

	// MaxEndpointsPerInterface is the maximum endpoints one interface
	// may declare.
	MaxEndpointsPerInterface = 16
)

// Interface class codes (USB-IF assigned).
const (
	ClassAudio       = 0x01
	ClassCDC         = 0x02
	ClassHID         = 0x03
	ClassPrinter     = 0x07
	ClassMassStorage = 0x08
	ClassHub         = 0x09
	ClassCDCData     = 0x0A
	ClassVideo       = 0x0E
	ClassVendor      = 0xFF
)

// ClassName returns a human-readable name for an interface class code.
func ClassName(class uint8) string {
	switch class {
	case ClassAudio:
		return "Audio"
	case ClassCDC:
		return "CDC Control"
	case ClassHID:
		return "HID"
	case ClassPrinter:
		return "Printer"
	case ClassMassStorage:
		return "Mass Storage"
	case ClassHub:
		return "Hub"
	case ClassCDCData:
		return "CDC Data"
	case ClassVideo:
		return "Video"
	case ClassVendor:
		return "Vendor Specific"
	default:
		return fmt.Sprintf("Class 0x%02X", class)
	}
}

// TransferType indicates the type of USB transfer an endpoint uses.
type TransferType uint8

// Transfer type constants (USB 2.0 §9.6.6).
const (
	TransferControl     TransferType = 0 // Control transfer
	TransferIsochronous TransferType = 1 // Isochronous transfer
	TransferBulk        TransferType = 2 // Bulk transfer
	TransferInterrupt   TransferType = 3 // Interrupt transfer
)

// String returns a human-readable transfer type name.
func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferIsochronous:
		return "isochronous"
	case TransferBulk:
		return "bulk"
	case TransferInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// Direction indicates the direction of an endpoint.
type Direction uint8

// Endpoint directions.
const (
	DirectionOut Direction = 0 // Host to device
	DirectionIn  Direction = 1 // Device to host
)

// String returns "IN" or "OUT".
func (d Direction) String() string {
	if d == DirectionIn {
		return "IN"
	}
	return "OUT"
}

// getUint16 decodes a little-endian 16-bit field.
func getUint16(data []byte) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}
