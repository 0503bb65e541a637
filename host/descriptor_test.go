package host

import (
	"bytes"
	"errors"
	"testing"

	"github.com/emblab/usbhost/pkg"
)

// =============================================================================
// Descriptor fixtures
// =============================================================================

// configSet assembles a configuration descriptor set from parts and
// patches the total length field.
func configSet(numInterfaces uint8, parts ...[]byte) []byte {
	buf := []byte{
		9, DescriptorTypeConfiguration,
		0, 0, // TotalLength, patched below
		numInterfaces,
		1,    // ConfigurationValue
		0,    // ConfigurationIndex
		0x80, // Attributes
		50,   // MaxPower
	}
	for _, p := range parts {
		buf = append(buf, p...)
	}
	buf[2] = byte(len(buf))
	buf[3] = byte(len(buf) >> 8)
	return buf
}

func ifaceDesc(num, alt, numEndpoints, class, subClass, protocol uint8) []byte {
	return []byte{9, DescriptorTypeInterface, num, alt, numEndpoints, class, subClass, protocol, 0}
}

func epDesc(addr, attrs uint8, maxPacket uint16, interval uint8) []byte {
	return []byte{7, DescriptorTypeEndpoint, addr, attrs, byte(maxPacket), byte(maxPacket >> 8), interval}
}

// hidDesc is a class-specific HID descriptor (type 0x21).
func hidDesc(reportLen uint16) []byte {
	return []byte{9, 0x21, 0x11, 0x01, 0x00, 0x01, 0x22, byte(reportLen), byte(reportLen >> 8)}
}

// =============================================================================
// Parsing
// =============================================================================

func TestParseConfiguration_RoundTrip(t *testing.T) {
	data := configSet(2,
		ifaceDesc(0, 0, 1, ClassHID, 0x01, 0x01),
		epDesc(0x81, 0x03, 8, 10),
		ifaceDesc(1, 0, 2, ClassMassStorage, 0x06, 0x50),
		epDesc(0x82, 0x02, 64, 0),
		epDesc(0x02, 0x02, 64, 0),
	)

	arena := NewArena(512)
	cfg, err := ParseConfiguration(data, arena)
	if err != nil {
		t.Fatalf("ParseConfiguration() error: %v", err)
	}

	if cfg.Value != 1 {
		t.Errorf("Value = %d, want 1", cfg.Value)
	}
	if cfg.NumInterfaces != 2 {
		t.Errorf("NumInterfaces = %d, want 2", cfg.NumInterfaces)
	}
	if len(cfg.Interfaces) != 2 {
		t.Fatalf("len(Interfaces) = %d, want 2", len(cfg.Interfaces))
	}

	total := 0
	for i := range cfg.Interfaces {
		total += len(cfg.Interfaces[i].Endpoints)
	}
	if total != 3 {
		t.Errorf("total endpoints = %d, want 3", total)
	}

	hid := &cfg.Interfaces[0]
	if hid.Number != 0 || hid.Class != ClassHID || hid.SubClass != 0x01 || hid.Protocol != 0x01 {
		t.Errorf("interface 0 = %+v, want HID boot keyboard triple", hid)
	}
	if len(hid.Endpoints) != 1 {
		t.Fatalf("interface 0 endpoints = %d, want 1", len(hid.Endpoints))
	}
	ep := &hid.Endpoints[0]
	if ep.Address != 0x81 || !ep.IsIn() || ep.Number() != 1 {
		t.Errorf("endpoint = %+v, want IN endpoint 1", ep)
	}
	if ep.TransferType() != TransferInterrupt {
		t.Errorf("TransferType() = %v, want interrupt", ep.TransferType())
	}
	if ep.MaxPacketSize != 8 || ep.Interval != 10 {
		t.Errorf("endpoint packet/interval = %d/%d, want 8/10", ep.MaxPacketSize, ep.Interval)
	}

	msc := &cfg.Interfaces[1]
	if msc.Number != 1 || msc.Class != ClassMassStorage {
		t.Errorf("interface 1 = %+v, want mass storage", msc)
	}
	if len(msc.Endpoints) != 2 {
		t.Fatalf("interface 1 endpoints = %d, want 2", len(msc.Endpoints))
	}
	if msc.Endpoints[0].Address != 0x82 || msc.Endpoints[1].Address != 0x02 {
		t.Errorf("interface 1 endpoint order = 0x%02X, 0x%02X, want 0x82, 0x02",
			msc.Endpoints[0].Address, msc.Endpoints[1].Address)
	}
	if msc.Endpoints[0].Direction() != DirectionIn || msc.Endpoints[1].Direction() != DirectionOut {
		t.Error("interface 1 endpoint directions wrong")
	}
}

func TestParseConfiguration_SkipsUnknownDescriptors(t *testing.T) {
	hd := hidDesc(63)
	data := configSet(1,
		ifaceDesc(0, 0, 1, ClassHID, 0, 0),
		hd,
		epDesc(0x81, 0x03, 8, 10),
	)

	arena := NewArena(512)
	cfg, err := ParseConfiguration(data, arena)
	if err != nil {
		t.Fatalf("ParseConfiguration() error: %v", err)
	}
	if len(cfg.Interfaces) != 1 {
		t.Fatalf("len(Interfaces) = %d, want 1", len(cfg.Interfaces))
	}
	iface := &cfg.Interfaces[0]
	if len(iface.Endpoints) != 1 {
		t.Errorf("endpoints = %d, want 1 past the class descriptor", len(iface.Endpoints))
	}
	if !bytes.Equal(iface.Extra, hd) {
		t.Errorf("Extra = % X, want the HID descriptor % X", iface.Extra, hd)
	}
}

func TestParseConfiguration_Truncated(t *testing.T) {
	t.Run("declared length past buffer", func(t *testing.T) {
		data := configSet(1,
			ifaceDesc(0, 0, 1, ClassHID, 0, 0),
			epDesc(0x81, 0x03, 8, 10),
		)
		// Chop the final endpoint bytes but leave its 7-byte length claim.
		data = data[:len(data)-3]
		data[2] = byte(len(data))
		data[3] = byte(len(data) >> 8)

		_, err := ParseConfiguration(data, NewArena(512))
		if !errors.Is(err, pkg.ErrDescriptorTruncated) {
			t.Errorf("ParseConfiguration() = %v, want ErrDescriptorTruncated", err)
		}
	})

	t.Run("total length exceeds buffer", func(t *testing.T) {
		data := configSet(1, ifaceDesc(0, 0, 0, ClassVendor, 0, 0))
		data[2] = byte(len(data) + 10)

		_, err := ParseConfiguration(data, NewArena(512))
		if !errors.Is(err, pkg.ErrDescriptorTruncated) {
			t.Errorf("ParseConfiguration() = %v, want ErrDescriptorTruncated", err)
		}
	})

	t.Run("short header", func(t *testing.T) {
		_, err := ParseConfiguration([]byte{9, DescriptorTypeConfiguration, 25}, NewArena(512))
		if !errors.Is(err, pkg.ErrDescriptorTruncated) {
			t.Errorf("ParseConfiguration() = %v, want ErrDescriptorTruncated", err)
		}
	})
}

func TestParseConfiguration_Oversized(t *testing.T) {
	data := configSet(1,
		ifaceDesc(0, 0, 1, ClassHID, 0, 0),
		epDesc(0x81, 0x03, 8, 10),
	)

	arena := NewArena(len(data) - 1)
	_, err := ParseConfiguration(data, arena)
	if !errors.Is(err, pkg.ErrDescriptorOversized) {
		t.Errorf("ParseConfiguration() = %v, want ErrDescriptorOversized", err)
	}

	// The same bytes fit a large enough arena.
	if _, err := ParseConfiguration(data, NewArena(len(data))); err != nil {
		t.Errorf("ParseConfiguration() with exact capacity error: %v", err)
	}
}

func TestParseConfiguration_Malformed(t *testing.T) {
	t.Run("endpoint before interface", func(t *testing.T) {
		data := configSet(1,
			epDesc(0x81, 0x03, 8, 10),
			ifaceDesc(0, 0, 1, ClassHID, 0, 0),
		)
		_, err := ParseConfiguration(data, NewArena(512))
		if !errors.Is(err, pkg.ErrDescriptorMalformed) {
			t.Errorf("ParseConfiguration() = %v, want ErrDescriptorMalformed", err)
		}
	})

	t.Run("wrong header type", func(t *testing.T) {
		data := configSet(1)
		data[1] = DescriptorTypeDevice
		_, err := ParseConfiguration(data, NewArena(512))
		if !errors.Is(err, pkg.ErrDescriptorMalformed) {
			t.Errorf("ParseConfiguration() = %v, want ErrDescriptorMalformed", err)
		}
	})

	t.Run("zero length descriptor", func(t *testing.T) {
		data := configSet(1, []byte{0, 0x04})
		_, err := ParseConfiguration(data, NewArena(512))
		if !errors.Is(err, pkg.ErrDescriptorMalformed) {
			t.Errorf("ParseConfiguration() = %v, want ErrDescriptorMalformed", err)
		}
	})
}

func TestParseConfiguration_AlternateSettings(t *testing.T) {
	data := configSet(1,
		ifaceDesc(0, 0, 0, ClassAudio, 0x02, 0),
		ifaceDesc(0, 1, 1, ClassAudio, 0x02, 0),
		epDesc(0x01, 0x01, 192, 1),
	)

	cfg, err := ParseConfiguration(data, NewArena(512))
	if err != nil {
		t.Fatalf("ParseConfiguration() error: %v", err)
	}
	if len(cfg.Interfaces) != 2 {
		t.Fatalf("len(Interfaces) = %d, want 2 records for alt settings", len(cfg.Interfaces))
	}
	if cfg.Interfaces[0].AltSetting != 0 || len(cfg.Interfaces[0].Endpoints) != 0 {
		t.Errorf("alt 0 = %+v, want zero endpoints", cfg.Interfaces[0])
	}
	if cfg.Interfaces[1].AltSetting != 1 || len(cfg.Interfaces[1].Endpoints) != 1 {
		t.Errorf("alt 1 = %+v, want one endpoint", cfg.Interfaces[1])
	}
}

// =============================================================================
// Arena
// =============================================================================

func TestArena_Reset(t *testing.T) {
	arena := NewArena(256)

	first := configSet(1, ifaceDesc(0, 0, 0, ClassHID, 0, 0))
	if _, err := ParseConfiguration(first, arena); err != nil {
		t.Fatalf("first ParseConfiguration() error: %v", err)
	}
	if arena.Len() != len(first) {
		t.Errorf("Len() = %d after parse, want %d", arena.Len(), len(first))
	}

	arena.Reset()
	if arena.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", arena.Len())
	}

	second := configSet(1,
		ifaceDesc(0, 0, 1, ClassVendor, 0x42, 0x17),
		epDesc(0x83, 0x02, 64, 0),
	)
	cfg, err := ParseConfiguration(second, arena)
	if err != nil {
		t.Fatalf("second ParseConfiguration() error: %v", err)
	}
	if len(cfg.Interfaces) != 1 || cfg.Interfaces[0].Class != ClassVendor {
		t.Errorf("second parse = %+v, want the vendor interface", cfg.Interfaces)
	}
}

func TestArena_CapacityAccountsAcrossParses(t *testing.T) {
	arena := NewArena(64)

	data := configSet(1, ifaceDesc(0, 0, 0, ClassHID, 0, 0))
	if _, err := ParseConfiguration(data, arena); err != nil {
		t.Fatalf("ParseConfiguration() error: %v", err)
	}

	// Without a reset the arena fills up.
	for i := 0; i < 8; i++ {
		if _, err := ParseConfiguration(data, arena); err != nil {
			if !errors.Is(err, pkg.ErrDescriptorOversized) {
				t.Fatalf("ParseConfiguration() = %v, want ErrDescriptorOversized", err)
			}
			return
		}
	}
	t.Error("arena never reported exhaustion without Reset")
}
