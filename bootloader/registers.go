package bootloader

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-vscp/protocol"
)

// StandardRegisters is a snapshot of the page independent registers
// 0x80-0xFF of a node.
type StandardRegisters struct {
	raw [protocol.StandardRegistersCount]byte
}

// NewStandardRegisters wraps a 128 byte register dump.
func NewStandardRegisters(raw []byte) (*StandardRegisters, error) {
	if len(raw) != protocol.StandardRegistersCount {
		return nil, fmt.Errorf("%w: standard registers need %d bytes, got %d",
			ErrParameter, protocol.StandardRegistersCount, len(raw))
	}
	r := &StandardRegisters{}
	copy(r.raw[:], raw)
	return r, nil
}

// Get returns the value of a standard register (0x80-0xFF).
func (r *StandardRegisters) Get(reg byte) byte {
	if reg < protocol.StandardRegistersStart {
		return 0
	}
	return r.raw[reg-protocol.StandardRegistersStart]
}

func (r *StandardRegisters) slice(reg byte, n int) []byte {
	off := int(reg) - protocol.StandardRegistersStart
	return r.raw[off : off+n]
}

func (r *StandardRegisters) AlarmStatus() byte { return r.Get(protocol.RegAlarmStatus) }

func (r *StandardRegisters) VSCPVersion() (major, minor byte) {
	return r.Get(protocol.RegVSCPMajorVersion), r.Get(protocol.RegVSCPMinorVersion)
}

func (r *StandardRegisters) NodeControl() byte { return r.Get(protocol.RegNodeControl) }

func (r *StandardRegisters) UserID() []byte {
	return append([]byte(nil), r.slice(protocol.RegUserID, 5)...)
}

func (r *StandardRegisters) ManufacturerID() uint32 {
	return binary.BigEndian.Uint32(r.slice(protocol.RegManufacturerID, 4))
}

func (r *StandardRegisters) ManufacturerSubID() uint32 {
	return binary.BigEndian.Uint32(r.slice(protocol.RegManufacturerSubID, 4))
}

func (r *StandardRegisters) Nickname() byte { return r.Get(protocol.RegNickname) }

// Page is the currently selected register page.
func (r *StandardRegisters) Page() uint16 {
	return binary.BigEndian.Uint16(r.slice(protocol.RegPageSelectMSB, 2))
}

// FirmwareVersion formats the running firmware version as major.minor.sub.
func (r *StandardRegisters) FirmwareVersion() string {
	return fmt.Sprintf("%d.%d.%d", r.Get(protocol.RegFirmwareMajor),
		r.Get(protocol.RegFirmwareMinor), r.Get(protocol.RegFirmwareSubMinor))
}

// BootloaderAlgorithm identifies the bootloader the node implements.
func (r *StandardRegisters) BootloaderAlgorithm() byte {
	return r.Get(protocol.RegBootloaderAlgorithm)
}

func (r *StandardRegisters) BufferSize() byte { return r.Get(protocol.RegBufferSize) }

func (r *StandardRegisters) StdDeviceFamily() uint32 {
	return binary.BigEndian.Uint32(r.slice(protocol.RegStdDeviceFamily, 4))
}

func (r *StandardRegisters) StdDeviceType() uint32 {
	return binary.BigEndian.Uint32(r.slice(protocol.RegStdDeviceType, 4))
}

// FirmwareDeviceCode identifies the hardware the running firmware targets.
func (r *StandardRegisters) FirmwareDeviceCode() uint16 {
	return binary.BigEndian.Uint16(r.slice(protocol.RegFirmwareCodeMSB, 2))
}

func (r *StandardRegisters) GUID() protocol.GUID {
	var g protocol.GUID
	copy(g[:], r.slice(protocol.RegGUID, protocol.GUIDSize))
	return g
}

// MDFURL returns the module description file URL without the scheme,
// as stored by the node.
func (r *StandardRegisters) MDFURL() string {
	b := r.slice(protocol.RegMDFURL, 32)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
