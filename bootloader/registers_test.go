package bootloader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-vscp/internal/mockdevice"
	"github.com/moffa90/go-vscp/protocol"
)

func TestStandardRegisters(t *testing.T) {
	raw := make([]byte, 128)
	set := func(reg byte, vals ...byte) { copy(raw[int(reg)-0x80:], vals) }

	set(protocol.RegAlarmStatus, 0x01)
	set(protocol.RegVSCPMajorVersion, 1, 6)
	set(protocol.RegUserID, 1, 2, 3, 4, 5)
	set(protocol.RegManufacturerID, 0x00, 0x00, 0x01, 0x02)
	set(protocol.RegNickname, 0x2A)
	set(protocol.RegPageSelectMSB, 0x01, 0x02)
	set(protocol.RegFirmwareMajor, 2, 0, 11)
	set(protocol.RegBootloaderAlgorithm, protocol.BootAlgorithmPIC1)
	set(protocol.RegFirmwareCodeMSB, 0xBE, 0xEF)
	set(protocol.RegGUID, 0xFF, 0xEE, 0xDD)
	set(protocol.RegMDFURL, []byte("vscp.org/x.mdf")...)

	regs, err := NewStandardRegisters(raw)
	require.NoError(t, err)

	major, minor := regs.VSCPVersion()
	assert.Equal(t, byte(1), major)
	assert.Equal(t, byte(6), minor)
	assert.Equal(t, byte(0x01), regs.AlarmStatus())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, regs.UserID())
	assert.Equal(t, uint32(0x0102), regs.ManufacturerID())
	assert.Equal(t, byte(0x2A), regs.Nickname())
	assert.Equal(t, uint16(0x0102), regs.Page())
	assert.Equal(t, "2.0.11", regs.FirmwareVersion())
	assert.Equal(t, byte(protocol.BootAlgorithmPIC1), regs.BootloaderAlgorithm())
	assert.Equal(t, uint16(0xBEEF), regs.FirmwareDeviceCode())
	assert.Equal(t, protocol.GUID{0xFF, 0xEE, 0xDD}, regs.GUID())
	assert.Equal(t, "vscp.org/x.mdf", regs.MDFURL())
	assert.Equal(t, byte(0), regs.Get(0x10), "registers below 0x80 are not part of the snapshot")
}

func TestNewStandardRegistersSize(t *testing.T) {
	_, err := NewStandardRegisters(make([]byte, 127))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParameter))
}

func TestReadRegisters(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	ctx := testContext(t)

	vals, err := s.ReadRegisters(ctx, 0, protocol.RegGUID, 16)
	require.NoError(t, err)
	g := dev.GUID()
	assert.Equal(t, g[:], vals)

	_, err = s.ReadRegisters(ctx, 0, 0xF0, 32)
	assert.True(t, errors.Is(err, ErrParameter))

	regs, err := s.ReadStandardRegisters(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateRegistersRead, s.State())
	assert.Equal(t, "vscp.org/mdf/mock.xml", regs.MDFURL())
	assert.Equal(t, uint16(0x0001), regs.FirmwareDeviceCode())
}

// frontRunClient delivers extra events ahead of the device's replies.
type frontRunClient struct {
	*mockdevice.Device
	pending []*protocol.Event
	ahead   []*protocol.Event
}

func (c *frontRunClient) Send(ctx context.Context, ev *protocol.Event) error {
	c.ahead = append(c.ahead, c.pending...)
	c.pending = nil
	return c.Device.Send(ctx, ev)
}

func (c *frontRunClient) Receive(ctx context.Context) (*protocol.Event, error) {
	if len(c.ahead) > 0 {
		ev := c.ahead[0]
		c.ahead = c.ahead[1:]
		return ev, nil
	}
	return c.Device.Receive(ctx)
}

func (c *frontRunClient) Count() int {
	return len(c.ahead) + c.Device.Count()
}

func TestReadRegistersIgnoresOtherNodes(t *testing.T) {
	dev := newDevice(t)
	other := dev.GUID().WithNickname(0x01)

	wrongNode, err := protocol.BuildExtendedPageResponseEvent(other, 0, 0, protocol.RegNickname, []byte{0x01})
	require.NoError(t, err)
	wrongPage, err := protocol.BuildExtendedPageResponseEvent(dev.GUID(), 0, 7, protocol.RegNickname, []byte{0x02})
	require.NoError(t, err)
	wrongType := protocol.BuildReplyEvent(dev.GUID(), protocol.TypeRWResponse, []byte{protocol.RegNickname, 0x03})

	client := &frontRunClient{Device: dev, pending: []*protocol.Event{wrongNode, wrongPage, wrongType}}
	s := NewNicknameSession(client, testNickname)

	vals, err := s.ReadRegisters(testContext(t), 0, protocol.RegNickname, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{testNickname}, vals)
	assert.Equal(t, 3, s.Ignored())
}
