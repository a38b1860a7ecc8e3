// Package mockdevice simulates a VSCP node with a VSCP bootloader. It
// satisfies the event client contract used by the bootloader session, so
// tests and examples can run a full firmware load in memory.
package mockdevice

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/moffa90/go-vscp/protocol"
)

// Fault selects how the device misbehaves for a request type.
type Fault int

const (
	// FaultNone answers normally
	FaultNone Fault = iota

	// FaultNack answers with the NACK type
	FaultNack

	// FaultSilent does not answer at all
	FaultSilent
)

// ErrClosed is returned by Send and Receive after Close.
var ErrClosed = errors.New("mock device closed")

// Device is an in-memory VSCP node.
type Device struct {
	mu sync.Mutex

	guid      protocol.GUID
	registers [256]byte
	blockSize uint32
	numBlocks uint32

	inBoot    bool
	block     uint32
	memType   byte
	blockOpen bool
	buffer    []byte

	programmed map[byte]map[uint32][]byte
	crc        uint16
	activated  bool
	chunks     int

	faults       map[uint16]Fault
	crossTraffic int
	requests     []*protocol.Event

	queue  chan *protocol.Event
	closed bool
}

// Option configures a Device.
type Option func(*Device)

// WithGUID sets the node GUID. Its last byte becomes the nickname.
func WithGUID(g protocol.GUID) Option {
	return func(d *Device) { d.guid = g }
}

// WithBlockGeometry sets the block size and block count reported when
// entering the bootloader.
func WithBlockGeometry(blockSize, numBlocks uint32) Option {
	return func(d *Device) {
		d.blockSize = blockSize
		d.numBlocks = numBlocks
	}
}

// WithRegister presets a standard or application register on page 0.
func WithRegister(reg, value byte) Option {
	return func(d *Device) { d.registers[reg] = value }
}

// WithFault makes the device misbehave for requests of the given type.
func WithFault(requestType uint16, f Fault) Option {
	return func(d *Device) { d.faults[requestType] = f }
}

// WithCrossTraffic queues n unrelated events ahead of every reply.
func WithCrossTraffic(n int) Option {
	return func(d *Device) { d.crossTraffic = n }
}

// DefaultGUID is the GUID used when none is given. Nickname 0x2A.
var DefaultGUID = protocol.GUID{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xF5, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x00, 0x2A}

// New creates a device with a VSCP bootloader, firmware device code 0x0001
// and a 64 byte x 512 block geometry.
func New(opts ...Option) *Device {
	d := &Device{
		guid:       DefaultGUID,
		blockSize:  64,
		numBlocks:  512,
		programmed: make(map[byte]map[uint32][]byte),
		faults:     make(map[uint16]Fault),
		queue:      make(chan *protocol.Event, 8192),
		crc:        protocol.CRC16InitialValue,
	}

	d.registers[protocol.RegVSCPMajorVersion] = 1
	d.registers[protocol.RegVSCPMinorVersion] = 13
	d.registers[protocol.RegFirmwareMajor] = 1
	d.registers[protocol.RegFirmwareMinor] = 2
	d.registers[protocol.RegFirmwareSubMinor] = 3
	d.registers[protocol.RegBootloaderAlgorithm] = protocol.BootAlgorithmVSCP
	d.registers[protocol.RegBufferSize] = protocol.MaxDataLevel1
	d.registers[protocol.RegFirmwareCodeMSB] = 0x00
	d.registers[protocol.RegFirmwareCodeLSB] = 0x01
	copy(d.registers[protocol.RegMDFURL:], "vscp.org/mdf/mock.xml")

	for _, opt := range opts {
		opt(d)
	}

	d.registers[protocol.RegNickname] = d.guid.Nickname()
	copy(d.registers[protocol.RegGUID:protocol.RegGUID+protocol.GUIDSize], d.guid[:])
	return d
}

// GUID returns the node GUID.
func (d *Device) GUID() protocol.GUID {
	return d.guid
}

// Send delivers a host event to the device, which queues any replies.
func (d *Device) Send(ctx context.Context, ev *protocol.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	d.requests = append(d.requests, ev.Clone())
	if ev.Class != protocol.ClassProtocol {
		return nil
	}

	switch ev.Type {
	case protocol.TypeExtendedPageRead:
		d.handlePageRead(ev)
	case protocol.TypeEnterBootLoader:
		d.handleEnterBoot(ev)
	case protocol.TypeStartBlock:
		d.handleStartBlock(ev)
	case protocol.TypeBlockData:
		d.handleBlockData(ev)
	case protocol.TypeProgramBlockData:
		d.handleProgramBlock(ev)
	case protocol.TypeActivateNewImage:
		d.handleActivate(ev)
	}
	return nil
}

// Receive returns the next queued reply.
func (d *Device) Receive(ctx context.Context) (*protocol.Event, error) {
	select {
	case ev, ok := <-d.queue:
		if !ok {
			return nil, ErrClosed
		}
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Count returns the number of queued replies.
func (d *Device) Count() int {
	return len(d.queue)
}

// Close stops the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	return nil
}

// Inject queues an arbitrary event as if the bus delivered it.
func (d *Device) Inject(ev *protocol.Event) {
	d.queue <- ev
}

// Requests returns the host events of the given type, or all of them when
// typ is negative.
func (d *Device) Requests(typ int) []*protocol.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*protocol.Event
	for _, ev := range d.requests {
		if typ < 0 || int(ev.Type) == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Programmed returns the committed contents of a block.
func (d *Device) Programmed(memType byte, block uint32) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.programmed[memType][block]
	return b, ok
}

// ProgrammedBlocks returns how many blocks of memType were committed.
func (d *Device) ProgrammedBlocks(memType byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programmed[memType])
}

// Activated reports whether a new image was accepted.
func (d *Device) Activated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activated
}

// CRC returns the CRC-16 over every committed byte, in commit order.
func (d *Device) CRC() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.crc
}

// Chunks returns the number of block data events accepted.
func (d *Device) Chunks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chunks
}

func (d *Device) reply(typ uint16, data []byte) {
	d.noise(typ, data)
	d.queue <- protocol.BuildReplyEvent(d.guid, typ, data)
}

// noise queues the configured cross traffic: the same reply type from
// another node, then a measurement from this one.
func (d *Device) noise(typ uint16, data []byte) {
	other := d.guid.WithNickname(d.guid.Nickname() + 1)
	for i := 0; i < d.crossTraffic; i++ {
		d.queue <- protocol.BuildReplyEvent(other, typ, data)
		d.queue <- protocol.NewEvent(protocol.ClassMeasurement, 6, d.guid, []byte{0x8A, 0x00, 0x19})
	}
}

// answer sends ack or nack according to the fault table.
func (d *Device) answer(request uint16, ok bool, ack, nack uint16, data []byte) {
	switch d.faults[request] {
	case FaultSilent:
		d.noise(ack, data)
		return
	case FaultNack:
		ok = false
	}
	if ok {
		d.reply(ack, data)
	} else {
		d.reply(nack, data)
	}
}

// addressed reports whether a nickname-carrying request targets this node.
func (d *Device) addressed(ev *protocol.Event) bool {
	return ev.GUID == d.guid || (len(ev.Data) > 0 && ev.Data[0] == d.guid.Nickname())
}

func (d *Device) handlePageRead(ev *protocol.Event) {
	if len(ev.Data) < 5 || !d.addressed(ev) {
		return
	}
	if d.faults[protocol.TypeExtendedPageRead] == FaultSilent {
		return
	}
	page := binary.BigEndian.Uint16(ev.Data[1:])
	offset := int(ev.Data[3])
	count := int(ev.Data[4])
	if count == 0 {
		count = 256
	}
	if offset+count > 256 {
		count = 256 - offset
	}

	for i := 0; i*4 < count; i++ {
		n := count - i*4
		if n > 4 {
			n = 4
		}
		start := offset + i*4
		resp, err := protocol.BuildExtendedPageResponseEvent(d.guid, byte(i), page, byte(start),
			d.registers[start:start+n])
		if err != nil {
			continue
		}
		d.queue <- resp
	}
}

func (d *Device) handleEnterBoot(ev *protocol.Event) {
	if len(ev.Data) < 8 || !d.addressed(ev) {
		return
	}
	g := d.guid
	ok := ev.Data[1] == d.registers[protocol.RegBootloaderAlgorithm] &&
		ev.Data[2] == g[0] && ev.Data[3] == g[3] && ev.Data[4] == g[5] && ev.Data[5] == g[7]

	if ok && d.faults[protocol.TypeEnterBootLoader] == FaultNone {
		d.inBoot = true
	}
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data[0:], d.blockSize)
	binary.BigEndian.PutUint32(data[4:], d.numBlocks)
	d.answer(protocol.TypeEnterBootLoader, ok, protocol.TypeAckBootLoader, protocol.TypeNackBootLoader, data)
}

func (d *Device) handleStartBlock(ev *protocol.Event) {
	block, err := protocol.ParseBlockNumber(ev.Data)
	ok := err == nil && d.inBoot && len(ev.Data) >= 5 && block < d.numBlocks
	if ok {
		d.block = block
		d.memType = ev.Data[4]
		d.blockOpen = true
		d.buffer = d.buffer[:0]
	}
	d.answer(protocol.TypeStartBlock, ok, protocol.TypeStartBlockAck, protocol.TypeStartBlockNack, ev.Data)
}

func (d *Device) handleBlockData(ev *protocol.Event) {
	ok := d.blockOpen && uint32(len(d.buffer)+len(ev.Data)) <= d.blockSize
	if ok && d.faults[protocol.TypeBlockData] == FaultNone {
		d.buffer = append(d.buffer, ev.Data...)
		d.chunks++
	}
	d.answer(protocol.TypeBlockData, ok, protocol.TypeBlockChunkAck, protocol.TypeBlockChunkNack, nil)
}

func (d *Device) handleProgramBlock(ev *protocol.Event) {
	block, err := protocol.ParseBlockNumber(ev.Data)
	ok := err == nil && d.blockOpen && block == d.block
	if ok && d.faults[protocol.TypeProgramBlockData] == FaultNone {
		if d.programmed[d.memType] == nil {
			d.programmed[d.memType] = make(map[uint32][]byte)
		}
		d.programmed[d.memType][block] = append([]byte(nil), d.buffer...)
		d.crc = protocol.CRC16Update(d.crc, d.buffer)
		d.blockOpen = false
	}
	d.answer(protocol.TypeProgramBlockData, ok, protocol.TypeProgramBlockDataAck, protocol.TypeProgramBlockDataNack, ev.Data)
}

func (d *Device) handleActivate(ev *protocol.Event) {
	ok := d.inBoot && len(ev.Data) >= 2 && binary.BigEndian.Uint16(ev.Data) == d.crc
	if ok && d.faults[protocol.TypeActivateNewImage] == FaultNone {
		d.activated = true
		d.inBoot = false
	}
	d.answer(protocol.TypeActivateNewImage, ok, protocol.TypeActivateNewImageAck, protocol.TypeActivateNewImageNack, ev.Data)
}
