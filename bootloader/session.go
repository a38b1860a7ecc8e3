package bootloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-vscp/ihex"
	"github.com/moffa90/go-vscp/protocol"
)

// EventClient is the event transport a session drives. Every transport in
// the transport package satisfies it, as does the simulated node in
// internal/mockdevice.
type EventClient interface {
	// Send delivers one event to the bus
	Send(ctx context.Context, ev *protocol.Event) error

	// Receive blocks until an event arrives or ctx is done
	Receive(ctx context.Context) (*protocol.Event, error)

	// Count returns the number of events waiting to be received
	Count() int
}

// State is the position of a session in the load sequence.
type State int

const (
	StateInit State = iota
	StateRegistersRead
	StateBootModeRequested
	StateBootModeConfirmed
	StateBlockStarted
	StateBlockWritten
	StateBlockProgrammed
	StateRebooted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRegistersRead:
		return "registers read"
	case StateBootModeRequested:
		return "boot mode requested"
	case StateBootModeConfirmed:
		return "boot mode confirmed"
	case StateBlockStarted:
		return "block started"
	case StateBlockWritten:
		return "block written"
	case StateBlockProgrammed:
		return "block programmed"
	case StateRebooted:
		return "rebooted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session loads firmware into one node through its VSCP bootloader.
//
// A session is not safe for concurrent use and assumes exclusive use of its
// client for its whole lifetime. Every step waits for its ACK or NACK
// before the next request is sent, and no step is retried.
type Session struct {
	client   EventClient
	config   Config
	guidMode bool

	nickname byte
	target   protocol.GUID
	nodeGUID protocol.GUID
	regs     *StandardRegisters

	blockSize uint32
	numBlocks uint32
	chunkSize uint32

	crc     uint16
	pending []byte
	state   State
	ignored int
}

// NewNicknameSession creates a session for a level I node addressed by
// nickname. Block data travels in 8 byte chunks.
//
// Example:
//
//	client, _ := transport.DialUDP(ctx, "192.168.1.20:33333")
//	sess := bootloader.NewNicknameSession(client, 0x2A,
//	    bootloader.WithTimeout(10*time.Second),
//	)
func NewNicknameSession(client EventClient, nickname byte, opts ...Option) *Session {
	s := newSession(client, opts)
	s.nickname = nickname
	s.chunkSize = NicknameChunkSize
	return s
}

// NewGUIDSession creates a session for a level II node addressed by its
// full GUID. Block data travels in 512 byte chunks.
func NewGUIDSession(client EventClient, guid protocol.GUID, opts ...Option) *Session {
	s := newSession(client, opts)
	s.guidMode = true
	s.target = guid
	s.nickname = guid.Nickname()
	s.chunkSize = GUIDChunkSize
	return s
}

func newSession(client EventClient, opts []Option) *Session {
	if client == nil {
		panic("client cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		client: client,
		config: cfg,
		crc:    protocol.CRC16InitialValue,
	}
}

// State returns the current position in the load sequence.
func (s *Session) State() State { return s.state }

// BlockSize returns the block size the node reported, or 0 before boot mode.
func (s *Session) BlockSize() uint32 { return s.blockSize }

// NumBlocks returns the block count the node reported.
func (s *Session) NumBlocks() uint32 { return s.numBlocks }

// ChunkSize returns the fixed chunk size of the addressing mode.
func (s *Session) ChunkSize() uint32 { return s.chunkSize }

// Checksum returns the CRC-16 over every block programmed so far.
func (s *Session) Checksum() uint16 { return s.crc }

// Registers returns the standard registers read by DeviceInit, or nil.
func (s *Session) Registers() *StandardRegisters { return s.regs }

// NodeGUID returns the GUID replies are correlated against.
func (s *Session) NodeGUID() protocol.GUID { return s.nodeGUID }

// Ignored returns how many unrelated events were discarded while waiting
// for replies.
func (s *Session) Ignored() int { return s.ignored }

// Load runs DeviceInit followed by DeviceLoad, reporting to the configured
// StatusReporter.
//
// Example:
//
//	img, _ := ihex.Parse("firmware.hex")
//	err := sess.Load(ctx, img, 0x0001, true)
func (s *Session) Load(ctx context.Context, img *ihex.Image, deviceCode uint16, abortOnMismatch bool) error {
	if err := s.DeviceInit(ctx, deviceCode, abortOnMismatch); err != nil {
		return fmt.Errorf("device init: %w", err)
	}
	return s.DeviceLoad(ctx, img, nil)
}

// DeviceInit reads the node's standard registers, checks that it runs a
// VSCP bootloader and puts it into boot mode. A firmware device code that
// differs from the node's is reported and ignored unless abortOnMismatch is
// set. The block geometry from the node's ACK must fit the chunk size.
func (s *Session) DeviceInit(ctx context.Context, deviceCode uint16, abortOnMismatch bool) error {
	s.report(ProgressMilestone, "Reading standard registers")
	regs, err := s.ReadStandardRegisters(ctx)
	if err != nil {
		s.report(ProgressMilestone, "Failed to read standard registers")
		return fmt.Errorf("read standard registers: %w", err)
	}

	if alg := regs.BootloaderAlgorithm(); alg != protocol.BootAlgorithmVSCP {
		s.report(ProgressMilestone, "Node does not use the VSCP bootloader algorithm")
		return &AlgorithmError{Expected: protocol.BootAlgorithmVSCP, Actual: alg}
	}

	if code := regs.FirmwareDeviceCode(); code != deviceCode {
		mismatch := &DeviceCodeMismatchError{Expected: deviceCode, Actual: code}
		if abortOnMismatch {
			s.report(ProgressMilestone, "Firmware device code does not match node")
			return mismatch
		}
		s.logInfo("ignoring device code mismatch",
			"expected", fmt.Sprintf("0x%04X", deviceCode),
			"actual", fmt.Sprintf("0x%04X", code),
		)
		s.report(ProgressMilestone, "Warning: "+mismatch.Error())
	}

	s.nodeGUID = regs.GUID()
	if s.nodeGUID.IsZero() {
		if s.guidMode {
			s.nodeGUID = s.target
		} else {
			s.nodeGUID = s.config.InterfaceGUID.WithNickname(s.nickname)
		}
	}
	if s.guidMode {
		s.nickname = regs.Nickname()
	}

	page := regs.Page()
	if s.config.pageSet {
		page = s.config.Page
	}

	s.report(ProgressMilestone, "Requesting boot mode")
	s.state = StateBootModeRequested
	ev := protocol.BuildEnterBootloaderEvent(s.requestGUID(), s.nickname,
		protocol.BootAlgorithmVSCP, s.nodeGUID, page)
	ack, err := s.request(ctx, "enter bootloader", ev,
		protocol.TypeAckBootLoader, protocol.TypeNackBootLoader)
	if err != nil {
		s.report(ProgressMilestone, "Node refused boot mode")
		return err
	}

	blockSize, numBlocks, err := protocol.ParseBootloaderAck(ack.Data)
	if err != nil {
		return fmt.Errorf("enter bootloader: %w", err)
	}
	if blockSize == 0 || s.chunkSize > blockSize {
		return &ChunkSizeError{What: "chunk size", Size: int(s.chunkSize), Limit: int(blockSize)}
	}
	if limit := MaxBlockSize(); blockSize > limit {
		s.report(ProgressMilestone, "Node announced an unusable block size")
		return &ChunkSizeError{What: "block size", Size: int(blockSize), Limit: int(limit)}
	}

	s.blockSize = blockSize
	s.numBlocks = numBlocks
	s.state = StateBootModeConfirmed

	s.logDebug("boot mode confirmed",
		"node", s.nodeGUID.String(),
		"block_size", blockSize,
		"num_blocks", numBlocks,
		"chunk_size", s.chunkSize,
	)
	s.report(ProgressMilestone, fmt.Sprintf("Boot mode confirmed: %d blocks of %d bytes", numBlocks, blockSize))
	return nil
}

// ReadStandardRegisters reads registers 0x80-0xFF from the node.
func (s *Session) ReadStandardRegisters(ctx context.Context) (*StandardRegisters, error) {
	raw, err := s.ReadRegisters(ctx, 0, protocol.StandardRegistersStart, protocol.StandardRegistersCount)
	if err != nil {
		return nil, err
	}
	regs, err := NewStandardRegisters(raw)
	if err != nil {
		return nil, err
	}
	s.regs = regs
	if s.state < StateRegistersRead {
		s.state = StateRegistersRead
	}
	return regs, nil
}

// ReadRegisters reads count registers starting at offset on page with an
// extended page read and collects the responses.
func (s *Session) ReadRegisters(ctx context.Context, page uint16, offset byte, count int) ([]byte, error) {
	if count <= 0 || int(offset)+count > 256 {
		return nil, fmt.Errorf("%w: cannot read %d registers from offset 0x%02X", ErrParameter, count, offset)
	}

	const op = "read registers"
	s.drain(ctx)
	// A count of 256 wraps to 0, which the node reads as 256
	req := protocol.BuildExtendedPageReadEvent(s.requestGUID(), s.nickname, page, offset, byte(count))
	if err := s.client.Send(ctx, req); err != nil {
		return nil, &CommunicationError{Operation: op, Err: err}
	}

	wctx, cancel := context.WithTimeout(ctx, s.config.RegisterTimeout)
	defer cancel()

	values := make([]byte, count)
	seen := make([]bool, count)
	remaining := count
	for remaining > 0 {
		ev, err := s.client.Receive(wctx)
		if err != nil {
			return nil, s.waitError(ctx, op, s.config.RegisterTimeout, err)
		}
		if !ev.Is(protocol.ClassProtocol, protocol.TypeExtendedPageResponse) || !s.fromTarget(ev) {
			s.ignore(ev)
			continue
		}
		resp, err := protocol.ParseExtendedPageResponse(ev.Data)
		if err != nil || resp.Page != page {
			s.ignore(ev)
			continue
		}
		for i, v := range resp.Values {
			idx := int(resp.Offset) + i - int(offset)
			if idx < 0 || idx >= count || seen[idx] {
				continue
			}
			values[idx] = v
			seen[idx] = true
			remaining--
		}
	}
	return values, nil
}

// WriteBlockStart opens block for transfer into memType.
func (s *Session) WriteBlockStart(ctx context.Context, block uint32, memType MemoryType) error {
	if err := s.requireBootMode(); err != nil {
		return err
	}
	ev := protocol.BuildStartBlockEvent(s.requestGUID(), block, byte(memType))
	if _, err := s.request(ctx, "start block", ev,
		protocol.TypeStartBlockAck, protocol.TypeStartBlockNack); err != nil {
		return err
	}
	s.pending = s.pending[:0]
	s.state = StateBlockStarted
	return nil
}

// WriteBlock sends one block of data as ChunkCount(blockSize, chunkSize)
// chunks. src must hold at least a block. The first failing chunk stops the
// transfer; chunks already sent are not rolled back.
func (s *Session) WriteBlock(ctx context.Context, src []byte) error {
	if err := s.requireBootMode(); err != nil {
		return err
	}
	if uint32(len(src)) < s.blockSize {
		return fmt.Errorf("%w: block needs %d bytes, got %d", ErrParameter, s.blockSize, len(src))
	}

	n := ChunkCount(s.blockSize, s.chunkSize)
	for i := uint32(0); i < n; i++ {
		off := i * s.chunkSize
		end := off + s.chunkSize
		if end > s.blockSize {
			end = s.blockSize
		}
		if err := s.WriteChunk(ctx, src[off:end]); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, n, err)
		}
	}

	s.pending = append(s.pending[:0], src[:s.blockSize]...)
	s.state = StateBlockWritten
	return nil
}

// WriteChunk sends one chunk of block data. Chunks larger than the chunk
// size are rejected before anything is sent.
func (s *Session) WriteChunk(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty chunk", ErrParameter)
	}
	if uint32(len(data)) > s.chunkSize {
		return &ChunkSizeError{What: "chunk", Size: len(data), Limit: int(s.chunkSize)}
	}
	ev, err := protocol.BuildBlockDataEvent(s.requestGUID(), data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParameter, err)
	}
	_, err = s.request(ctx, "block data", ev, protocol.TypeBlockChunkAck, protocol.TypeBlockChunkNack)
	return err
}

// ProgramBlock asks the node to commit the transferred block.
func (s *Session) ProgramBlock(ctx context.Context, block uint32) error {
	if err := s.requireBootMode(); err != nil {
		return err
	}
	ev := protocol.BuildProgramBlockEvent(s.requestGUID(), block)
	if _, err := s.request(ctx, "program block", ev,
		protocol.TypeProgramBlockDataAck, protocol.TypeProgramBlockDataNack); err != nil {
		return err
	}
	s.crc = protocol.CRC16Update(s.crc, s.pending)
	s.pending = s.pending[:0]
	s.state = StateBlockProgrammed
	return nil
}

// ActivateImage sends the CRC of everything programmed and asks the node to
// start the new image.
func (s *Session) ActivateImage(ctx context.Context) error {
	if err := s.requireBootMode(); err != nil {
		return err
	}
	ev := protocol.BuildActivateImageEvent(s.requestGUID(), s.crc)
	if _, err := s.request(ctx, "activate image", ev,
		protocol.TypeActivateNewImageAck, protocol.TypeActivateNewImageNack); err != nil {
		return err
	}
	s.state = StateRebooted
	return nil
}

// DeviceLoad programs every region of img that holds data, in the order of
// Regions, then activates the new image. Unused bytes inside a block are
// sent as 0xFF. The first failing step aborts the load. A nil status uses
// the configured StatusReporter.
func (s *Session) DeviceLoad(ctx context.Context, img *ihex.Image, status StatusReporter) error {
	if img == nil {
		return fmt.Errorf("%w: image cannot be nil", ErrParameter)
	}
	if err := s.requireBootMode(); err != nil {
		return err
	}
	r := status
	if r == nil {
		r = s.config.StatusReporter
	}

	var plans []blockPlan
	total := 0
	for _, region := range Regions {
		min, max := img.MinMax(region.Begin, region.End)
		p, ok := planRegion(region, min, max, s.blockSize)
		if !ok {
			s.logDebug("region has no data", "region", region.Type.String())
			continue
		}
		if uint64(p.startBlock)+uint64(p.nBlocks) > uint64(s.numBlocks) {
			return fmt.Errorf("%w: %s memory needs blocks %d-%d, node has %d",
				ErrSize, region.Type, p.startBlock, p.startBlock+p.nBlocks-1, s.numBlocks)
		}
		plans = append(plans, p)
		total += int(p.nBlocks)
	}
	if total == 0 {
		return fmt.Errorf("%w: image has no data in any loadable region", ErrParameter)
	}

	r.Report(0, "Starting firmware download")

	startTime := time.Now()
	done := 0
	for _, p := range plans {
		buf := make([]byte, p.bufferSize(s.blockSize))
		for i := range buf {
			buf[i] = 0xFF
		}
		img.Fill(buf, p.region.Begin)

		r.Report(ProgressMilestone, fmt.Sprintf("Loading %s memory: %d blocks from block %d",
			p.region.Type, p.nBlocks, p.startBlock))

		for i := uint32(0); i < p.nBlocks; i++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("cancelled: %w", err)
			}

			block := p.startBlock + i
			off := block * s.blockSize
			if err := s.loadBlock(ctx, block, p.region.Type, buf[off:off+s.blockSize]); err != nil {
				r.Report(ProgressMilestone, fmt.Sprintf("Failed to load %s block %d", p.region.Type, block))
				s.logError("block load failed", "region", p.region.Type.String(), "block", block, "error", err)
				return fmt.Errorf("%s block %d: %w", p.region.Type, block, err)
			}

			done++
			r.Report(done*100/total, fmt.Sprintf("Programmed %s block %d", p.region.Type, block))
		}
	}

	r.Report(ProgressMilestone, "Activating new image")
	if err := s.ActivateImage(ctx); err != nil {
		r.Report(ProgressMilestone, "Node rejected the new image")
		return fmt.Errorf("activate image: %w", err)
	}

	s.logInfo("firmware load complete",
		"blocks", total,
		"crc", fmt.Sprintf("0x%04X", s.crc),
		"elapsed", time.Since(startTime).String(),
	)
	r.Report(100, "Firmware load complete")
	return nil
}

func (s *Session) loadBlock(ctx context.Context, block uint32, memType MemoryType, data []byte) error {
	if err := s.WriteBlockStart(ctx, block, memType); err != nil {
		return err
	}
	if err := s.WriteBlock(ctx, data); err != nil {
		return err
	}
	return s.ProgramBlock(ctx, block)
}

// request drains stale events, sends ev and waits for its reply.
func (s *Session) request(ctx context.Context, op string, ev *protocol.Event, ack, nack uint16) (*protocol.Event, error) {
	s.drain(ctx)
	if err := s.client.Send(ctx, ev); err != nil {
		return nil, &CommunicationError{Operation: op, Err: err}
	}
	return s.checkResponse(ctx, op, ack, nack)
}

// checkResponse waits until the node answers with ack or nack. Events from
// other nodes, other classes or other types are discarded.
func (s *Session) checkResponse(ctx context.Context, op string, ack, nack uint16) (*protocol.Event, error) {
	deadline := time.Now().Add(s.config.Timeout)
	wctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		ev, err := s.client.Receive(wctx)
		if err != nil {
			return nil, s.waitError(ctx, op, s.config.Timeout, err)
		}
		if ev.Class != protocol.ClassProtocol || ev.GUID != s.nodeGUID {
			s.ignore(ev)
			continue
		}
		switch ev.Type {
		case ack:
			return ev, nil
		case nack:
			s.logDebug("NACK", "operation", op, "type", ev.Type)
			return nil, &NackError{Operation: op, Type: ev.Type, Data: ev.Data}
		}
		s.ignore(ev)
	}
}

// waitError classifies a Receive failure.
func (s *Session) waitError(ctx context.Context, op string, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.logDebug("timeout", "operation", op, "timeout", timeout.String())
		return &TimeoutError{Operation: op, Timeout: timeout, Ignored: s.ignored}
	}
	return &CommunicationError{Operation: op, Err: err}
}

func (s *Session) drain(ctx context.Context) {
	for s.client.Count() > 0 {
		ev, err := s.client.Receive(ctx)
		if err != nil {
			return
		}
		s.ignore(ev)
	}
}

func (s *Session) ignore(ev *protocol.Event) {
	s.ignored++
	s.logDebug("ignoring event", "class", ev.Class, "type", ev.Type, "guid", ev.GUID.String())
}

// requestGUID is the GUID requests are sent with.
func (s *Session) requestGUID() protocol.GUID {
	if s.guidMode {
		return s.target
	}
	return s.config.InterfaceGUID
}

// fromTarget reports whether ev was sent by the node this session drives.
func (s *Session) fromTarget(ev *protocol.Event) bool {
	if s.guidMode {
		return ev.GUID == s.target
	}
	return ev.GUID.Nickname() == s.nickname
}

func (s *Session) requireBootMode() error {
	if s.state < StateBootModeConfirmed || s.blockSize == 0 {
		return fmt.Errorf("%w: node is not in boot mode (state %s)", ErrParameter, s.state)
	}
	return nil
}

func (s *Session) report(progress int, msg string) {
	s.config.StatusReporter.Report(progress, msg)
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
