package bootloader

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-vscp/ihex"
	"github.com/moffa90/go-vscp/internal/mockdevice"
	"github.com/moffa90/go-vscp/protocol"
)

const testNickname = 0x2A

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

type statusRecord struct {
	progress []int
	messages []string
}

func (r *statusRecord) Report(progress int, msg string) {
	r.progress = append(r.progress, progress)
	r.messages = append(r.messages, msg)
}

func (r *statusRecord) contains(sub string) bool {
	for _, m := range r.messages {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

// codeImage returns an image with n bytes of a counting pattern at addr.
func codeImage(addr uint32, n int) *ihex.Image {
	img := ihex.NewImage()
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	img.Set(addr, data)
	return img
}

func newDevice(t *testing.T, opts ...mockdevice.Option) *mockdevice.Device {
	t.Helper()
	dev := mockdevice.New(opts...)
	t.Cleanup(func() { dev.Close() })
	return dev
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew(t *testing.T) {
	dev := newDevice(t)

	tests := []struct {
		name      string
		session   func() *Session
		chunkSize uint32
	}{
		{
			name:      "nickname with no options",
			session:   func() *Session { return NewNicknameSession(dev, testNickname) },
			chunkSize: 8,
		},
		{
			name: "guid with all options",
			session: func() *Session {
				return NewGUIDSession(dev, dev.GUID(),
					WithStatusReporter(StatusFunc(func(int, string) {})),
					WithLogger(&MockLogger{}),
					WithTimeout(30*time.Second),
					WithRegisterTimeout(time.Second),
					WithInterfaceGUID(protocol.GUID{0xFF}),
					WithPage(1),
				)
			},
			chunkSize: 512,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session()
			require.NotNil(t, s)
			assert.Equal(t, tt.chunkSize, s.ChunkSize())
			assert.Equal(t, StateInit, s.State())
			assert.Equal(t, uint16(protocol.CRC16InitialValue), s.Checksum())
		})
	}
}

func TestNewPanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() { NewNicknameSession(nil, 1) })
	assert.Panics(t, func() { NewGUIDSession(nil, protocol.GUID{}) })
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, DefaultResponseTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRegisterTimeout, cfg.RegisterTimeout)
	assert.NotNil(t, cfg.StatusReporter)

	WithTimeout(0)(&cfg)
	WithStatusReporter(nil)(&cfg)
	assert.Equal(t, DefaultResponseTimeout, cfg.Timeout, "zero timeout is ignored")
	assert.NotNil(t, cfg.StatusReporter, "nil reporter is ignored")
}

func TestDeviceInit(t *testing.T) {
	dev := newDevice(t)
	status := &statusRecord{}
	s := NewNicknameSession(dev, testNickname, WithStatusReporter(status))

	require.NoError(t, s.DeviceInit(testContext(t), 0x0001, true))

	assert.Equal(t, StateBootModeConfirmed, s.State())
	assert.Equal(t, uint32(64), s.BlockSize())
	assert.Equal(t, uint32(512), s.NumBlocks())
	assert.Equal(t, dev.GUID(), s.NodeGUID())
	require.NotNil(t, s.Registers())
	assert.Equal(t, "1.2.3", s.Registers().FirmwareVersion())
	assert.True(t, status.contains("Boot mode confirmed"))

	enter := dev.Requests(protocol.TypeEnterBootLoader)
	require.Len(t, enter, 1)
	g := dev.GUID()
	assert.Equal(t, []byte{testNickname, 0x00, g[0], g[3], g[5], g[7], 0x00, 0x00}, enter[0].Data)
}

func TestDeviceInitPage(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []byte
	}{
		{"node page register", nil, []byte{0x01, 0x02}},
		{"explicit page", []Option{WithPage(0x0304)}, []byte{0x03, 0x04}},
		{"explicit page zero", []Option{WithPage(0)}, []byte{0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t,
				mockdevice.WithRegister(protocol.RegPageSelectMSB, 0x01),
				mockdevice.WithRegister(protocol.RegPageSelectLSB, 0x02),
			)
			s := NewNicknameSession(dev, testNickname, tt.opts...)
			require.NoError(t, s.DeviceInit(testContext(t), 0x0001, true))

			enter := dev.Requests(protocol.TypeEnterBootLoader)
			require.Len(t, enter, 1)
			assert.Equal(t, tt.want, enter[0].Data[6:8])
		})
	}
}

func TestDeviceInitRejectsOversizedBlock(t *testing.T) {
	dev := newDevice(t, mockdevice.WithBlockGeometry(0xFFFFFFFF, 1))
	s := NewNicknameSession(dev, testNickname)

	err := s.DeviceInit(testContext(t), 0x0001, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSize), "got %v", err)

	var cse *ChunkSizeError
	require.True(t, errors.As(err, &cse))
	assert.Equal(t, "block size", cse.What)
	assert.Equal(t, int(MaxBlockSize()), cse.Limit)
	assert.NotEqual(t, StateBootModeConfirmed, s.State())

	err = s.DeviceLoad(testContext(t), codeImage(0, 16), nil)
	assert.True(t, errors.Is(err, ErrParameter))
	assert.Empty(t, dev.Requests(protocol.TypeStartBlock))
}

func TestDeviceInitFailures(t *testing.T) {
	tests := []struct {
		name      string
		opts      []mockdevice.Option
		code      uint16
		abort     bool
		wantErr   error
		wantEnter int
	}{
		{
			name:      "foreign bootloader algorithm",
			opts:      []mockdevice.Option{mockdevice.WithRegister(protocol.RegBootloaderAlgorithm, protocol.BootAlgorithmAVR1)},
			code:      0x0001,
			wantErr:   ErrNotSupported,
			wantEnter: 0,
		},
		{
			name:      "device code mismatch with abort",
			code:      0x0002,
			abort:     true,
			wantErr:   ErrParameter,
			wantEnter: 0,
		},
		{
			name:      "boot mode refused",
			opts:      []mockdevice.Option{mockdevice.WithFault(protocol.TypeEnterBootLoader, mockdevice.FaultNack)},
			code:      0x0001,
			wantErr:   ErrNack,
			wantEnter: 1,
		},
		{
			name:      "no reply to boot mode request",
			opts:      []mockdevice.Option{mockdevice.WithFault(protocol.TypeEnterBootLoader, mockdevice.FaultSilent)},
			code:      0x0001,
			wantErr:   ErrTimeout,
			wantEnter: 1,
		},
		{
			name:      "registers unreadable",
			opts:      []mockdevice.Option{mockdevice.WithFault(protocol.TypeExtendedPageRead, mockdevice.FaultSilent)},
			code:      0x0001,
			wantErr:   ErrTimeout,
			wantEnter: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t, tt.opts...)
			s := NewNicknameSession(dev, testNickname,
				WithTimeout(50*time.Millisecond),
				WithRegisterTimeout(50*time.Millisecond),
			)

			err := s.DeviceInit(testContext(t), tt.code, tt.abort)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Len(t, dev.Requests(protocol.TypeEnterBootLoader), tt.wantEnter)
			assert.NotEqual(t, StateBootModeConfirmed, s.State())
		})
	}
}

func TestDeviceInitIgnoresMismatchWithoutAbort(t *testing.T) {
	dev := newDevice(t)
	status := &statusRecord{}
	logger := &MockLogger{}
	s := NewNicknameSession(dev, testNickname, WithStatusReporter(status), WithLogger(logger))

	require.NoError(t, s.DeviceInit(testContext(t), 0x0BAD, false))
	assert.Equal(t, StateBootModeConfirmed, s.State())
	assert.True(t, status.contains("Warning"))
	assert.Contains(t, logger.infoMsgs, "ignoring device code mismatch")
}

func TestDeviceInitChunkLargerThanBlock(t *testing.T) {
	// GUID sessions use 512 byte chunks, the device offers 64 byte blocks
	dev := newDevice(t)
	s := NewGUIDSession(dev, dev.GUID())

	err := s.DeviceInit(testContext(t), 0x0001, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSize))

	var cse *ChunkSizeError
	require.True(t, errors.As(err, &cse))
	assert.Equal(t, 512, cse.Size)
	assert.Equal(t, 64, cse.Limit)

	assert.Empty(t, dev.Requests(protocol.TypeStartBlock))
	assert.Empty(t, dev.Requests(protocol.TypeBlockData))

	err = s.DeviceLoad(testContext(t), codeImage(0, 64), nil)
	assert.True(t, errors.Is(err, ErrParameter), "load must refuse a session without boot mode")
	assert.Empty(t, dev.Requests(protocol.TypeStartBlock))
}

func TestOperationsRequireBootMode(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	ctx := testContext(t)

	assert.True(t, errors.Is(s.WriteBlockStart(ctx, 0, MemoryCode), ErrParameter))
	assert.True(t, errors.Is(s.WriteBlock(ctx, make([]byte, 64)), ErrParameter))
	assert.True(t, errors.Is(s.ProgramBlock(ctx, 0), ErrParameter))
	assert.True(t, errors.Is(s.ActivateImage(ctx), ErrParameter))
	assert.Empty(t, dev.Requests(-1))
}

func TestWriteChunkTooLarge(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	require.NoError(t, s.DeviceInit(testContext(t), 0x0001, true))
	before := len(dev.Requests(-1))

	err := s.WriteChunk(testContext(t), make([]byte, 9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSize))

	err = s.WriteChunk(testContext(t), nil)
	assert.True(t, errors.Is(err, ErrParameter))

	assert.Len(t, dev.Requests(-1), before, "nothing may be sent")
}

func TestWriteBlockChunkCount(t *testing.T) {
	tests := []struct {
		name       string
		blockSize  uint32
		wantChunks int
		lastChunk  int
	}{
		{"512 byte block", 512, 64, 8},
		{"8 byte block", 8, 1, 8},
		{"20 byte block", 20, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t, mockdevice.WithBlockGeometry(tt.blockSize, 4))
			s := NewNicknameSession(dev, testNickname)
			ctx := testContext(t)
			require.NoError(t, s.DeviceInit(ctx, 0x0001, true))

			src := make([]byte, tt.blockSize)
			for i := range src {
				src[i] = byte(i * 7)
			}
			require.NoError(t, s.WriteBlockStart(ctx, 1, MemoryCode))
			require.NoError(t, s.WriteBlock(ctx, src))
			assert.Equal(t, StateBlockWritten, s.State())
			require.NoError(t, s.ProgramBlock(ctx, 1))

			chunks := dev.Requests(protocol.TypeBlockData)
			require.Len(t, chunks, tt.wantChunks)
			assert.Len(t, chunks[len(chunks)-1].Data, tt.lastChunk)

			got, ok := dev.Programmed(byte(MemoryCode), 1)
			require.True(t, ok)
			assert.Equal(t, src, got)
		})
	}
}

func TestWriteBlockShortSource(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	require.NoError(t, s.DeviceInit(testContext(t), 0x0001, true))

	err := s.WriteBlock(testContext(t), make([]byte, 10))
	assert.True(t, errors.Is(err, ErrParameter))
	assert.Empty(t, dev.Requests(protocol.TypeBlockData))
}

func TestWriteBlockStopsOnNack(t *testing.T) {
	dev := newDevice(t, mockdevice.WithFault(protocol.TypeBlockData, mockdevice.FaultNack))
	s := NewNicknameSession(dev, testNickname)
	ctx := testContext(t)
	require.NoError(t, s.DeviceInit(ctx, 0x0001, true))
	require.NoError(t, s.WriteBlockStart(ctx, 0, MemoryCode))

	err := s.WriteBlock(ctx, make([]byte, 64))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNack))

	var nack *NackError
	require.True(t, errors.As(err, &nack))
	assert.Equal(t, uint16(protocol.TypeBlockChunkNack), nack.Type)
	assert.Len(t, dev.Requests(protocol.TypeBlockData), 1, "no chunk after the rejected one")
}

func TestCheckResponseTimeoutWithCrossTraffic(t *testing.T) {
	dev := newDevice(t,
		mockdevice.WithCrossTraffic(3),
		mockdevice.WithFault(protocol.TypeStartBlock, mockdevice.FaultSilent),
	)
	logger := &MockLogger{}
	s := NewNicknameSession(dev, testNickname, WithTimeout(100*time.Millisecond), WithLogger(logger))
	ctx := testContext(t)

	require.NoError(t, s.DeviceInit(ctx, 0x0001, true), "cross traffic must not disturb boot mode")
	ignoredAfterInit := s.Ignored()
	assert.Equal(t, 6, ignoredAfterInit)

	start := time.Now()
	err := s.WriteBlockStart(ctx, 0, MemoryCode)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrNack))
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, ignoredAfterInit+6, s.Ignored())
	assert.Contains(t, logger.debugMsgs, "ignoring event")
	assert.Contains(t, logger.debugMsgs, "timeout")
}

func TestCheckResponseDrainsStaleReplies(t *testing.T) {
	dev := newDevice(t, mockdevice.WithFault(protocol.TypeStartBlock, mockdevice.FaultSilent))
	s := NewNicknameSession(dev, testNickname, WithTimeout(50*time.Millisecond))
	ctx := testContext(t)
	require.NoError(t, s.DeviceInit(ctx, 0x0001, true))

	// A stale ACK queued before the request must not satisfy it
	dev.Inject(protocol.BuildReplyEvent(dev.GUID(), protocol.TypeStartBlockAck, nil))

	err := s.WriteBlockStart(ctx, 0, MemoryCode)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestCheckResponseCancelled(t *testing.T) {
	dev := newDevice(t, mockdevice.WithFault(protocol.TypeStartBlock, mockdevice.FaultSilent))
	s := NewNicknameSession(dev, testNickname, WithTimeout(time.Minute))
	require.NoError(t, s.DeviceInit(testContext(t), 0x0001, true))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.WriteBlockStart(ctx, 0, MemoryCode)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrTimeout), "caller cancellation is not a step timeout")
}

func TestDeviceLoadTenBlocks(t *testing.T) {
	dev := newDevice(t, mockdevice.WithBlockGeometry(64, 10))
	status := &statusRecord{}
	s := NewNicknameSession(dev, testNickname, WithStatusReporter(status))
	ctx := testContext(t)
	img := codeImage(0, 640)

	require.NoError(t, s.DeviceInit(ctx, 0x0001, true))
	require.NoError(t, s.DeviceLoad(ctx, img, nil))

	starts := dev.Requests(protocol.TypeStartBlock)
	require.Len(t, starts, 10)
	for i, ev := range starts {
		block, err := protocol.ParseBlockNumber(ev.Data)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), block)
		assert.Equal(t, byte(MemoryCode), ev.Data[4])
	}
	assert.Len(t, dev.Requests(protocol.TypeProgramBlockData), 10)
	assert.Len(t, dev.Requests(protocol.TypeBlockData), 80)
	assert.Equal(t, 10, dev.ProgrammedBlocks(byte(MemoryCode)))

	assert.True(t, dev.Activated())
	assert.Equal(t, StateRebooted, s.State())
	assert.Equal(t, dev.CRC(), s.Checksum())

	require.NotEmpty(t, status.progress)
	first := -1
	for i, p := range status.progress {
		if p != ProgressMilestone {
			first = i
			break
		}
	}
	require.GreaterOrEqual(t, first, 0)
	assert.Equal(t, 0, status.progress[first])
	assert.Equal(t, "Starting firmware download", status.messages[first])
	assert.Equal(t, 100, status.progress[len(status.progress)-1])
	assert.Contains(t, status.progress, 10)
	assert.Contains(t, status.progress, ProgressMilestone)
}

func TestDeviceLoadActivationCarriesCRC(t *testing.T) {
	dev := newDevice(t, mockdevice.WithBlockGeometry(64, 10))
	s := NewNicknameSession(dev, testNickname)
	ctx := testContext(t)
	img := codeImage(0, 100)

	require.NoError(t, s.Load(ctx, img, 0x0001, true))

	expected := make([]byte, 128)
	for i := range expected {
		expected[i] = 0xFF
	}
	img.Fill(expected, 0)
	crc := protocol.CRC16(expected)

	act := dev.Requests(protocol.TypeActivateNewImage)
	require.Len(t, act, 1)
	assert.Equal(t, []byte{byte(crc >> 8), byte(crc)}, act[0].Data)
	assert.Equal(t, crc, s.Checksum())
}

func TestDeviceLoadStartBlock(t *testing.T) {
	dev := newDevice(t, mockdevice.WithBlockGeometry(64, 16))
	s := NewNicknameSession(dev, testNickname)
	ctx := testContext(t)
	// 0x130-0x17F spans blocks 4 and 5
	img := codeImage(0x130, 0x50)

	require.NoError(t, s.Load(ctx, img, 0x0001, true))

	starts := dev.Requests(protocol.TypeStartBlock)
	require.Len(t, starts, 2)
	b0, _ := protocol.ParseBlockNumber(starts[0].Data)
	b1, _ := protocol.ParseBlockNumber(starts[1].Data)
	assert.Equal(t, uint32(4), b0)
	assert.Equal(t, uint32(5), b1)

	got, ok := dev.Programmed(byte(MemoryCode), 4)
	require.True(t, ok)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 0x30), got[:0x30], "bytes before the image are erased")
	assert.Equal(t, byte(0), got[0x30])
}

func TestDeviceLoadSkipsEmptyRegions(t *testing.T) {
	tests := []struct {
		name     string
		addr     uint32
		size     int
		memType  MemoryType
		blocks   int
		noOthers bool
	}{
		{"code only", 0x000000, 64, MemoryCode, 1, true},
		{"eeprom only", 0xF00000, 256, MemoryEEPROM, 4, true},
		{"config only", 0x300000, 14, MemoryConfig, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t)
			s := NewNicknameSession(dev, testNickname)
			require.NoError(t, s.Load(testContext(t), codeImage(tt.addr, tt.size), 0x0001, true))

			starts := dev.Requests(protocol.TypeStartBlock)
			require.Len(t, starts, tt.blocks)
			for _, ev := range starts {
				assert.Equal(t, byte(tt.memType), ev.Data[4])
			}
		})
	}
}

func TestDeviceLoadMultipleRegions(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	img := codeImage(0, 64)
	img.Set(0x300000, []byte{0x01, 0x02})
	img.Set(0xF00010, []byte{0xAA})

	require.NoError(t, s.Load(testContext(t), img, 0x0001, true))

	starts := dev.Requests(protocol.TypeStartBlock)
	require.Len(t, starts, 3)
	assert.Equal(t, byte(MemoryCode), starts[0].Data[4])
	assert.Equal(t, byte(MemoryConfig), starts[1].Data[4])
	assert.Equal(t, byte(MemoryEEPROM), starts[2].Data[4])

	eeprom, ok := dev.Programmed(byte(MemoryEEPROM), 0)
	require.True(t, ok)
	assert.Equal(t, byte(0xAA), eeprom[0x10])
	assert.Equal(t, byte(0xFF), eeprom[0])
}

func TestDeviceLoadExceedsNodeBlocks(t *testing.T) {
	dev := newDevice(t, mockdevice.WithBlockGeometry(64, 2))
	status := &statusRecord{}
	s := NewNicknameSession(dev, testNickname, WithStatusReporter(status))
	ctx := testContext(t)
	require.NoError(t, s.DeviceInit(ctx, 0x0001, true))

	err := s.DeviceLoad(ctx, codeImage(0, 640), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSize), "got %v", err)
	assert.Contains(t, err.Error(), "node has 2")
	assert.Empty(t, dev.Requests(protocol.TypeStartBlock))
	assert.NotContains(t, status.progress, 0)

	// the last block the node has is still accepted
	require.NoError(t, s.DeviceLoad(ctx, codeImage(64, 64), nil))
	assert.Len(t, dev.Requests(protocol.TypeStartBlock), 1)
}

func TestDeviceLoadEmptyImage(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	ctx := testContext(t)
	require.NoError(t, s.DeviceInit(ctx, 0x0001, true))

	err := s.DeviceLoad(ctx, ihex.NewImage(), nil)
	assert.True(t, errors.Is(err, ErrParameter))
	assert.Empty(t, dev.Requests(protocol.TypeStartBlock))

	err = s.DeviceLoad(ctx, nil, nil)
	assert.True(t, errors.Is(err, ErrParameter))
}

func TestDeviceLoadAbortsOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		fault   uint16
		wantErr error
	}{
		{"start block nack", protocol.TypeStartBlock, ErrNack},
		{"program block nack", protocol.TypeProgramBlockData, ErrNack},
		{"activation nack", protocol.TypeActivateNewImage, ErrNack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t,
				mockdevice.WithBlockGeometry(64, 10),
				mockdevice.WithFault(tt.fault, mockdevice.FaultNack),
			)
			status := &statusRecord{}
			logger := &MockLogger{}
			s := NewNicknameSession(dev, testNickname, WithStatusReporter(status), WithLogger(logger))

			err := s.Load(testContext(t), codeImage(0, 640), 0x0001, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.NotEqual(t, StateRebooted, s.State())
			assert.False(t, dev.Activated())

			if tt.fault != protocol.TypeActivateNewImage {
				assert.NotContains(t, status.progress, 100)
				assert.Len(t, dev.Requests(protocol.TypeStartBlock), 1, "load stops at the first failure")
				assert.Empty(t, dev.Requests(protocol.TypeActivateNewImage))
				assert.NotEmpty(t, logger.errorMsgs)
			}
		})
	}
}

func TestDeviceLoadCancelled(t *testing.T) {
	dev := newDevice(t)
	s := NewNicknameSession(dev, testNickname)
	require.NoError(t, s.DeviceInit(testContext(t), 0x0001, true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.DeviceLoad(ctx, codeImage(0, 64), nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, dev.Requests(protocol.TypeStartBlock))
}

func TestGUIDSession(t *testing.T) {
	dev := newDevice(t, mockdevice.WithBlockGeometry(1024, 8), mockdevice.WithCrossTraffic(1))
	s := NewGUIDSession(dev, dev.GUID())
	ctx := testContext(t)

	require.NoError(t, s.Load(ctx, codeImage(0, 2048), 0x0001, true))

	chunks := dev.Requests(protocol.TypeBlockData)
	require.Len(t, chunks, 4)
	for _, ev := range chunks {
		assert.Len(t, ev.Data, 512)
		assert.Equal(t, dev.GUID(), ev.GUID, "requests carry the target GUID")
	}
	assert.True(t, dev.Activated())
	assert.Equal(t, 2, dev.ProgrammedBlocks(byte(MemoryCode)))
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInit, "init"},
		{StateRegistersRead, "registers read"},
		{StateBootModeRequested, "boot mode requested"},
		{StateBootModeConfirmed, "boot mode confirmed"},
		{StateBlockStarted, "block started"},
		{StateBlockWritten, "block written"},
		{StateBlockProgrammed, "block programmed"},
		{StateRebooted, "rebooted"},
		{State(42), "state(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}
