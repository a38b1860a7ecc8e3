package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/moffa90/go-vscp/protocol"
)

// StreamClient sends SLIP framed VSCP UDP frames over a byte stream.
type StreamClient struct {
	rwc   io.ReadWriteCloser
	cfg   config
	queue *Queue

	writeMu   sync.Mutex
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewStreamClient starts a client on rwc. The client owns rwc and closes it
// on Close.
func NewStreamClient(rwc io.ReadWriteCloser, opts ...Option) (*StreamClient, error) {
	if rwc == nil {
		return nil, fmt.Errorf("stream cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkEncryption(cfg); err != nil {
		return nil, err
	}

	c := &StreamClient{
		rwc:   rwc,
		cfg:   cfg,
		queue: NewQueue(cfg.queueSize, cfg.filter),
	}
	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

// OpenSerial opens a serial port at 8N1 and the given baud rate and starts
// a StreamClient on it.
//
// Example:
//
//	client, err := transport.OpenSerial("/dev/ttyUSB0", 115200)
func OpenSerial(portName string, baudRate int, opts ...Option) (*StreamClient, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	c, err := NewStreamClient(port, opts...)
	if err != nil {
		port.Close()
		return nil, err
	}
	return c, nil
}

// Send writes ev as one SLIP frame. The write is not interruptible; ctx is
// only checked before it starts.
func (c *StreamClient) Send(ctx context.Context, ev *protocol.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame, err := encodeFrame(c.cfg, ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.rwc.Write(slipEncode(frame)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Receive returns the next received event.
func (c *StreamClient) Receive(ctx context.Context) (*protocol.Event, error) {
	return c.queue.Receive(ctx)
}

// Count returns the number of events waiting in the receive queue.
func (c *StreamClient) Count() int {
	return c.queue.Count()
}

// Close closes the stream and waits for the reader to exit.
func (c *StreamClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.rwc.Close()
		c.wg.Wait()
		c.queue.Close()
	})
	return err
}

func (c *StreamClient) readLoop() {
	defer c.wg.Done()
	defer c.queue.Close()

	r := bufio.NewReader(c.rwc)
	var dec slipDecoder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.cfg.logDebug("stream read", "error", err)
			}
			return
		}

		frame, err := dec.decodeByte(b)
		if err != nil {
			c.cfg.logDebug("dropping frame", "error", err)
			continue
		}
		if frame == nil {
			continue
		}

		ev, err := decodeFrame(c.cfg, frame)
		if err != nil {
			c.cfg.logDebug("dropping frame", "error", err, "size", len(frame))
			continue
		}
		c.queue.Push(ev)
	}
}
