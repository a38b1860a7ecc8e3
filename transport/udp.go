package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/moffa90/go-vscp/protocol"
)

// maxDatagram bounds a received UDP frame.
const maxDatagram = 2048

// UDPClient exchanges VSCP UDP frames with one remote address.
type UDPClient struct {
	conn  *net.UDPConn
	cfg   config
	queue *Queue

	writeMu   sync.Mutex
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// DialUDP connects to addr ("host:port") and starts receiving frames.
//
// Example:
//
//	client, err := transport.DialUDP(ctx, "192.168.1.20:33333")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func DialUDP(ctx context.Context, addr string, opts ...Option) (*UDPClient, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkEncryption(cfg); err != nil {
		return nil, err
	}

	var d net.Dialer
	c, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	client := &UDPClient{
		conn:  c.(*net.UDPConn),
		cfg:   cfg,
		queue: NewQueue(cfg.queueSize, cfg.filter),
	}
	client.wg.Add(1)
	go client.readLoop()
	return client, nil
}

// LocalAddr returns the local socket address.
func (c *UDPClient) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Send encodes ev as one datagram.
func (c *UDPClient) Send(ctx context.Context, ev *protocol.Event) error {
	frame, err := encodeFrame(c.cfg, ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return writeError(err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return writeError(err)
	}
	return nil
}

func writeError(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("write frame: %w", err)
}

// Receive returns the next received event.
func (c *UDPClient) Receive(ctx context.Context) (*protocol.Event, error) {
	return c.queue.Receive(ctx)
}

// Count returns the number of events waiting in the receive queue.
func (c *UDPClient) Count() int {
	return c.queue.Count()
}

// Close closes the socket and waits for the reader to exit.
func (c *UDPClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
		c.wg.Wait()
		c.queue.Close()
	})
	return err
}

func (c *UDPClient) readLoop() {
	defer c.wg.Done()

	buf := make([]byte, maxDatagram)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP port unreachable surfaces here on some systems
			c.cfg.logDebug("udp read", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		ev, err := decodeFrame(c.cfg, buf[:n])
		if err != nil {
			c.cfg.logDebug("dropping frame", "error", err, "size", n)
			continue
		}
		c.queue.Push(ev)
	}
}

// encodeFrame builds the wire form of ev, encrypted when configured.
func encodeFrame(cfg config, ev *protocol.Event) ([]byte, error) {
	frame, err := protocol.EncodeFrame(protocol.PacketTypeEvent, ev)
	if err != nil {
		return nil, err
	}
	if cfg.encryption == protocol.EncryptNone {
		return frame, nil
	}
	return protocol.EncryptFrame(frame, cfg.key, cfg.encryption)
}

// decodeFrame decrypts buf when its packet type says so and decodes it.
func decodeFrame(cfg config, buf []byte) (*protocol.Event, error) {
	if len(buf) == 0 {
		return nil, &protocol.FrameError{Reason: "empty frame"}
	}
	if buf[0]&0x0F != protocol.EncryptNone {
		if len(cfg.key) == 0 {
			return nil, fmt.Errorf("encrypted frame but no key configured")
		}
		plain, err := protocol.DecryptFrame(buf, cfg.key, protocol.EncryptFromType)
		if err != nil {
			return nil, err
		}
		buf = plain
	}
	ev, _, err := protocol.DecodeFrame(buf)
	return ev, err
}

func checkEncryption(cfg config) error {
	if cfg.encryption == protocol.EncryptNone {
		return nil
	}
	v, err := protocol.VariantForEncryption(cfg.encryption)
	if err != nil {
		return err
	}
	if p := v.Params(); len(cfg.key) != p.KeyLen {
		return fmt.Errorf("%s needs a %d byte key, got %d", v, p.KeyLen, len(cfg.key))
	}
	return nil
}
