package transport

import (
	"time"

	"github.com/moffa90/go-vscp/protocol"
)

// DefaultQueueSize is the receive queue capacity.
const DefaultQueueSize = 1024

// Logger is an optional logging interface, the same shape the bootloader
// package accepts.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type config struct {
	queueSize        int
	filter           *protocol.Filter
	logger           Logger
	encryption       byte
	key              []byte
	username         string
	password         string
	insecure         bool
	handshakeTimeout time.Duration
}

func defaultConfig() config {
	return config{
		queueSize:        DefaultQueueSize,
		encryption:       protocol.EncryptNone,
		handshakeTimeout: 10 * time.Second,
	}
}

// Option configures a client.
type Option func(*config)

// WithQueueSize sets how many received events are buffered. When the queue
// is full the oldest event is dropped.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithFilter only queues events that pass f.
func WithFilter(f *protocol.Filter) Option {
	return func(c *config) {
		c.filter = f
	}
}

// WithLogger sets a logger for receive errors and dropped events.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithEncryption encrypts outgoing frames with the given protocol.Encrypt*
// code and decrypts incoming ones with key. Used by UDPClient and
// StreamClient.
//
// Example:
//
//	client, err := transport.DialUDP(ctx, "192.168.1.20:33333",
//	    transport.WithEncryption(protocol.EncryptAES128, key),
//	)
func WithEncryption(enc byte, key []byte) Option {
	return func(c *config) {
		c.encryption = enc
		c.key = append([]byte(nil), key...)
	}
}

// WithCredentials sets the user and password for websocket Basic auth.
func WithCredentials(username, password string) Option {
	return func(c *config) {
		c.username = username
		c.password = password
	}
}

// WithInsecureSkipVerify disables TLS certificate checks for wss:// URLs.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *config) {
		c.insecure = skip
	}
}

func (c *config) logDebug(msg string, keysAndValues ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, keysAndValues...)
	}
}

func (c *config) logError(msg string, keysAndValues ...interface{}) {
	if c.logger != nil {
		c.logger.Error(msg, keysAndValues...)
	}
}
