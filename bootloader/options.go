package bootloader

import (
	"time"

	"github.com/moffa90/go-vscp/protocol"
)

const (
	// DefaultResponseTimeout bounds the wait for each ACK or NACK
	DefaultResponseTimeout = 5 * time.Second

	// DefaultRegisterTimeout bounds a register read
	DefaultRegisterTimeout = 2 * time.Second

	// NicknameChunkSize is the chunk size for nickname addressed nodes
	NicknameChunkSize = protocol.MaxDataLevel1

	// GUIDChunkSize is the chunk size for GUID addressed nodes
	GUIDChunkSize = protocol.MaxDataLevel2
)

// Config holds the session configuration.
type Config struct {
	// StatusReporter receives progress messages (optional)
	StatusReporter StatusReporter

	// Logger is used for logging operations (optional)
	Logger Logger

	// Timeout bounds the wait for each ACK or NACK
	Timeout time.Duration

	// RegisterTimeout bounds a standard register read
	RegisterTimeout time.Duration

	// InterfaceGUID is the GUID nickname addressed requests are sent with
	InterfaceGUID protocol.GUID

	// Page overrides the register page announced in the enter bootloader
	// request. Without WithPage the node's page select register is sent.
	Page    uint16
	pageSet bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		StatusReporter:  nopReporter{},
		Timeout:         DefaultResponseTimeout,
		RegisterTimeout: DefaultRegisterTimeout,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithStatusReporter sets the receiver of progress messages.
//
// Example:
//
//	sess := bootloader.NewNicknameSession(client, 0x2A,
//	    bootloader.WithStatusReporter(bootloader.StatusFunc(func(p int, msg string) {
//	        fmt.Println(p, msg)
//	    })),
//	)
func WithStatusReporter(r StatusReporter) Option {
	return func(c *Config) {
		if r != nil {
			c.StatusReporter = r
		}
	}
}

// WithLogger sets a logger for the session operations.
//
// Example:
//
//	sess := bootloader.NewGUIDSession(client, guid, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets how long each step waits for its ACK or NACK.
//
// Example:
//
//	sess := bootloader.NewNicknameSession(client, 0x2A, bootloader.WithTimeout(10*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithRegisterTimeout sets how long a register read may take.
func WithRegisterTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.RegisterTimeout = timeout
		}
	}
}

// WithInterfaceGUID sets the GUID that nickname addressed requests carry.
// It is normally the GUID of the interface the node is reached through.
func WithInterfaceGUID(g protocol.GUID) Option {
	return func(c *Config) {
		c.InterfaceGUID = g
	}
}

// WithPage sets the register page sent with the enter bootloader request
// instead of the one read from the node.
func WithPage(page uint16) Option {
	return func(c *Config) {
		c.Page = page
		c.pageSet = true
	}
}
