package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/moffa90/go-vscp/bootloader"
	"github.com/moffa90/go-vscp/internal/config"
	"github.com/moffa90/go-vscp/protocol"
	"github.com/moffa90/go-vscp/transport"
)

// passwordEnv is checked before prompting for a websocket password.
const passwordEnv = "VSCP_PASSWORD"

// eventConn is an open connection to the bus.
type eventConn interface {
	bootloader.EventClient
	io.Closer
}

// connect validates the settings and opens the configured transport.
func (a *app) connect(ctx context.Context, filter *protocol.Filter) (eventConn, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	var extra []transport.Option
	if filter != nil {
		a.log.Debug("receive filter", "filter", filter.String())
		extra = append(extra, transport.WithFilter(filter))
	}
	conn, info, err := a.dial(ctx, a, extra)
	if err != nil {
		return nil, err
	}
	a.log.Info("connected", "to", info)
	return conn, nil
}

func transportOptions(a *app) ([]transport.Option, error) {
	opts := []transport.Option{
		transport.WithLogger(logAdapter{a.log}),
	}
	if a.cfg.QueueSize > 0 {
		opts = append(opts, transport.WithQueueSize(a.cfg.QueueSize))
	}
	if enc := a.cfg.EncryptionCode(); enc != protocol.EncryptNone {
		key, err := a.cfg.KeyBytes()
		if err != nil {
			return nil, err
		}
		opts = append(opts, transport.WithEncryption(enc, key))
	}
	return opts, nil
}

// dialTransport opens a UDP, websocket or serial client per the config.
func dialTransport(ctx context.Context, a *app, extra []transport.Option) (eventConn, string, error) {
	opts, err := transportOptions(a)
	if err != nil {
		return nil, "", err
	}
	opts = append(opts, extra...)

	switch a.cfg.Transport {
	case config.TransportUDP:
		c, err := transport.DialUDP(ctx, a.cfg.Address, opts...)
		if err != nil {
			return nil, "", err
		}
		return c, "udp " + a.cfg.Address, nil

	case config.TransportWS:
		if a.cfg.User != "" {
			password := a.cfg.Password
			if password == "" {
				password, err = getPassword()
				if err != nil {
					return nil, "", err
				}
			}
			opts = append(opts, transport.WithCredentials(a.cfg.User, password))
		}
		c, err := transport.DialWS(ctx, a.cfg.Address, opts...)
		if err != nil {
			return nil, "", err
		}
		// ws2 servers deliver events only once the channel is opened
		if err := c.Command(ctx, "OPEN", nil); err != nil {
			c.Close()
			return nil, "", err
		}
		return c, "websocket " + a.cfg.Address, nil

	case config.TransportSerial:
		c, err := transport.OpenSerial(a.cfg.PortName, a.cfg.Baud, opts...)
		if err != nil {
			return nil, "", err
		}
		return c, fmt.Sprintf("serial %s @ %d baud", a.cfg.PortName, a.cfg.Baud), nil
	}
	return nil, "", fmt.Errorf("unknown transport %q", a.cfg.Transport)
}

// getPassword reads the websocket password from the environment or
// prompts for it without echo.
func getPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal; read a plain line
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(pw), nil
}
