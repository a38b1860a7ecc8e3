// Package config holds the settings of the vscpboot command: which
// transport to use, where the node is, and how to talk to it. Settings come
// from a YAML file and are overridden by command line flags.
package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-vscp/protocol"
)

// Transports understood by the command.
const (
	TransportUDP    = "udp"
	TransportWS     = "ws"
	TransportSerial = "serial"
)

// Config is the command configuration.
type Config struct {
	Transport       string        `yaml:"transport"`
	Address         string        `yaml:"address"`
	PortName        string        `yaml:"port_name"`
	Baud            int           `yaml:"baud"`
	Encryption      string        `yaml:"encryption"`
	Key             string        `yaml:"key"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	InterfaceGUID   string        `yaml:"interface_guid"`
	Timeout         time.Duration `yaml:"timeout"`
	RegisterTimeout time.Duration `yaml:"register_timeout"`
	QueueSize       int           `yaml:"queue_size"`
	Verbose         bool          `yaml:"verbose"`
}

// Default returns the built in settings.
func Default() Config {
	return Config{
		Transport:       TransportUDP,
		Address:         "127.0.0.1:33333",
		Baud:            115200,
		Timeout:         5 * time.Second,
		RegisterTimeout: 2 * time.Second,
		QueueSize:       1024,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse reads YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks that the settings describe a usable connection.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportUDP, TransportWS:
		if c.Address == "" {
			return fmt.Errorf("transport %s needs an address", c.Transport)
		}
	case TransportSerial:
		if c.PortName == "" {
			return fmt.Errorf("transport serial needs a port name")
		}
		if c.Baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", c.Baud)
		}
	default:
		return fmt.Errorf("unknown transport %q (use udp, ws or serial)", c.Transport)
	}

	enc, err := protocol.EncryptionFromToken(c.Encryption)
	if err != nil {
		return err
	}
	if enc != protocol.EncryptNone {
		key, err := c.KeyBytes()
		if err != nil {
			return err
		}
		v, _ := protocol.VariantForEncryption(enc)
		if len(key) != v.Params().KeyLen {
			return fmt.Errorf("%s needs a %d byte key, got %d", v, v.Params().KeyLen, len(key))
		}
	}

	if c.InterfaceGUID != "" {
		if _, err := protocol.ParseGUID(c.InterfaceGUID); err != nil {
			return fmt.Errorf("interface guid: %w", err)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// EncryptionCode returns the protocol.Encrypt* code for Encryption.
func (c Config) EncryptionCode() byte {
	enc, _ := protocol.EncryptionFromToken(c.Encryption)
	return enc
}

// KeyBytes decodes the hex key.
func (c Config) KeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(c.Key))
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	return key, nil
}

// IfGUID returns the parsed interface GUID, zero when unset.
func (c Config) IfGUID() protocol.GUID {
	g, _ := protocol.ParseGUID(c.InterfaceGUID)
	return g
}

// flag binds one setting to a command line flag.
type flag struct {
	name  string
	usage string
	bind  func(fs *pflag.FlagSet, c *Config, name, usage string)
	copy  func(dst, src *Config)
}

var flags = []flag{
	{"transport", "transport: udp, ws or serial",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.Transport, n, c.Transport, u) },
		func(d, s *Config) { d.Transport = s.Transport }},
	{"address", "udp host:port or websocket URL",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.Address, n, c.Address, u) },
		func(d, s *Config) { d.Address = s.Address }},
	{"port-name", "serial port (e.g. /dev/ttyUSB0)",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.PortName, n, c.PortName, u) },
		func(d, s *Config) { d.PortName = s.PortName }},
	{"baud", "serial baud rate",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.IntVar(&c.Baud, n, c.Baud, u) },
		func(d, s *Config) { d.Baud = s.Baud }},
	{"encryption", "frame encryption: none, aes128, aes192 or aes256",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.Encryption, n, c.Encryption, u) },
		func(d, s *Config) { d.Encryption = s.Encryption }},
	{"key", "encryption key in hex",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.Key, n, c.Key, u) },
		func(d, s *Config) { d.Key = s.Key }},
	{"user", "websocket user name",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.User, n, c.User, u) },
		func(d, s *Config) { d.User = s.User }},
	{"interface-guid", "GUID nickname requests are sent with",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.StringVar(&c.InterfaceGUID, n, c.InterfaceGUID, u) },
		func(d, s *Config) { d.InterfaceGUID = s.InterfaceGUID }},
	{"timeout", "wait for each reply",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.DurationVar(&c.Timeout, n, c.Timeout, u) },
		func(d, s *Config) { d.Timeout = s.Timeout }},
	{"verbose", "debug logging",
		func(fs *pflag.FlagSet, c *Config, n, u string) { fs.BoolVarP(&c.Verbose, n, "v", c.Verbose, u) },
		func(d, s *Config) { d.Verbose = s.Verbose }},
}

// RegisterFlags binds the settings to flags on fs, using the current
// values of c as defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	for _, f := range flags {
		f.bind(fs, c, f.name, f.usage)
	}
}

// MergeFile returns file with every flag that was set on fs taken from c.
// c must be the Config whose RegisterFlags was called on fs. Settings
// without a flag, such as Password, always come from the file.
func (c *Config) MergeFile(file Config, fs *pflag.FlagSet) Config {
	merged := file
	for _, f := range flags {
		if fs.Changed(f.name) {
			f.copy(&merged, c)
		}
	}
	return merged
}
