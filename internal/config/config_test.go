package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-vscp/protocol"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, TransportUDP, cfg.Transport)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Second, cfg.RegisterTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	data := []byte(`
transport: ws
address: ws://localhost:8884/ws2
user: admin
password: secret
encryption: aes128
key: 2b7e151628aed2a6abf7158809cf4f3c
timeout: 750ms
verbose: true
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, TransportWS, cfg.Transport)
	assert.Equal(t, "ws://localhost:8884/ws2", cfg.Address)
	assert.Equal(t, "admin", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Verbose)
	// Untouched keys keep their defaults
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 2*time.Second, cfg.RegisterTimeout)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, byte(protocol.EncryptAES128), cfg.EncryptionCode())

	key, err := cfg.KeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 16)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("transprot: udp\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vscpboot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: serial\nport_name: /dev/ttyUSB0\nbaud: 57600\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportSerial, cfg.Transport)
	assert.Equal(t, "/dev/ttyUSB0", cfg.PortName)
	assert.Equal(t, 57600, cfg.Baud)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Transport = TransportWS
	cfg.Address = "wss://example.org/ws2"

	data, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown transport", func(c *Config) { c.Transport = "can" }, false},
		{"udp without address", func(c *Config) { c.Address = "" }, false},
		{"serial without port", func(c *Config) { c.Transport = TransportSerial }, false},
		{"serial bad baud", func(c *Config) { c.Transport = TransportSerial; c.PortName = "COM3"; c.Baud = 0 }, false},
		{"serial", func(c *Config) { c.Transport = TransportSerial; c.PortName = "COM3" }, true},
		{"unknown encryption", func(c *Config) { c.Encryption = "des" }, false},
		{"aes without key", func(c *Config) { c.Encryption = "aes256" }, false},
		{"aes wrong key size", func(c *Config) { c.Encryption = "aes256"; c.Key = "00112233445566778899aabbccddeeff" }, false},
		{"aes bad hex", func(c *Config) { c.Encryption = "aes128"; c.Key = "zz" }, false},
		{"aes192", func(c *Config) { c.Encryption = "aes192"; c.Key = "000102030405060708090a0b0c0d0e0f1011121314151617" }, true},
		{"bad interface guid", func(c *Config) { c.InterfaceGUID = "nope" }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMergeFile(t *testing.T) {
	flagCfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagCfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--address", "10.0.0.5:33333", "--timeout", "1s", "-v"}))

	file := Default()
	file.Address = "192.168.1.20:33333"
	file.Encryption = "aes128"
	file.Key = "2b7e151628aed2a6abf7158809cf4f3c"
	file.Password = "secret"

	merged := flagCfg.MergeFile(file, fs)
	assert.Equal(t, "10.0.0.5:33333", merged.Address, "flag wins")
	assert.Equal(t, time.Second, merged.Timeout)
	assert.True(t, merged.Verbose)
	assert.Equal(t, "aes128", merged.Encryption, "file value kept when flag unset")
	assert.Equal(t, "secret", merged.Password)
}
