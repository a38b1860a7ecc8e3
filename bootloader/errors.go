package bootloader

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-vscp/protocol"
)

var (
	// ErrCommunication reports a transport failure
	ErrCommunication = errors.New("communication failure")

	// ErrTimeout reports a step that got no answer in time
	ErrTimeout = errors.New("timeout")

	// ErrNack reports a step the node explicitly rejected
	ErrNack = errors.New("rejected by node")

	// ErrParameter reports an invalid argument or session state
	ErrParameter = errors.New("invalid parameter")

	// ErrSize reports a chunk or block size violation
	ErrSize = errors.New("size violation")

	// ErrNotSupported reports a node whose bootloader cannot be driven
	ErrNotSupported = errors.New("not supported")
)

// CommunicationError wraps a transport failure during an operation.
type CommunicationError struct {
	Operation string
	Err       error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s: communication failure: %v", e.Operation, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// Is makes CommunicationError match ErrCommunication.
func (e *CommunicationError) Is(target error) bool { return target == ErrCommunication }

// TimeoutError indicates that no matching reply arrived in time.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
	Ignored   int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no reply within %s (%d unrelated events ignored)",
		e.Operation, e.Timeout, e.Ignored)
}

// Is makes TimeoutError match ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// NackError indicates that the node answered with a NACK.
type NackError struct {
	Operation string
	Type      uint16
	Data      []byte
}

func (e *NackError) Error() string {
	return fmt.Sprintf("%s: rejected by node (%s)", e.Operation, protocol.TypeName(e.Type))
}

// Is makes NackError match ErrNack.
func (e *NackError) Is(target error) bool { return target == ErrNack }

// AlgorithmError indicates a node whose bootloader algorithm is not VSCP.
type AlgorithmError struct {
	Expected byte
	Actual   byte
}

func (e *AlgorithmError) Error() string {
	return fmt.Sprintf("bootloader algorithm mismatch: expected 0x%02X, device has 0x%02X",
		e.Expected, e.Actual)
}

// Is makes AlgorithmError match ErrNotSupported.
func (e *AlgorithmError) Is(target error) bool { return target == ErrNotSupported }

// DeviceCodeMismatchError indicates that the firmware was built for another device.
type DeviceCodeMismatchError struct {
	Expected uint16
	Actual   uint16
}

func (e *DeviceCodeMismatchError) Error() string {
	return fmt.Sprintf("device code mismatch: firmware expects 0x%04X, device has 0x%04X",
		e.Expected, e.Actual)
}

// Is makes DeviceCodeMismatchError match ErrParameter.
func (e *DeviceCodeMismatchError) Is(target error) bool { return target == ErrParameter }

// ChunkSizeError indicates a chunk larger than the negotiated limit.
type ChunkSizeError struct {
	What  string
	Size  int
	Limit int
}

func (e *ChunkSizeError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds limit of %d", e.What, e.Size, e.Limit)
}

// Is makes ChunkSizeError match ErrSize.
func (e *ChunkSizeError) Is(target error) bool { return target == ErrSize }
