package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFrame is the root of all frame decoding failures
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrCRC indicates a frame whose CRC does not match its contents
	ErrCRC = errors.New("frame CRC mismatch")
)

// FrameError describes why a frame could not be decoded.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid frame: %s", e.Reason)
}

// Is makes FrameError match ErrInvalidFrame.
func (e *FrameError) Is(target error) bool {
	return target == ErrInvalidFrame
}

// TypeName returns a human-readable name for a CLASS1.PROTOCOL type.
func TypeName(typ uint16) string {
	switch typ {
	case TypeReadRegister:
		return "read register"
	case TypeRWResponse:
		return "read/write response"
	case TypeWriteRegister:
		return "write register"
	case TypeEnterBootLoader:
		return "enter bootloader"
	case TypeAckBootLoader:
		return "bootloader ACK"
	case TypeNackBootLoader:
		return "bootloader NACK"
	case TypeStartBlock:
		return "start block"
	case TypeBlockData:
		return "block data"
	case TypeBlockDataAck:
		return "block data ACK"
	case TypeBlockDataNack:
		return "block data NACK"
	case TypeProgramBlockData:
		return "program block"
	case TypeProgramBlockDataAck:
		return "program block ACK"
	case TypeProgramBlockDataNack:
		return "program block NACK"
	case TypeActivateNewImage:
		return "activate new image"
	case TypeExtendedPageRead:
		return "extended page read"
	case TypeExtendedPageResponse:
		return "extended page response"
	case TypeActivateNewImageAck:
		return "activate new image ACK"
	case TypeActivateNewImageNack:
		return "activate new image NACK"
	case TypeStartBlockAck:
		return "start block ACK"
	case TypeStartBlockNack:
		return "start block NACK"
	case TypeBlockChunkAck:
		return "block chunk ACK"
	case TypeBlockChunkNack:
		return "block chunk NACK"
	default:
		return fmt.Sprintf("type %d", typ)
	}
}
