package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/moffa90/go-vscp/aes"
)

// FrameSize returns the encoded size of an event with dataLen bytes.
func FrameSize(dataLen int) int {
	return FrameOverhead + dataLen
}

// EncodeFrame builds an unencrypted UDP frame for ev.
//
// Frame structure:
//
//	[PKTTYPE][HEAD(2)][TIMESTAMP(4)][YEAR(2)][MONTH][DAY][HOUR][MIN][SEC]
//	[CLASS(2)][TYPE(2)][GUID(16)][SIZE(2)][DATA...][CRC(2)]
func EncodeFrame(pktType byte, ev *Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("event cannot be nil")
	}
	if len(ev.Data) > MaxDataLevel2 {
		return nil, fmt.Errorf("event data too large: %d bytes (max %d)", len(ev.Data), MaxDataLevel2)
	}

	frame := make([]byte, FrameSize(len(ev.Data)))
	frame[FramePosPktType] = pktType
	binary.BigEndian.PutUint16(frame[FramePosHead:], ev.Head)
	binary.BigEndian.PutUint32(frame[FramePosTimestamp:], ev.Timestamp)

	if !ev.DateTime.IsZero() {
		dt := ev.DateTime.UTC()
		binary.BigEndian.PutUint16(frame[FramePosYear:], uint16(dt.Year()))
		frame[FramePosMonth] = byte(dt.Month())
		frame[FramePosDay] = byte(dt.Day())
		frame[FramePosHour] = byte(dt.Hour())
		frame[FramePosMinute] = byte(dt.Minute())
		frame[FramePosSecond] = byte(dt.Second())
	}

	binary.BigEndian.PutUint16(frame[FramePosClass:], ev.Class)
	binary.BigEndian.PutUint16(frame[FramePosType:], ev.Type)
	copy(frame[FramePosGUID:], ev.GUID[:])
	binary.BigEndian.PutUint16(frame[FramePosSize:], uint16(len(ev.Data)))
	copy(frame[FramePosData:], ev.Data)

	end := FramePosData + len(ev.Data)
	binary.BigEndian.PutUint16(frame[end:], CRC16(frame[FramePosHead:end]))

	return frame, nil
}

// DecodeFrame parses an unencrypted UDP frame. Trailing bytes after the CRC
// (cipher padding) are ignored. The CRC is skipped when the head carries
// HeadNoCRC.
func DecodeFrame(buf []byte) (*Event, byte, error) {
	if len(buf) < FrameOverhead {
		return nil, 0, &FrameError{Reason: fmt.Sprintf("too short: %d bytes, minimum is %d", len(buf), FrameOverhead)}
	}

	size := int(binary.BigEndian.Uint16(buf[FramePosSize:]))
	if size > MaxDataLevel2 {
		return nil, 0, &FrameError{Reason: fmt.Sprintf("data size %d exceeds %d", size, MaxDataLevel2)}
	}
	if len(buf) < FrameSize(size) {
		return nil, 0, &FrameError{Reason: fmt.Sprintf("incomplete: got %d bytes, expected %d", len(buf), FrameSize(size))}
	}

	head := binary.BigEndian.Uint16(buf[FramePosHead:])
	end := FramePosData + size
	if head&HeadNoCRC == 0 {
		want := binary.BigEndian.Uint16(buf[end:])
		if got := CRC16(buf[FramePosHead:end]); got != want {
			return nil, 0, fmt.Errorf("%w: %w (got 0x%04X, frame says 0x%04X)", ErrInvalidFrame, ErrCRC, got, want)
		}
	}

	ev := &Event{
		Head:      head,
		Timestamp: binary.BigEndian.Uint32(buf[FramePosTimestamp:]),
		Class:     binary.BigEndian.Uint16(buf[FramePosClass:]),
		Type:      binary.BigEndian.Uint16(buf[FramePosType:]),
	}
	copy(ev.GUID[:], buf[FramePosGUID:FramePosGUID+GUIDSize])

	year := int(binary.BigEndian.Uint16(buf[FramePosYear:]))
	if year != 0 || buf[FramePosMonth] != 0 {
		ev.DateTime = time.Date(year, time.Month(buf[FramePosMonth]), int(buf[FramePosDay]),
			int(buf[FramePosHour]), int(buf[FramePosMinute]), int(buf[FramePosSecond]), 0, time.UTC)
	}
	if size > 0 {
		ev.Data = append([]byte(nil), buf[FramePosData:end]...)
	}

	return ev, buf[FramePosPktType], nil
}

// EncryptionFromToken maps "", "none", "aes128", "aes192" and "aes256" to
// an encryption code.
func EncryptionFromToken(token string) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "none":
		return EncryptNone, nil
	case "aes128":
		return EncryptAES128, nil
	case "aes192":
		return EncryptAES192, nil
	case "aes256":
		return EncryptAES256, nil
	}
	return 0, fmt.Errorf("unknown encryption %q", token)
}

// EncryptionToken is the inverse of EncryptionFromToken.
func EncryptionToken(code byte) string {
	switch code {
	case EncryptAES128:
		return "aes128"
	case EncryptAES192:
		return "aes192"
	case EncryptAES256:
		return "aes256"
	default:
		return ""
	}
}

// VariantForEncryption returns the cipher variant for an encryption code.
func VariantForEncryption(code byte) (aes.Variant, error) {
	switch code {
	case EncryptAES128:
		return aes.AES128, nil
	case EncryptAES192:
		return aes.AES192, nil
	case EncryptAES256:
		return aes.AES256, nil
	}
	return 0, fmt.Errorf("no cipher for encryption code %d", code)
}

// EncryptFrame encrypts a frame built by EncodeFrame. The packet type byte
// stays in the clear with its low nibble set to enc; the rest is zero
// padded to whole blocks, CBC encrypted under a fresh random IV, and the IV
// is appended.
//
//	[PKTTYPE][CIPHERTEXT(n*16)][IV(16)]
func EncryptFrame(frame, key []byte, enc byte) ([]byte, error) {
	if len(frame) < 1 {
		return nil, &FrameError{Reason: "empty frame"}
	}
	if enc == EncryptNone {
		return append([]byte(nil), frame...), nil
	}

	v, err := VariantForEncryption(enc)
	if err != nil {
		return nil, err
	}

	payload := len(frame) - 1
	padded := (payload + aes.BlockSize - 1) / aes.BlockSize * aes.BlockSize
	out := make([]byte, 1+padded+aes.BlockSize)
	out[0] = (frame[0] & 0xF0) | enc
	copy(out[1:], frame[1:])

	iv := out[1+padded:]
	if _, err := aes.RandomIV(iv); err != nil {
		return nil, fmt.Errorf("encrypt frame: %w", err)
	}
	if err := aes.CBCEncrypt(v, out[1:1+padded], out[1:1+padded], key, iv); err != nil {
		return nil, fmt.Errorf("encrypt frame: %w", err)
	}
	return out, nil
}

// DecryptFrame reverses EncryptFrame. Passing EncryptFromType takes the
// algorithm from the frame's packet type byte. The result may carry zero
// padding after the CRC, which DecodeFrame ignores.
func DecryptFrame(buf, key []byte, enc byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, &FrameError{Reason: "empty frame"}
	}
	if enc == EncryptFromType {
		enc = buf[0] & 0x0F
	}
	if enc == EncryptNone {
		return append([]byte(nil), buf...), nil
	}

	v, err := VariantForEncryption(enc)
	if err != nil {
		return nil, err
	}

	body := len(buf) - 1 - aes.BlockSize
	if body < aes.BlockSize || body%aes.BlockSize != 0 {
		return nil, &FrameError{Reason: fmt.Sprintf("encrypted length %d is not 1+n*16+16", len(buf))}
	}

	out := make([]byte, 1+body)
	out[0] = buf[0]
	iv := buf[1+body:]
	if err := aes.CBCDecrypt(v, out[1:], buf[1:1+body], key, iv); err != nil {
		return nil, fmt.Errorf("decrypt frame: %w", err)
	}
	return out, nil
}
