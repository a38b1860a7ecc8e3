package transport

import "fmt"

// SLIP (RFC 1055) special bytes.
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// maxSLIPFrame bounds a decoded frame.
const maxSLIPFrame = 2048

// slipEncode wraps frame in END bytes, escaping END and ESC inside it.
func slipEncode(frame []byte) []byte {
	out := make([]byte, 0, len(frame)*2+2)
	out = append(out, slipEnd)
	for _, b := range frame {
		switch b {
		case slipEnd:
			out = append(out, slipEsc, slipEscEnd)
		case slipEsc:
			out = append(out, slipEsc, slipEscEsc)
		default:
			out = append(out, b)
		}
	}
	return append(out, slipEnd)
}

// slipDecoder reassembles frames from a SLIP byte stream.
type slipDecoder struct {
	buf        []byte
	escapeNext bool
	overflow   bool
}

// decodeByte feeds one byte. It returns a frame when b completes one.
// Empty frames between back to back END bytes are skipped.
func (d *slipDecoder) decodeByte(b byte) ([]byte, error) {
	if b == slipEnd {
		frame, overflow, badEscape := d.buf, d.overflow, d.escapeNext
		d.reset()
		switch {
		case overflow:
			return nil, fmt.Errorf("slip frame exceeds %d bytes", maxSLIPFrame)
		case badEscape:
			return nil, fmt.Errorf("slip frame ends inside an escape sequence")
		case len(frame) == 0:
			return nil, nil
		}
		return frame, nil
	}

	if d.escapeNext {
		d.escapeNext = false
		switch b {
		case slipEscEnd:
			b = slipEnd
		case slipEscEsc:
			b = slipEsc
		default:
			// Protocol violation, keep the byte as RFC 1055 suggests
		}
	} else if b == slipEsc {
		d.escapeNext = true
		return nil, nil
	}

	if len(d.buf) >= maxSLIPFrame {
		d.overflow = true
		return nil, nil
	}
	d.buf = append(d.buf, b)
	return nil, nil
}

func (d *slipDecoder) reset() {
	d.buf = nil
	d.escapeNext = false
	d.overflow = false
}
