package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GUID is the 16-byte globally unique identifier of a VSCP node.
type GUID [GUIDSize]byte

// String formats g as colon separated upper case hex, e.g. "FF:FF:...:01".
func (g GUID) String() string {
	var sb strings.Builder
	sb.Grow(GUIDSize*3 - 1)
	for i, b := range g {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// IsZero reports whether every byte of g is zero.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// Nickname returns the least significant byte, which holds the node
// nickname for GUIDs formed from an interface GUID.
func (g GUID) Nickname() byte {
	return g[GUIDSize-1]
}

// WithNickname returns a copy of g with the nickname byte replaced.
func (g GUID) WithNickname(nickname byte) GUID {
	g[GUIDSize-1] = nickname
	return g
}

// ParseGUID parses the colon separated form. An empty string or "-" is the
// all zero GUID.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return g, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != GUIDSize {
		return g, fmt.Errorf("invalid GUID %q: got %d bytes, expected %d", s, len(parts), GUIDSize)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 16, 8)
		if err != nil {
			return g, fmt.Errorf("invalid GUID %q: byte %d: %w", s, i, err)
		}
		g[i] = byte(v)
	}
	return g, nil
}

// MustParseGUID is like ParseGUID but panics on error.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Event is a VSCP event.
type Event struct {
	// Head holds the priority (bits 5-7) and flag bits
	Head uint16

	// OBID is an interface specific object id
	OBID uint32

	// Timestamp is a relative microsecond counter
	Timestamp uint32

	// DateTime is the UTC time the event was created (zero when unknown)
	DateTime time.Time

	// Class is the VSCP class
	Class uint16

	// Type is the VSCP type within Class
	Type uint16

	// GUID identifies the originating node
	GUID GUID

	// Data is the payload (at most MaxDataLevel2 bytes)
	Data []byte
}

var processStart = time.Now()

// MakeTimestamp returns the microsecond timestamp for a new event.
func MakeTimestamp() uint32 {
	return uint32(time.Since(processStart).Microseconds())
}

// NewEvent creates an event stamped with the current time.
func NewEvent(class, typ uint16, guid GUID, data []byte) *Event {
	ev := &Event{
		Timestamp: MakeTimestamp(),
		DateTime:  time.Now().UTC().Truncate(time.Second),
		Class:     class,
		Type:      typ,
		GUID:      guid,
	}
	if len(data) > 0 {
		ev.Data = append([]byte(nil), data...)
	}
	return ev
}

// Priority returns the 0-7 priority stored in the head.
func (e *Event) Priority() uint8 {
	return uint8((e.Head & HeadPriorityMask) >> 5)
}

// SetPriority stores p (0-7) in the head.
func (e *Event) SetPriority(p uint8) {
	e.Head = (e.Head &^ HeadPriorityMask) | (uint16(p&0x07) << 5)
}

// IsHardCoded reports whether the hard coded nickname bit is set.
func (e *Event) IsHardCoded() bool {
	return e.Head&HeadHardCoded != 0
}

// SetHardCoded sets or clears the hard coded nickname bit.
func (e *Event) SetHardCoded(on bool) {
	if on {
		e.Head |= HeadHardCoded
	} else {
		e.Head &^= HeadHardCoded
	}
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	c := *e
	if e.Data != nil {
		c.Data = append([]byte(nil), e.Data...)
	}
	return &c
}

// IsLevel1 reports whether the event fits a level I frame.
func (e *Event) IsLevel1() bool {
	return e.Class < ClassLevel2Level1Protocol && len(e.Data) <= MaxDataLevel1
}

// Is reports whether e has the given class and type.
func (e *Event) Is(class, typ uint16) bool {
	return e.Class == class && e.Type == typ
}
