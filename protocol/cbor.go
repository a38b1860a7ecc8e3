package protocol

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// eventCBOR is the archive layout: a map keyed by small integers.
type eventCBOR struct {
	Head      uint16 `cbor:"1,keyasint"`
	OBID      uint32 `cbor:"2,keyasint,omitempty"`
	Timestamp uint32 `cbor:"3,keyasint"`
	DateTime  int64  `cbor:"4,keyasint,omitempty"`
	Class     uint16 `cbor:"5,keyasint"`
	Type      uint16 `cbor:"6,keyasint"`
	GUID      []byte `cbor:"7,keyasint"`
	Data      []byte `cbor:"8,keyasint,omitempty"`
}

// MarshalCBOR encodes the event for capture files.
func (e *Event) MarshalCBOR() ([]byte, error) {
	c := eventCBOR{
		Head:      e.Head,
		OBID:      e.OBID,
		Timestamp: e.Timestamp,
		Class:     e.Class,
		Type:      e.Type,
		GUID:      e.GUID[:],
		Data:      e.Data,
	}
	if !e.DateTime.IsZero() {
		c.DateTime = e.DateTime.Unix()
	}
	return cbor.Marshal(c)
}

// UnmarshalCBOR decodes an event written by MarshalCBOR.
func (e *Event) UnmarshalCBOR(data []byte) error {
	var c eventCBOR
	if err := cbor.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("failed to decode CBOR event: %w", err)
	}
	if len(c.GUID) != GUIDSize {
		return fmt.Errorf("CBOR event GUID has %d bytes, expected %d", len(c.GUID), GUIDSize)
	}
	if len(c.Data) > MaxDataLevel2 {
		return fmt.Errorf("CBOR event data too large: %d bytes", len(c.Data))
	}

	*e = Event{
		Head:      c.Head,
		OBID:      c.OBID,
		Timestamp: c.Timestamp,
		Class:     c.Class,
		Type:      c.Type,
	}
	copy(e.GUID[:], c.GUID)
	if c.DateTime != 0 {
		e.DateTime = time.Unix(c.DateTime, 0).UTC()
	}
	if len(c.Data) > 0 {
		e.Data = append([]byte(nil), c.Data...)
	}
	return nil
}
