package protocol

import "fmt"

// CANAL flags.
const (
	// CANALFlagExtended marks an extended (29-bit) identifier
	CANALFlagExtended = 0x01

	// CANALHardCodedBit is the id bit for a hard coded nickname
	CANALHardCodedBit = 1 << 25
)

// CANALMessage is a CAN frame as seen through the CANAL interface.
type CANALMessage struct {
	Flags     uint32
	OBID      uint32
	ID        uint32
	Data      []byte
	Timestamp uint32
}

// GetCANALID packs priority, class, type and nickname into a 29-bit CAN id.
func GetCANALID(priority uint8, class, typ uint16, nickname uint8, hardcoded bool) uint32 {
	id := uint32(priority&0x07)<<26 |
		uint32(class&0x1FF)<<16 |
		uint32(typ&0xFF)<<8 |
		uint32(nickname)
	if hardcoded {
		id |= CANALHardCodedBit
	}
	return id
}

// PriorityFromCANALID extracts the priority.
func PriorityFromCANALID(id uint32) uint8 { return uint8((id >> 26) & 0x07) }

// ClassFromCANALID extracts the class.
func ClassFromCANALID(id uint32) uint16 { return uint16((id >> 16) & 0x1FF) }

// TypeFromCANALID extracts the type.
func TypeFromCANALID(id uint32) uint16 { return uint16((id >> 8) & 0xFF) }

// NicknameFromCANALID extracts the originating nickname.
func NicknameFromCANALID(id uint32) uint8 { return uint8(id & 0xFF) }

// HeadFromCANALID rebuilds the event head from an id.
func HeadFromCANALID(id uint32) uint16 {
	head := uint16(PriorityFromCANALID(id)) << 5
	if id&CANALHardCodedBit != 0 {
		head |= HeadHardCoded
	}
	return head
}

// CANALFromEvent converts a level I event to a CANAL message. The nickname
// is taken from the GUID's least significant byte.
func CANALFromEvent(ev *Event) (*CANALMessage, error) {
	if !ev.IsLevel1() {
		return nil, fmt.Errorf("event class=%d size=%d does not fit a CAN frame", ev.Class, len(ev.Data))
	}
	return &CANALMessage{
		Flags:     CANALFlagExtended,
		OBID:      ev.OBID,
		ID:        GetCANALID(ev.Priority(), ev.Class, ev.Type, ev.GUID.Nickname(), ev.IsHardCoded()),
		Data:      append([]byte(nil), ev.Data...),
		Timestamp: ev.Timestamp,
	}, nil
}

// EventFromCANAL converts a CANAL message to an event whose GUID is the
// interface GUID with the sender's nickname in the last byte.
func EventFromCANAL(msg *CANALMessage, ifGUID GUID) (*Event, error) {
	if len(msg.Data) > MaxDataLevel1 {
		return nil, fmt.Errorf("CAN frame has %d data bytes, maximum is %d", len(msg.Data), MaxDataLevel1)
	}
	ev := &Event{
		Head:      HeadFromCANALID(msg.ID),
		OBID:      msg.OBID,
		Timestamp: msg.Timestamp,
		Class:     ClassFromCANALID(msg.ID),
		Type:      TypeFromCANALID(msg.ID),
		GUID:      ifGUID.WithNickname(NicknameFromCANALID(msg.ID)),
	}
	if len(msg.Data) > 0 {
		ev.Data = append([]byte(nil), msg.Data...)
	}
	return ev, nil
}
