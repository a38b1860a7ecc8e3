package protocol

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTimeLayout is the ISO form used by the string, JSON and XML encodings.
const DateTimeLayout = "2006-01-02T15:04:05Z"

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if !strings.HasSuffix(s, "Z") {
		s += "Z"
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q: %w", s, err)
	}
	return t, nil
}

func formatData(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ",")
}

func parseData(fields []string) []byte {
	if len(fields) == 0 {
		return nil
	}
	data := make([]byte, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		data = append(data, byte(ParseValue(f)))
	}
	return data
}

// String returns the comma separated form
// "head,class,type,obid,datetime,timestamp,GUID,data0,data1,...".
func (e *Event) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d,%d,%d,%d,%s,%d,%s", e.Head, e.Class, e.Type, e.OBID,
		formatDateTime(e.DateTime), e.Timestamp, e.GUID)
	if len(e.Data) > 0 {
		sb.WriteByte(',')
		sb.WriteString(formatData(e.Data))
	}
	return sb.String()
}

// ParseEvent reads the form produced by Event.String. Numeric fields accept
// the prefixes understood by ParseValue.
//
// Example:
//
//	ev, err := protocol.ParseEvent("0,10,6,0,,0,-,138,0,25")
func ParseEvent(s string) (*Event, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) < 7 {
		return nil, fmt.Errorf("event string needs at least 7 fields, got %d", len(fields))
	}

	dt, err := parseDateTime(fields[4])
	if err != nil {
		return nil, err
	}
	guid, err := ParseGUID(fields[6])
	if err != nil {
		return nil, err
	}

	ev := &Event{
		Head:      uint16(ParseValue(fields[0])),
		Class:     uint16(ParseValue(fields[1])),
		Type:      uint16(ParseValue(fields[2])),
		OBID:      ParseValue(fields[3]),
		DateTime:  dt,
		Timestamp: ParseValue(fields[5]),
		GUID:      guid,
		Data:      parseData(fields[7:]),
	}
	if len(ev.Data) > MaxDataLevel2 {
		return nil, fmt.Errorf("event data too large: %d bytes", len(ev.Data))
	}
	return ev, nil
}

type eventJSON struct {
	Head      uint16 `json:"vscpHead"`
	OBID      uint32 `json:"vscpObid"`
	DateTime  string `json:"vscpDateTime"`
	Timestamp uint32 `json:"vscpTimeStamp"`
	Class     uint16 `json:"vscpClass"`
	Type      uint16 `json:"vscpType"`
	GUID      string `json:"vscpGuid"`
	Data      []int  `json:"vscpData"`
}

// MarshalJSON encodes the event with the vscp* keys used by VSCP web clients.
func (e *Event) MarshalJSON() ([]byte, error) {
	j := eventJSON{
		Head:      e.Head,
		OBID:      e.OBID,
		DateTime:  formatDateTime(e.DateTime),
		Timestamp: e.Timestamp,
		Class:     e.Class,
		Type:      e.Type,
		GUID:      e.GUID.String(),
		Data:      make([]int, len(e.Data)),
	}
	for i, b := range e.Data {
		j.Data[i] = int(b)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes the vscp* keyed form.
func (e *Event) UnmarshalJSON(b []byte) error {
	var j eventJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	dt, err := parseDateTime(j.DateTime)
	if err != nil {
		return err
	}
	guid, err := ParseGUID(j.GUID)
	if err != nil {
		return err
	}
	if len(j.Data) > MaxDataLevel2 {
		return fmt.Errorf("event data too large: %d bytes", len(j.Data))
	}

	*e = Event{
		Head:      j.Head,
		OBID:      j.OBID,
		DateTime:  dt,
		Timestamp: j.Timestamp,
		Class:     j.Class,
		Type:      j.Type,
		GUID:      guid,
	}
	if len(j.Data) > 0 {
		e.Data = make([]byte, len(j.Data))
		for i, v := range j.Data {
			if v < 0 || v > 255 {
				return fmt.Errorf("data byte %d out of range: %d", i, v)
			}
			e.Data[i] = byte(v)
		}
	}
	return nil
}

type eventXML struct {
	XMLName   xml.Name `xml:"event"`
	Head      uint16   `xml:"vscpHead,attr"`
	OBID      uint32   `xml:"vscpObid,attr"`
	DateTime  string   `xml:"vscpDateTime,attr"`
	Timestamp uint32   `xml:"vscpTimeStamp,attr"`
	Class     uint16   `xml:"vscpClass,attr"`
	Type      uint16   `xml:"vscpType,attr"`
	GUID      string   `xml:"vscpGuid,attr"`
	Data      string   `xml:"vscpData,attr"`
}

// MarshalXML writes <event vscpHead="..." ... vscpData="1,2,3"/>.
func (e *Event) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	return enc.Encode(eventXML{
		Head:      e.Head,
		OBID:      e.OBID,
		DateTime:  formatDateTime(e.DateTime),
		Timestamp: e.Timestamp,
		Class:     e.Class,
		Type:      e.Type,
		GUID:      e.GUID.String(),
		Data:      formatData(e.Data),
	})
}

// UnmarshalXML reads the attribute form written by MarshalXML.
func (e *Event) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var x eventXML
	if err := dec.DecodeElement(&x, &start); err != nil {
		return err
	}
	dt, err := parseDateTime(x.DateTime)
	if err != nil {
		return err
	}
	guid, err := ParseGUID(x.GUID)
	if err != nil {
		return err
	}
	*e = Event{
		Head:      x.Head,
		OBID:      x.OBID,
		DateTime:  dt,
		Timestamp: x.Timestamp,
		Class:     x.Class,
		Type:      x.Type,
		GUID:      guid,
	}
	if x.Data != "" {
		e.Data = parseData(strings.Split(x.Data, ","))
	}
	return nil
}
