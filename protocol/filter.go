package protocol

import (
	"fmt"
	"strings"
)

// Filter selects events by priority, class, type and GUID. A field matches
// when (filter ^ value) & mask == 0, so a zero mask accepts everything.
type Filter struct {
	FilterPriority uint8
	FilterClass    uint16
	FilterType     uint16
	FilterGUID     GUID

	MaskPriority uint8
	MaskClass    uint16
	MaskType     uint16
	MaskGUID     GUID
}

// Match reports whether ev passes the filter. A nil filter matches all.
func (f *Filter) Match(ev *Event) bool {
	if f == nil || ev == nil {
		return f == nil
	}
	if (f.FilterPriority^ev.Priority())&f.MaskPriority != 0 {
		return false
	}
	if (f.FilterClass^ev.Class)&f.MaskClass != 0 {
		return false
	}
	if (f.FilterType^ev.Type)&f.MaskType != 0 {
		return false
	}
	for i := 0; i < GUIDSize; i++ {
		if (f.FilterGUID[i]^ev.GUID[i])&f.MaskGUID[i] != 0 {
			return false
		}
	}
	return true
}

// SetFilterFromString reads "priority,class,type,GUID" into the filter
// fields. Missing trailing fields are left at zero.
func (f *Filter) SetFilterFromString(s string) error {
	p, c, t, g, err := parseFilterFields(s)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	f.FilterPriority, f.FilterClass, f.FilterType, f.FilterGUID = p, c, t, g
	return nil
}

// SetMaskFromString reads "priority,class,type,GUID" into the mask fields.
func (f *Filter) SetMaskFromString(s string) error {
	p, c, t, g, err := parseFilterFields(s)
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	f.MaskPriority, f.MaskClass, f.MaskType, f.MaskGUID = p, c, t, g
	return nil
}

// ParseFilter builds a Filter from filter and mask strings.
func ParseFilter(filter, mask string) (*Filter, error) {
	f := &Filter{}
	if err := f.SetFilterFromString(filter); err != nil {
		return nil, err
	}
	if err := f.SetMaskFromString(mask); err != nil {
		return nil, err
	}
	return f, nil
}

// String formats the filter part the way SetFilterFromString reads it.
func (f *Filter) String() string {
	return fmt.Sprintf("%d,0x%04X,0x%04X,%s", f.FilterPriority, f.FilterClass, f.FilterType, f.FilterGUID)
}

func parseFilterFields(s string) (prio uint8, class, typ uint16, guid GUID, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	parts := strings.SplitN(s, ",", 4)
	prio = uint8(ParseValue(parts[0]) & 0x07)
	if len(parts) > 1 {
		class = uint16(ParseValue(parts[1]))
	}
	if len(parts) > 2 {
		typ = uint16(ParseValue(parts[2]))
	}
	if len(parts) > 3 {
		guid, err = ParseGUID(parts[3])
	}
	return
}

// ParseValue reads an unsigned number with an optional 0x, 0o or 0b prefix
// (decimal otherwise). Parsing stops at the first character that is not a
// digit of the base, so "0b189" is 1 and "" is 0.
func ParseValue(s string) uint32 {
	s = strings.ToLower(strings.TrimSpace(s))
	base := uint64(10)
	switch {
	case strings.HasPrefix(s, "0x"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0o"):
		base, s = 8, s[2:]
	case strings.HasPrefix(s, "0b"):
		base, s = 2, s[2:]
	}

	var v uint64
	for _, r := range s {
		var d uint64
		switch {
		case r >= '0' && r <= '9':
			d = uint64(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint64(r-'a') + 10
		default:
			return uint32(v)
		}
		if d >= base {
			break
		}
		v = v*base + d
		if v > 0xFFFFFFFF {
			return 0xFFFFFFFF
		}
	}
	return uint32(v)
}
