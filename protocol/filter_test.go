package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"54321", 54321},
		{"102", 102},
		{"0xffff", 65535},
		{"0XFF", 255},
		{"0o77", 63},
		{"0b1010", 10},
		{"0b189", 1},
		{"4294967295", 4294967295},
		{"99999999999", 0xFFFFFFFF},
		{" 42 ", 42},
		{"12abc", 12},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.in))
		})
	}
}

func TestFilterFromString(t *testing.T) {
	var f Filter
	require.NoError(t, f.SetFilterFromString("3,0x0201,0x0006,ff:ff:ff:ff:ff:ff:fe:01:00:00:00:00:01:00:00:20"))
	assert.Equal(t, uint8(3), f.FilterPriority)
	assert.Equal(t, uint16(513), f.FilterClass)
	assert.Equal(t, uint16(6), f.FilterType)
	assert.Equal(t, GUID{255, 255, 255, 255, 255, 255, 254, 1, 0, 0, 0, 0, 1, 0, 0, 32}, f.FilterGUID)

	require.NoError(t, f.SetMaskFromString("7,0x0101,0x0076,ff:ff:ff:33:ff:ff:fe:01:00:00:00:00:01:00:00:20"))
	assert.Equal(t, uint8(7), f.MaskPriority)
	assert.Equal(t, uint16(257), f.MaskClass)
	assert.Equal(t, uint16(118), f.MaskType)
	assert.Equal(t, GUID{255, 255, 255, 51, 255, 255, 254, 1, 0, 0, 0, 0, 1, 0, 0, 32}, f.MaskGUID)

	assert.Error(t, f.SetFilterFromString("1,2,3,zz"))
}

func TestFilterMatch(t *testing.T) {
	ev := &Event{Class: 10, Type: 6, GUID: GUID{15: 0x20}}
	ev.SetPriority(3)

	tests := []struct {
		name   string
		filter string
		mask   string
		want   bool
	}{
		{"empty accepts all", "", "", true},
		{"class match", "0,10,0", "0,0xffff,0", true},
		{"class mismatch", "0,20,0", "0,0xffff,0", false},
		{"type match", "0,10,6", "0,0xffff,0xff", true},
		{"type mismatch", "0,10,7", "0,0xffff,0xff", false},
		{"priority", "3,0,0", "7,0,0", true},
		{"priority mismatch", "2,0,0", "7,0,0", false},
		{"guid byte", "0,0,0,00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:20", "0,0,0,00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:FF", true},
		{"guid byte mismatch", "0,0,0,00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:21", "0,0,0,00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:FF", false},
		{"masked bits ignored", "0,11,0", "0,0xfffe,0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.filter, tt.mask)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(ev))
		})
	}

	var nilFilter *Filter
	assert.True(t, nilFilter.Match(ev))
}

func TestFilterString(t *testing.T) {
	f, err := ParseFilter("3,0x0201,6,-", "")
	require.NoError(t, err)
	back, err := ParseFilter(f.String(), "")
	require.NoError(t, err)
	assert.Equal(t, f, back)
}
