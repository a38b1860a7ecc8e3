package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnterBootloaderEvent(t *testing.T) {
	node := GUID{0xA0, 1, 2, 0xA3, 4, 0xA5, 6, 0xA7, 8, 9, 10, 11, 12, 13, 14, 15}
	ev := BuildEnterBootloaderEvent(GUID{}, 0x2A, BootAlgorithmVSCP, node, 0x0102)

	assert.Equal(t, uint16(ClassProtocol), ev.Class)
	assert.Equal(t, uint16(TypeEnterBootLoader), ev.Type)
	assert.Equal(t, []byte{0x2A, 0x00, 0xA0, 0xA3, 0xA5, 0xA7, 0x01, 0x02}, ev.Data)
}

func TestBuildBlockEvents(t *testing.T) {
	g := GUID{15: 1}

	start := BuildStartBlockEvent(g, 0x01020304, 3)
	assert.Equal(t, uint16(TypeStartBlock), start.Type)
	assert.Equal(t, []byte{1, 2, 3, 4, 3, 0, 0, 0}, start.Data)

	prog := BuildProgramBlockEvent(g, 7)
	assert.Equal(t, uint16(TypeProgramBlockData), prog.Type)
	assert.Equal(t, []byte{0, 0, 0, 7}, prog.Data)
	n, err := ParseBlockNumber(prog.Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), n)

	act := BuildActivateImageEvent(g, 0xBEEF)
	assert.Equal(t, []byte{0xBE, 0xEF}, act.Data)

	data, err := BuildBlockDataEvent(g, []byte{9, 8, 7})
	require.NoError(t, err)
	assert.Equal(t, uint16(TypeBlockData), data.Type)
	assert.Equal(t, g, data.GUID)

	_, err = BuildBlockDataEvent(g, nil)
	assert.Error(t, err)
	_, err = BuildBlockDataEvent(g, make([]byte, MaxDataLevel2+1))
	assert.Error(t, err)
}

func TestBootloaderAck(t *testing.T) {
	ack := BuildBootloaderAckEvent(GUID{}, 64, 10)
	assert.Equal(t, []byte{0, 0, 0, 64, 0, 0, 0, 10}, ack.Data)

	bs, nb, err := ParseBootloaderAck(ack.Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), bs)
	assert.Equal(t, uint32(10), nb)

	_, _, err = ParseBootloaderAck([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestExtendedPageEvents(t *testing.T) {
	req := BuildExtendedPageReadEvent(GUID{}, 0x11, 0x0001, 0x80, 0x80)
	assert.Equal(t, []byte{0x11, 0x00, 0x01, 0x80, 0x80}, req.Data)

	resp, err := BuildExtendedPageResponseEvent(GUID{}, 2, 0x0001, 0x88, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	pr, err := ParseExtendedPageResponse(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, byte(2), pr.Index)
	assert.Equal(t, uint16(1), pr.Page)
	assert.Equal(t, byte(0x88), pr.Offset)
	assert.Equal(t, []byte{1, 2, 3, 4}, pr.Values)

	_, err = BuildExtendedPageResponseEvent(GUID{}, 0, 0, 0, make([]byte, 5))
	assert.Error(t, err)
	_, err = ParseExtendedPageResponse([]byte{1, 2})
	assert.Error(t, err)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "start block NACK", TypeName(TypeStartBlockNack))
	assert.Equal(t, "block chunk ACK", TypeName(TypeBlockChunkAck))
	assert.Contains(t, TypeName(999), "999")
}
