package protocol

import (
	"encoding/binary"
	"fmt"
)

// PageResponse is the decoded payload of an extended page response.
type PageResponse struct {
	// Index is the sequence number of this response within the read
	Index byte

	// Page is the register page
	Page uint16

	// Offset is the register address of Values[0]
	Offset byte

	// Values holds one to four register values
	Values []byte
}

// ParseBootloaderAck extracts the block geometry from the data of an
// enter-bootloader ACK.
func ParseBootloaderAck(data []byte) (blockSize, numBlocks uint32, err error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("bootloader ACK too short: got %d bytes, expected 8", len(data))
	}
	return binary.BigEndian.Uint32(data[0:]), binary.BigEndian.Uint32(data[4:]), nil
}

// ParseBlockNumber reads the leading big-endian block number of a start
// block or program block payload.
func ParseBlockNumber(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("block number needs 4 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// ParseExtendedPageResponse decodes an extended page response payload.
func ParseExtendedPageResponse(data []byte) (*PageResponse, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("page response too short: got %d bytes, minimum is 5", len(data))
	}
	return &PageResponse{
		Index:  data[0],
		Page:   binary.BigEndian.Uint16(data[1:]),
		Offset: data[3],
		Values: append([]byte(nil), data[4:]...),
	}, nil
}
