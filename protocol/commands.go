package protocol

import (
	"encoding/binary"
	"fmt"
)

// BootloaderRequestSize is the payload length of enter-bootloader and
// start-block requests.
const BootloaderRequestSize = 8

// BuildEnterBootloaderEvent asks a node to enter its bootloader.
// guid is the GUID the event is sent with; nodeGUID is the target's own
// GUID, four bytes of which prove the request is meant for it.
//
// Data:
//
//	[NICKNAME][ALGORITHM][GUID0][GUID3][GUID5][GUID7][PAGE_H][PAGE_L]
func BuildEnterBootloaderEvent(guid GUID, nickname, algorithm byte, nodeGUID GUID, page uint16) *Event {
	data := []byte{
		nickname,
		algorithm,
		nodeGUID[0],
		nodeGUID[3],
		nodeGUID[5],
		nodeGUID[7],
		byte(page >> 8),
		byte(page),
	}
	return NewEvent(ClassProtocol, TypeEnterBootLoader, guid, data)
}

// BuildBootloaderAckEvent is a node's positive reply to
// BuildEnterBootloaderEvent.
//
// Data:
//
//	[BLOCK_SIZE(4)][NUM_BLOCKS(4)]
func BuildBootloaderAckEvent(guid GUID, blockSize, numBlocks uint32) *Event {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data[0:], blockSize)
	binary.BigEndian.PutUint32(data[4:], numBlocks)
	return NewEvent(ClassProtocol, TypeAckBootLoader, guid, data)
}

// BuildStartBlockEvent opens a block for chunk transfer.
//
// Data:
//
//	[BLOCK(4)][MEMTYPE][RESERVED(3)]
func BuildStartBlockEvent(guid GUID, block uint32, memType byte) *Event {
	data := make([]byte, BootloaderRequestSize)
	binary.BigEndian.PutUint32(data, block)
	data[4] = memType
	return NewEvent(ClassProtocol, TypeStartBlock, guid, data)
}

// BuildBlockDataEvent carries one chunk of block data.
func BuildBlockDataEvent(guid GUID, chunk []byte) (*Event, error) {
	if len(chunk) == 0 {
		return nil, fmt.Errorf("chunk cannot be empty")
	}
	if len(chunk) > MaxDataLevel2 {
		return nil, fmt.Errorf("chunk too large: %d bytes (max %d)", len(chunk), MaxDataLevel2)
	}
	return NewEvent(ClassProtocol, TypeBlockData, guid, chunk), nil
}

// BuildProgramBlockEvent commits a transferred block.
//
// Data:
//
//	[BLOCK(4)]
func BuildProgramBlockEvent(guid GUID, block uint32) *Event {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, block)
	return NewEvent(ClassProtocol, TypeProgramBlockData, guid, data)
}

// BuildActivateImageEvent asks the node to verify and start the new image.
//
// Data:
//
//	[CRC_H][CRC_L]
func BuildActivateImageEvent(guid GUID, crc uint16) *Event {
	return NewEvent(ClassProtocol, TypeActivateNewImage, guid, []byte{byte(crc >> 8), byte(crc)})
}

// BuildExtendedPageReadEvent requests count registers starting at offset on
// the given page. A count of 0 means 256.
//
// Data:
//
//	[NICKNAME][PAGE_H][PAGE_L][OFFSET][COUNT]
func BuildExtendedPageReadEvent(guid GUID, nickname byte, page uint16, offset, count byte) *Event {
	data := []byte{nickname, byte(page >> 8), byte(page), offset, count}
	return NewEvent(ClassProtocol, TypeExtendedPageRead, guid, data)
}

// BuildExtendedPageResponseEvent carries up to four register values.
//
// Data:
//
//	[INDEX][PAGE_H][PAGE_L][OFFSET][VALUES(1-4)]
func BuildExtendedPageResponseEvent(guid GUID, index byte, page uint16, offset byte, values []byte) (*Event, error) {
	if len(values) == 0 || len(values) > MaxDataLevel1-4 {
		return nil, fmt.Errorf("page response carries 1-%d values, got %d", MaxDataLevel1-4, len(values))
	}
	data := append([]byte{index, byte(page >> 8), byte(page), offset}, values...)
	return NewEvent(ClassProtocol, TypeExtendedPageResponse, guid, data), nil
}

// BuildReplyEvent builds a bare CLASS1.PROTOCOL reply such as an ACK or NACK.
func BuildReplyEvent(guid GUID, typ uint16, data []byte) *Event {
	return NewEvent(ClassProtocol, typ, guid, data)
}
