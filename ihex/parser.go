package ihex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record types.
const (
	RecordData           = 0x00
	RecordEOF            = 0x01
	RecordExtSegment     = 0x02
	RecordStartSegment   = 0x03
	RecordExtLinear      = 0x04
	RecordStartLinear    = 0x05
	MinimumRecordBytes   = 5 // LEN + ADDR(2) + TYPE + CHECKSUM
	RecordHeaderSize     = 4
	MaximumRecordDataLen = 255
)

// Parse parses an Intel HEX file from the given path.
//
// Example:
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes\n", img.Len())
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses Intel HEX records from any io.Reader.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)
	img := NewImage()

	var base uint32
	lineNum := 0
	sawEOF := false
	sawRecord := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sawEOF {
			return nil, fmt.Errorf("line %d: data after end of file record", lineNum)
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		sawRecord = true

		switch rec.typ {
		case RecordData:
			img.Set(base+uint32(rec.addr), rec.data)
		case RecordEOF:
			sawEOF = true
		case RecordExtSegment:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended segment record needs 2 bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4
		case RecordExtLinear:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended linear record needs 2 bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16
		case RecordStartSegment, RecordStartLinear:
			if len(rec.data) != 4 {
				return nil, fmt.Errorf("line %d: start address record needs 4 bytes, got %d", lineNum, len(rec.data))
			}
			img.StartAddress = uint32(rec.data[0])<<24 | uint32(rec.data[1])<<16 |
				uint32(rec.data[2])<<8 | uint32(rec.data[3])
			img.HasStart = true
		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.typ)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !sawRecord {
		return nil, fmt.Errorf("no records found in file")
	}

	return img, nil
}

type record struct {
	typ  byte
	addr uint16
	data []byte
}

// parseRecord decodes one ":LLAAAATT...CC" line and verifies its checksum.
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}

	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	if len(raw) < MinimumRecordBytes {
		return nil, fmt.Errorf("record too short: got %d bytes, minimum is %d", len(raw), MinimumRecordBytes)
	}

	dataLen := int(raw[0])
	expectedLen := RecordHeaderSize + dataLen + 1
	if len(raw) != expectedLen {
		return nil, fmt.Errorf("data length mismatch: got %d bytes, expected %d", len(raw), expectedLen)
	}

	checksum := raw[len(raw)-1]
	if calculated := recordChecksum(raw[:len(raw)-1]); checksum != calculated {
		return nil, fmt.Errorf("checksum mismatch: got 0x%02X, expected 0x%02X", checksum, calculated)
	}

	return &record{
		typ:  raw[3],
		addr: uint16(raw[1])<<8 | uint16(raw[2]),
		data: raw[RecordHeaderSize : RecordHeaderSize+dataLen],
	}, nil
}

// recordChecksum is the 2's complement of the byte sum.
func recordChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
