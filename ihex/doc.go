// Package ihex parses Intel HEX firmware files into a sparse memory image.
//
// # Intel HEX Format
//
// Each line is a record, hex encoded after a leading colon:
//
//	:[LEN(2)][ADDR(4)][TYPE(2)][DATA(LEN*2)][CHECKSUM(2)]
//
// Record types:
//
//	00 = Data
//	01 = End of file
//	02 = Extended segment address (base = value << 4)
//	03 = Start segment address
//	04 = Extended linear address (base = value << 16)
//	05 = Start linear address
//
// The checksum is the two's complement of the sum of all preceding bytes
// in the record.
//
// # Usage
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	min, max := img.MinMax(0x000000, 0x1FFFFF)
//	if max > min {
//	    buf := bytes.Repeat([]byte{0xFF}, int(max-min))
//	    img.Fill(buf, min)
//	}
//
// # Error Handling
//
// Parse reports the line number with every error: bad hex, short records,
// checksum mismatches, unknown record types and data after end of file.
package ihex
