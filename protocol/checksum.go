package protocol

// Checksum algorithm constants.
const (
	// CRC16Polynomial is the CRC-16-CCITT polynomial (0x1021)
	CRC16Polynomial = 0x1021

	// CRC16InitialValue is the CRC-16 initial value
	CRC16InitialValue = 0xFFFF

	// CRC16HighBitMask is the high bit mask for CRC-16 calculations
	CRC16HighBitMask = 0x8000

	// CRC8Polynomial is the reflected Dallas/Maxim polynomial (x^8+x^5+x^4+1)
	CRC8Polynomial = 0x8C

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// CRC16 computes the CRC-16-CCITT checksum used by UDP frames.
//
// CRC-16-CCITT parameters:
//   - Polynomial: CRC16Polynomial
//   - Initial value: CRC16InitialValue
//   - No final XOR
func CRC16(data []byte) uint16 {
	return CRC16Update(CRC16InitialValue, data)
}

// CRC16Update continues a CRC-16-CCITT computation over data. Start with
// CRC16InitialValue.
func CRC16Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b) << BitsPerByte
		for i := 0; i < BitsPerByte; i++ {
			if crc&CRC16HighBitMask != 0 {
				crc = (crc << 1) ^ CRC16Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC8 computes the Dallas/Maxim 1-Wire CRC.
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < BitsPerByte; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ CRC8Polynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// GUIDCRC8 returns the 8-bit CRC of a GUID.
func GUIDCRC8(g GUID) byte {
	return CRC8(g[:])
}
