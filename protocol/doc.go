// Package protocol implements the VSCP event model and its wire encodings.
//
// # Event Model
//
// An Event carries a class, a type, a 16-byte GUID identifying the origin
// node, timing information and up to 512 bytes of data (8 for level I).
// The head byte holds the priority (bits 5-7) and the hard-coded flag.
//
// # Wire Formats
//
// The UDP frame is the common binary encoding, also used for serial links:
//
//	[PKTTYPE][HEAD(2)][TIMESTAMP(4)][YEAR(2)][MONTH][DAY][HOUR][MIN][SEC]
//	[CLASS(2)][TYPE(2)][GUID(16)][SIZE(2)][DATA...][CRC(2)]
//
// All multi-byte fields are big-endian. The CRC is CRC-16/CCITT over
// everything from HEAD through DATA. The low nibble of PKTTYPE selects the
// AES variant used by EncryptFrame:
//
//	frame, _ := protocol.EncodeFrame(protocol.PacketTypeEvent, ev)
//	wire, _ := protocol.EncryptFrame(frame, key, protocol.EncryptAES128)
//
// Events also convert to the CANAL id used on CAN, to the comma separated
// string form, to the vscp* keyed JSON and XML forms, and to CBOR.
//
// # Bootloader Events
//
// The Build*Event functions create the CLASS1.PROTOCOL requests used by
// the VSCP bootloader algorithm, and ParseBootloaderAck and
// ParseExtendedPageResponse decode the replies.
//
// # Filtering
//
// A Filter accepts an event when every field satisfies
// (filter ^ value) & mask == 0:
//
//	f, _ := protocol.ParseFilter("0,10,6,00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:00")
//	f.SetMaskFromString("0,0xffff,0xff,-")
//	if f.Match(ev) { ... }
package protocol
