// Package transport moves VSCP events between this host and a VSCP bus.
//
// Three clients are provided:
//   - UDPClient speaks the VSCP UDP frame format, optionally AES encrypted
//   - WSClient speaks the VSCP websocket JSON protocol (ws2)
//   - StreamClient sends SLIP framed UDP frames over any byte stream, such
//     as a serial port opened with OpenSerial
//
// Each client runs one reader goroutine that decodes incoming events into a
// bounded Queue. Send may be called from one goroutine while another calls
// Receive. All clients satisfy bootloader.EventClient.
package transport
