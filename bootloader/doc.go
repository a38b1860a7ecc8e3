// Package bootloader loads firmware into VSCP nodes through the VSCP
// bootloader protocol.
//
// # Overview
//
// A Session walks one node through the load sequence:
//   - Reading the standard registers to learn the node's GUID, bootloader
//     algorithm and firmware device code
//   - Requesting boot mode and receiving the block geometry
//   - For each memory region holding data: start block, block data in
//     chunks, program block
//   - Activating the new image with the CRC of everything programmed
//
// Every request waits for its ACK or NACK before the next one is sent.
// Nothing is retried; a failed step ends the load and the caller decides
// whether to start over.
//
// # Basic Usage
//
//	client, err := transport.DialUDP(ctx, "192.168.1.20:33333")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess := bootloader.NewNicknameSession(client, 0x2A)
//	if err := sess.Load(ctx, img, 0x0001, true); err != nil {
//	    log.Fatal(err)
//	}
//
// # Addressing
//
// NewNicknameSession drives level I nodes and sends block data in 8 byte
// chunks. NewGUIDSession drives level II nodes by GUID with 512 byte chunks.
// In both cases replies are matched on class, type and the node GUID read
// from its registers; everything else on the bus is discarded.
//
// # Status Reporting
//
//	sess := bootloader.NewNicknameSession(client, 0x2A,
//	    bootloader.WithStatusReporter(bootloader.StatusFunc(func(p int, msg string) {
//	        fmt.Printf("%4d %s\n", p, msg)
//	    })),
//	)
//
// Progress is a percentage, or ProgressMilestone (-1) for steps without one.
//
// # Error Handling
//
// Errors match one of the sentinels with errors.Is:
//   - ErrCommunication: the transport failed (CommunicationError)
//   - ErrTimeout: no reply in time (TimeoutError)
//   - ErrNack: the node rejected a step (NackError)
//   - ErrParameter: bad argument or device code mismatch (DeviceCodeMismatchError)
//   - ErrSize: chunk larger than allowed (ChunkSizeError)
//   - ErrNotSupported: the node's bootloader is not VSCP (AlgorithmError)
package bootloader
