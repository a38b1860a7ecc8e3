// Package aes implements the AES-128, AES-192 and AES-256 block cipher
// used to protect VSCP frames, together with ECB and CBC buffer modes and
// IV generation.
//
// # Overview
//
// The engine is stateless: every call expands its own round key schedule,
// transforms the buffer one 16-byte block at a time and wipes the schedule
// before returning. Calls from different goroutines are safe as long as
// they do not share output buffers.
//
// # Basic Usage
//
//	key := []byte("0123456789abcdef")
//	iv := make([]byte, aes.BlockSize)
//	if _, err := aes.RandomIV(iv); err != nil {
//	    log.Fatal(err)
//	}
//
//	ct := make([]byte, len(plain))
//	if err := aes.CBCEncrypt(aes.AES128, ct, plain, key, iv); err != nil {
//	    log.Fatal(err)
//	}
//
// Inputs must be a whole number of blocks. The engine does not pad and does
// not authenticate: a wrong key yields garbage plaintext, not an error.
package aes
