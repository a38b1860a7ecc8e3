package aes

import (
	"crypto/rand"
	"fmt"
	"io"
)

// randReader is swapped out in tests.
var randReader io.Reader = rand.Reader

// RandomIV fills buf from the system's secure random source and returns the
// number of bytes written. On failure it returns 0 and an error wrapping
// ErrNoRandom; there is no fallback.
func RandomIV(buf []byte) (int, error) {
	if _, err := io.ReadFull(randReader, buf); err != nil {
		Zero(buf)
		return 0, fmt.Errorf("%w: %v", ErrNoRandom, err)
	}
	return len(buf), nil
}
