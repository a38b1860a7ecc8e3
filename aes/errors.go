package aes

import (
	"errors"
	"fmt"
)

// ErrNoRandom is returned by RandomIV when the secure random source fails.
var ErrNoRandom = errors.New("secure random source unavailable")

// VariantError indicates an unrecognized cipher variant.
type VariantError struct {
	Variant Variant
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("invalid AES variant %d", int(e.Variant))
}

// KeySizeError indicates a key whose length does not match the variant.
type KeySizeError struct {
	Variant Variant
	Got     int
}

func (e *KeySizeError) Error() string {
	return fmt.Sprintf("invalid key size for %s: got %d bytes, expected %d",
		e.Variant, e.Got, e.Variant.Params().KeyLen)
}

// LengthError indicates a buffer or IV of unusable length.
type LengthError struct {
	What string
	Got  int
	Want string
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("invalid %s length %d: %s", e.What, e.Got, e.Want)
}
