package aes

// prepare validates buffers and expands the key. The caller owns the
// returned schedule and must Zero it.
func prepare(v Variant, dst, src, key []byte) ([]byte, error) {
	rk, err := ExpandKey(key, v)
	if err != nil {
		return nil, err
	}
	if len(src)%BlockSize != 0 {
		Zero(rk)
		return nil, &LengthError{What: "input", Got: len(src), Want: "must be a multiple of 16"}
	}
	if len(dst) < len(src) {
		Zero(rk)
		return nil, &LengthError{What: "output", Got: len(dst), Want: "must be at least the input length"}
	}
	return rk, nil
}

func checkIV(iv []byte) error {
	if len(iv) != BlockSize {
		return &LengthError{What: "IV", Got: len(iv), Want: "must be 16"}
	}
	return nil
}

// ECBEncrypt encrypts src into dst block by block without chaining.
// dst and src may overlap exactly.
func ECBEncrypt(v Variant, dst, src, key []byte) error {
	rk, err := prepare(v, dst, src, key)
	if err != nil {
		return err
	}
	defer Zero(rk)

	nr := v.Params().Nr
	var s state
	for i := 0; i < len(src); i += BlockSize {
		loadState(&s, src[i:])
		encryptBlock(&s, rk, nr)
		storeState(dst[i:], &s)
	}
	return nil
}

// ECBDecrypt is the inverse of ECBEncrypt.
func ECBDecrypt(v Variant, dst, src, key []byte) error {
	rk, err := prepare(v, dst, src, key)
	if err != nil {
		return err
	}
	defer Zero(rk)

	nr := v.Params().Nr
	var s state
	for i := 0; i < len(src); i += BlockSize {
		loadState(&s, src[i:])
		decryptBlock(&s, rk, nr)
		storeState(dst[i:], &s)
	}
	return nil
}

// CBCEncrypt encrypts src into dst in cipher block chaining mode.
// Each plaintext block is XORed with the previous ciphertext block (iv for
// the first) before encryption. iv itself is left untouched.
//
// Example:
//
//	ct := make([]byte, len(plain))
//	err := aes.CBCEncrypt(aes.AES128, ct, plain, key, iv)
func CBCEncrypt(v Variant, dst, src, key, iv []byte) error {
	if err := checkIV(iv); err != nil {
		return err
	}
	rk, err := prepare(v, dst, src, key)
	if err != nil {
		return err
	}
	defer Zero(rk)

	nr := v.Params().Nr
	var chain [BlockSize]byte
	copy(chain[:], iv)

	var s state
	var block [BlockSize]byte
	for i := 0; i < len(src); i += BlockSize {
		for j := 0; j < BlockSize; j++ {
			block[j] = src[i+j] ^ chain[j]
		}
		loadState(&s, block[:])
		encryptBlock(&s, rk, nr)
		storeState(dst[i:], &s)
		copy(chain[:], dst[i:i+BlockSize])
	}
	return nil
}

// CBCDecrypt is the inverse of CBCEncrypt. The chain advances to the input
// ciphertext block, so dst and src may overlap exactly.
func CBCDecrypt(v Variant, dst, src, key, iv []byte) error {
	if err := checkIV(iv); err != nil {
		return err
	}
	rk, err := prepare(v, dst, src, key)
	if err != nil {
		return err
	}
	defer Zero(rk)

	nr := v.Params().Nr
	var chain, next [BlockSize]byte
	copy(chain[:], iv)

	var s state
	for i := 0; i < len(src); i += BlockSize {
		copy(next[:], src[i:i+BlockSize])
		loadState(&s, next[:])
		decryptBlock(&s, rk, nr)
		storeState(dst[i:], &s)
		for j := 0; j < BlockSize; j++ {
			dst[i+j] ^= chain[j]
		}
		chain = next
	}
	return nil
}
