package aes

// ExpandKey derives the round key schedule for key. The result is exactly
// v.Params().ScheduleLen bytes long; callers should Zero it when done.
//
// Example:
//
//	rk, err := aes.ExpandKey(key, aes.AES256)
//	if err != nil {
//	    return err
//	}
//	defer aes.Zero(rk)
func ExpandKey(key []byte, v Variant) ([]byte, error) {
	if !v.Valid() {
		return nil, &VariantError{Variant: v}
	}
	p := v.Params()
	if len(key) != p.KeyLen {
		return nil, &KeySizeError{Variant: v, Got: len(key)}
	}

	rk := make([]byte, p.ScheduleLen)
	copy(rk, key)

	var temp [4]byte
	for i := p.Nk; i < nb*(p.Nr+1); i++ {
		copy(temp[:], rk[(i-1)*4:i*4])

		if i%p.Nk == 0 {
			// RotWord then SubWord
			temp[0], temp[1], temp[2], temp[3] = temp[1], temp[2], temp[3], temp[0]
			subWord(&temp)
			temp[0] ^= rcon[i/p.Nk]
		} else if v == AES256 && i%p.Nk == 4 {
			subWord(&temp)
		}

		j := i * 4
		k := (i - p.Nk) * 4
		rk[j+0] = rk[k+0] ^ temp[0]
		rk[j+1] = rk[k+1] ^ temp[1]
		rk[j+2] = rk[k+2] ^ temp[2]
		rk[j+3] = rk[k+3] ^ temp[3]
	}

	Zero(temp[:])
	return rk, nil
}

func subWord(w *[4]byte) {
	for i := range w {
		w[i] = sbox[w[i]]
	}
}
