package aes

// state is one block, indexed [column][row].
type state [4][4]byte

func loadState(s *state, b []byte) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			s[c][r] = b[c*4+r]
		}
	}
}

func storeState(b []byte, s *state) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			b[c*4+r] = s[c][r]
		}
	}
}

func addRoundKey(s *state, rk []byte, round int) {
	off := round * nb * 4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			s[c][r] ^= rk[off+c*4+r]
		}
	}
}

func subBytes(s *state) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			s[c][r] = sbox[s[c][r]]
		}
	}
}

func invSubBytes(s *state) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			s[c][r] = rsbox[s[c][r]]
		}
	}
}

// shiftRows rotates row r left by r columns.
func shiftRows(s *state) {
	s[0][1], s[1][1], s[2][1], s[3][1] = s[1][1], s[2][1], s[3][1], s[0][1]
	s[0][2], s[1][2], s[2][2], s[3][2] = s[2][2], s[3][2], s[0][2], s[1][2]
	s[0][3], s[1][3], s[2][3], s[3][3] = s[3][3], s[0][3], s[1][3], s[2][3]
}

// invShiftRows rotates row r right by r columns.
func invShiftRows(s *state) {
	s[0][1], s[1][1], s[2][1], s[3][1] = s[3][1], s[0][1], s[1][1], s[2][1]
	s[0][2], s[1][2], s[2][2], s[3][2] = s[2][2], s[3][2], s[0][2], s[1][2]
	s[0][3], s[1][3], s[2][3], s[3][3] = s[1][3], s[2][3], s[3][3], s[0][3]
}

// xtime multiplies by x (0x02) modulo the AES polynomial 0x11B.
func xtime(x byte) byte {
	return (x << 1) ^ (((x >> 7) & 1) * 0x1b)
}

// multiply computes x*y in GF(2^8) as a sum of conditional doublings of x.
func multiply(x, y byte) byte {
	var p byte
	for y != 0 {
		if y&1 != 0 {
			p ^= x
		}
		x = xtime(x)
		y >>= 1
	}
	return p
}

func mixColumns(s *state) {
	for c := 0; c < 4; c++ {
		a0 := s[c][0]
		all := s[c][0] ^ s[c][1] ^ s[c][2] ^ s[c][3]
		s[c][0] ^= all ^ xtime(s[c][0]^s[c][1])
		s[c][1] ^= all ^ xtime(s[c][1]^s[c][2])
		s[c][2] ^= all ^ xtime(s[c][2]^s[c][3])
		s[c][3] ^= all ^ xtime(s[c][3]^a0)
	}
}

func invMixColumns(s *state) {
	for c := 0; c < 4; c++ {
		a, b, cc, d := s[c][0], s[c][1], s[c][2], s[c][3]
		s[c][0] = multiply(a, 0x0e) ^ multiply(b, 0x0b) ^ multiply(cc, 0x0d) ^ multiply(d, 0x09)
		s[c][1] = multiply(a, 0x09) ^ multiply(b, 0x0e) ^ multiply(cc, 0x0b) ^ multiply(d, 0x0d)
		s[c][2] = multiply(a, 0x0d) ^ multiply(b, 0x09) ^ multiply(cc, 0x0e) ^ multiply(d, 0x0b)
		s[c][3] = multiply(a, 0x0b) ^ multiply(b, 0x0d) ^ multiply(cc, 0x09) ^ multiply(d, 0x0e)
	}
}

func encryptBlock(s *state, rk []byte, nr int) {
	addRoundKey(s, rk, 0)
	for round := 1; round < nr; round++ {
		subBytes(s)
		shiftRows(s)
		mixColumns(s)
		addRoundKey(s, rk, round)
	}
	subBytes(s)
	shiftRows(s)
	addRoundKey(s, rk, nr)
}

func decryptBlock(s *state, rk []byte, nr int) {
	addRoundKey(s, rk, nr)
	for round := nr - 1; round > 0; round-- {
		invShiftRows(s)
		invSubBytes(s)
		addRoundKey(s, rk, round)
		invMixColumns(s)
	}
	invShiftRows(s)
	invSubBytes(s)
	addRoundKey(s, rk, 0)
}
