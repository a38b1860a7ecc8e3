package ihex

import "sort"

// Image is a sparse byte addressed memory image.
type Image struct {
	mem map[uint32]byte

	// StartAddress is the entry point from a type 03 or 05 record
	StartAddress uint32

	// HasStart reports whether StartAddress was set by the file
	HasStart bool
}

// Range is a contiguous populated span [Start, End).
type Range struct {
	Start uint32
	End   uint32
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{mem: make(map[uint32]byte)}
}

// Set stores data starting at addr, overwriting earlier contents.
func (img *Image) Set(addr uint32, data []byte) {
	for i, b := range data {
		img.mem[addr+uint32(i)] = b
	}
}

// Get returns the byte at addr and whether it is populated.
func (img *Image) Get(addr uint32) (byte, bool) {
	b, ok := img.mem[addr]
	return b, ok
}

// Len returns the number of populated bytes.
func (img *Image) Len() int {
	return len(img.mem)
}

// MinMax returns the populated span inside the inclusive address range
// [begin, end]. max is one past the highest populated address, so a range
// without data yields max <= min.
func (img *Image) MinMax(begin, end uint32) (min, max uint32) {
	found := false
	for addr := range img.mem {
		if addr < begin || addr > end {
			continue
		}
		if !found || addr < min {
			min = addr
		}
		if !found || addr+1 > max {
			max = addr + 1
		}
		found = true
	}
	if !found {
		return 0, 0
	}
	return min, max
}

// Fill copies populated bytes in [base, base+len(buf)) into buf. Unpopulated
// positions are left untouched, so callers pre-fill with the erase value.
func (img *Image) Fill(buf []byte, base uint32) {
	n := uint64(len(buf))
	for addr, b := range img.mem {
		if addr < base {
			continue
		}
		off := uint64(addr - base)
		if off < n {
			buf[off] = b
		}
	}
}

// Ranges lists the contiguous populated spans in address order.
func (img *Image) Ranges() []Range {
	addrs := make([]uint32, 0, len(img.mem))
	for a := range img.mem {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var out []Range
	for _, a := range addrs {
		if len(out) > 0 && out[len(out)-1].End == a {
			out[len(out)-1].End = a + 1
			continue
		}
		out = append(out, Range{Start: a, End: a + 1})
	}
	return out
}
