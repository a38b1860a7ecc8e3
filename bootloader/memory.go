package bootloader

// MemoryType selects the target memory of a block.
type MemoryType byte

// Memory types sent with the start block request.
const (
	MemoryCode   MemoryType = 0x00
	MemoryUserID MemoryType = 0x01
	MemoryConfig MemoryType = 0x02
	MemoryEEPROM MemoryType = 0x03
)

func (t MemoryType) String() string {
	switch t {
	case MemoryCode:
		return "code"
	case MemoryUserID:
		return "userid"
	case MemoryConfig:
		return "config"
	case MemoryEEPROM:
		return "eeprom"
	default:
		return "unknown"
	}
}

// MemoryRegion maps a memory type to its address window in the firmware
// image. End is inclusive.
type MemoryRegion struct {
	Type  MemoryType
	Begin uint32
	End   uint32
}

// Size returns the number of addresses in the region.
func (r MemoryRegion) Size() uint32 {
	return r.End - r.Begin + 1
}

// Regions lists the loadable regions in load order.
var Regions = [...]MemoryRegion{
	{Type: MemoryCode, Begin: 0x000000, End: 0x1FFFFF},
	{Type: MemoryUserID, Begin: 0x200000, End: 0x200007},
	{Type: MemoryConfig, Begin: 0x300000, End: 0x30000D},
	{Type: MemoryEEPROM, Begin: 0xF00000, End: 0xF003FF},
}

// ChunkCount returns how many chunks of chunkSize carry one block.
func ChunkCount(blockSize, chunkSize uint32) uint32 {
	if chunkSize == 0 {
		return 0
	}
	return uint32((uint64(blockSize) + uint64(chunkSize) - 1) / uint64(chunkSize))
}

// MaxBlockSize is the size of the largest region. A node announcing a larger
// block cannot be programmed.
func MaxBlockSize() uint32 {
	var n uint32
	for _, r := range Regions {
		n = max(n, r.Size())
	}
	return n
}

// blockPlan is the part of a region that carries image data.
type blockPlan struct {
	region     MemoryRegion
	startBlock uint32
	nBlocks    uint32
}

// planRegion computes the blocks covering [min, max) within r. min is
// aligned down to a block boundary relative to the region start. ok is false
// when the region holds no data.
func planRegion(r MemoryRegion, min, max, blockSize uint32) (p blockPlan, ok bool) {
	if max <= min || blockSize == 0 {
		return blockPlan{}, false
	}
	off := min - r.Begin
	off -= off % blockSize
	span := max - (r.Begin + off)
	return blockPlan{
		region:     r,
		startBlock: off / blockSize,
		nBlocks:    uint32((uint64(span) + uint64(blockSize) - 1) / uint64(blockSize)),
	}, true
}

// bufferSize is the region size rounded up to a whole number of blocks.
func (p blockPlan) bufferSize(blockSize uint32) uint32 {
	return ChunkCount(p.region.Size(), blockSize) * blockSize
}
