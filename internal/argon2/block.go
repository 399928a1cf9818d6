package argon2

import "encoding/binary"

const (
	// BlockBytes is the size of an Argon2 memory block (1 KiB).
	BlockBytes = 1024

	// BlockWords is the number of 64-bit words in a block.
	BlockWords = BlockBytes / 8

	// SyncPoints is the number of slices per pass. Every lane must reach
	// the slice boundary before any lane starts the next slice.
	SyncPoints = 4
)

// Block is a 1024-byte Argon2 memory block viewed as 128 little-endian
// 64-bit words, the unit the compression function operates on.
//
// The word view matches the device layout: block byte i*8..i*8+7 is word i
// in little-endian order, so Decode/Encode round-trip against the scratch
// buffer regardless of host endianness.
type Block [BlockWords]uint64

// XOR folds other into b word-wise.
func (b *Block) XOR(other *Block) {
	for i := range b {
		b[i] ^= other[i]
	}
}

// Decode loads the block from the first BlockBytes bytes of src.
func (b *Block) Decode(src []byte) {
	_ = src[BlockBytes-1]
	for i := range b {
		b[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
}

// Encode stores the block into the first BlockBytes bytes of dst.
func (b *Block) Encode(dst []byte) {
	_ = dst[BlockBytes-1]
	for i := range b {
		binary.LittleEndian.PutUint64(dst[i*8:], b[i])
	}
}
