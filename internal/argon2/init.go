package argon2

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Variant identifiers as encoded into H0 and into the device kernel table.
const (
	VariantD  = 0
	VariantI  = 1
	VariantID = 2
)

// Params carries the cost inputs bound into H0. MemoryCost is the raw
// requested KiB value, before segment rounding; H0 commits to what the
// user asked for, the fill phase works on the rounded matrix.
type Params struct {
	Variant    uint32
	Version    uint32
	TimeCost   uint32
	MemoryCost uint32
	Lanes      uint32
	HashSize   uint32
}

// InitialHash computes H0, the 64-byte seed every lane's first blocks are
// derived from. The preamble is the little-endian encoding of lanes,
// hash size, memory, time, version and variant, followed by the
// length-prefixed password and salt and two empty length-prefixed fields
// (secret and associated data, unsupported here).
func InitialHash(p Params, password, salt []byte) [64]byte {
	var (
		params [24]byte
		tmp    [4]byte
		h0     [64]byte
	)

	h, _ := blake2b.New512(nil)
	binary.LittleEndian.PutUint32(params[0:4], p.Lanes)
	binary.LittleEndian.PutUint32(params[4:8], p.HashSize)
	binary.LittleEndian.PutUint32(params[8:12], p.MemoryCost)
	binary.LittleEndian.PutUint32(params[12:16], p.TimeCost)
	binary.LittleEndian.PutUint32(params[16:20], p.Version)
	binary.LittleEndian.PutUint32(params[20:24], p.Variant)
	h.Write(params[:])

	binary.LittleEndian.PutUint32(tmp[:], uint32(len(password)))
	h.Write(tmp[:])
	h.Write(password)

	binary.LittleEndian.PutUint32(tmp[:], uint32(len(salt)))
	h.Write(tmp[:])
	h.Write(salt)

	// Empty secret and associated data.
	binary.LittleEndian.PutUint32(tmp[:], 0)
	h.Write(tmp[:])
	h.Write(tmp[:])

	h.Sum(h0[:0])
	return h0
}

// FillFirstBlocks derives the first two blocks of every lane from H0 and
// writes them into dst in lane-contiguous order: lane 0 block 0, lane 0
// block 1, lane 1 block 0, and so on. dst must hold lanes*2*BlockBytes.
//
// Block (lane, 0, k) is Blake2bLong(H0 || LE32(k) || LE32(lane), BlockBytes).
func FillFirstBlocks(h0 *[64]byte, lanes uint32, dst []byte) {
	var in [72]byte
	copy(in[:64], h0[:])

	for lane := uint32(0); lane < lanes; lane++ {
		binary.LittleEndian.PutUint32(in[68:72], lane)
		for k := uint32(0); k < 2; k++ {
			binary.LittleEndian.PutUint32(in[64:68], k)
			blk := Blake2bLong(in[:], BlockBytes)
			copy(dst[(lane*2+k)*BlockBytes:], blk)
		}
	}
}
