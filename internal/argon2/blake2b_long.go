// Package argon2 implements the CPU-side Argon2 primitives of the cracking
// pipeline: the block type, the variable-length Blake2b extension, the
// initialization that produces the first two blocks of every lane, and the
// finalization that reduces lane tails into the output tag.
//
// The memory-fill phase between initialization and finalization runs on the
// device; its reference implementation lives in internal/kernel.
package argon2

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Blake2bLong is the Argon2 variable-length extension of Blake2b.
//
// The requested length is bound into the hash as a 4-byte little-endian
// prefix. Outputs up to 64 bytes are a single Blake2b of that length.
// Longer outputs walk a 64-byte state chain: each link rehashes the
// previous state and yields its first half into the output window, and the
// final link is a Blake2b sized to exactly what the window still needs.
func Blake2bLong(input []byte, outlen uint32) []byte {
	if outlen == 0 {
		return nil
	}
	out := make([]byte, outlen)

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], outlen)

	if outlen <= blake2b.Size {
		h, err := blake2b.New(int(outlen), nil)
		if err != nil {
			panic("argon2: blake2b.New rejected valid length: " + err.Error())
		}
		h.Write(prefix[:])
		h.Write(input)
		h.Sum(out[:0])
		return out
	}

	h, _ := blake2b.New512(nil)
	h.Write(prefix[:])
	h.Write(input)

	var state [blake2b.Size]byte
	h.Sum(state[:0])

	window := out
	copy(window, state[:32])
	window = window[32:]

	for len(window) > blake2b.Size {
		h.Reset()
		h.Write(state[:])
		h.Sum(state[:0])
		copy(window, state[:32])
		window = window[32:]
	}

	last, err := blake2b.New(len(window), nil)
	if err != nil {
		panic("argon2: blake2b.New rejected valid length: " + err.Error())
	}
	last.Write(state[:])
	last.Sum(window[:0])
	return out
}
