package argon2

// FinalizeTag reduces the lane-tail blocks of one candidate into the Argon2
// output tag. tails holds the last block of every lane back to back
// (lanes*BlockBytes); the tag of len(dst) bytes is written into dst.
//
// Per the Argon2 finalization, the tails are XORed into a single
// accumulator block which Blake2bLong then compresses to the tag length.
// Going through the word view keeps the XOR endian-correct on any host.
func FinalizeTag(dst []byte, tails []byte, lanes uint32) {
	var acc, cur Block
	acc.Decode(tails)
	for lane := uint32(1); lane < lanes; lane++ {
		cur.Decode(tails[lane*BlockBytes:])
		acc.XOR(&cur)
	}

	var raw [BlockBytes]byte
	acc.Encode(raw[:])
	copy(dst, Blake2bLong(raw[:], uint32(len(dst))))
}
