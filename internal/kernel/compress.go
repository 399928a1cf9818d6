package kernel

import "github.com/yousef-lap/argon2crack/internal/argon2"

// Compress is the Argon2 block compression G: next = P(prev XOR ref) XOR
// (prev XOR ref), where P is the Blake2b-based permutation over the
// 128-word block. With withXOR set, the previous contents of next are
// folded in as well, as required on every pass after the first.
func Compress(next, prev, ref *argon2.Block, withXOR bool) {
	var r argon2.Block
	for i := range r {
		r[i] = prev[i] ^ ref[i]
	}
	q := r

	// P treats the block as an 8x8 matrix of 2-word cells: one Blake2b
	// round over each row of 16 consecutive words, then one over each
	// column gathered at stride 16.
	for i := 0; i < argon2.BlockWords; i += 16 {
		gRound(r[i : i+16])
	}
	var col [16]uint64
	for i := 0; i < 16; i += 2 {
		for j := 0; j < 8; j++ {
			col[2*j] = r[i+16*j]
			col[2*j+1] = r[i+16*j+1]
		}
		gRound(col[:])
		for j := 0; j < 8; j++ {
			r[i+16*j] = col[2*j]
			r[i+16*j+1] = col[2*j+1]
		}
	}

	r.XOR(&q)
	if withXOR {
		r.XOR(next)
	}
	*next = r
}
