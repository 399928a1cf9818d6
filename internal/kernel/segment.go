// Package kernel holds the reference implementation of the Argon2 segment
// kernel: the body a device work-group executes for one (pass, slice) step.
// The host reference device runs it on the CPU; a GPU runtime ships the
// same dataflow as compiled kernels.
package kernel

import "github.com/yousef-lap/argon2crack/internal/argon2"

// FillSegment fills blocks [slice*segmentBlocks, (slice+1)*segmentBlocks)
// of one lane for the given pass. mem is a single candidate's block matrix,
// laid out lane-major: block (lane, slice, idx) lives at index
// lane*4*segmentBlocks + slice*segmentBlocks + idx.
//
// Within a slice all lanes are independent; the caller provides the slice
// barrier by not starting slice s+1 anywhere before slice s finished
// everywhere.
func FillSegment(mem []argon2.Block, variant, passes, lanes, segmentBlocks, pass, slice, lane uint32) {
	laneLen := segmentBlocks * argon2.SyncPoints

	// Argon2i addressing, and the first half of the first pass for
	// Argon2id, draws reference indices from an address block generated
	// by running the compression function in counter mode instead of
	// from the data itself.
	var addresses, in, zero argon2.Block
	dataIndependent := variant == argon2.VariantI ||
		(variant == argon2.VariantID && pass == 0 && slice < argon2.SyncPoints/2)
	if dataIndependent {
		in[0] = uint64(pass)
		in[1] = uint64(lane)
		in[2] = uint64(slice)
		in[3] = uint64(lanes * laneLen)
		in[4] = uint64(passes)
		in[5] = uint64(variant)
	}

	index := uint32(0)
	if pass == 0 && slice == 0 {
		// The first two blocks of every lane come from H0.
		index = 2
		if dataIndependent {
			in[6]++
			Compress(&addresses, &in, &zero, false)
			Compress(&addresses, &addresses, &zero, false)
		}
	}

	offset := lane*laneLen + slice*segmentBlocks + index
	var random uint64
	for ; index < segmentBlocks; index, offset = index+1, offset+1 {
		prev := offset - 1
		if index == 0 && slice == 0 {
			prev += laneLen // wrap to the lane tail
		}

		if dataIndependent {
			if index%argon2.BlockWords == 0 {
				in[6]++
				Compress(&addresses, &in, &zero, false)
				Compress(&addresses, &addresses, &zero, false)
			}
			random = addresses[index%argon2.BlockWords]
		} else {
			random = mem[prev][0]
		}

		ref := refIndex(random, laneLen, segmentBlocks, lanes, pass, slice, lane, index)
		Compress(&mem[offset], &mem[prev], &mem[ref], pass != 0)
	}
}

// refIndex maps the pseudo-random word to an absolute block index. The
// reference window depends on pass and slice: the first pass may only look
// backwards, later passes see everything but the segment being written.
func refIndex(random uint64, laneLen, segmentBlocks, lanes, pass, slice, lane, index uint32) uint32 {
	refLane := uint32(random>>32) % lanes
	if pass == 0 && slice == 0 {
		refLane = lane
	}

	m, s := 3*segmentBlocks, ((slice+1)%argon2.SyncPoints)*segmentBlocks
	if lane == refLane {
		m += index
	}
	if pass == 0 {
		m, s = slice*segmentBlocks, 0
		if slice == 0 || lane == refLane {
			m += index
		}
	}
	if index == 0 || lane == refLane {
		m--
	}

	return phi(random, uint64(m), uint64(s), refLane, laneLen)
}

// phi is the non-uniform quadratic mapping of Argon2: squaring the low
// 32 bits of the random word skews references towards recent blocks.
func phi(random, m, s uint64, refLane, laneLen uint32) uint32 {
	p := random & 0xFFFFFFFF
	p = (p * p) >> 32
	p = (p * m) >> 32
	return refLane*laneLen + uint32((s+m-(p+1))%uint64(laneLen))
}
