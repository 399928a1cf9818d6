package argon2crack

import (
	"fmt"

	"github.com/yousef-lap/argon2crack/internal/argon2"
)

// plan sizes the shared device scratch and the host staging buffers for the
// worst case over the target salts, then allocates them. On device
// allocation failure the batch width and total size are halved and the
// attempt repeated; running out of width entirely is a fatal configuration
// error. plan runs at most once per engine; later Resets reuse the buffers.
func (e *Engine) plan(salts []*Salt) error {
	var maxJobBytes int
	for _, s := range salts {
		if sb := s.SegmentBlocks(); sb > e.maxSegmentBlocks {
			e.maxSegmentBlocks = sb
		}
		if s.Lanes > e.maxLanes {
			e.maxLanes = s.Lanes
		}
		if jb := s.jobBytes(); jb > maxJobBytes {
			maxJobBytes = jb
		}
	}
	if e.maxLanes == 0 || maxJobBytes == 0 {
		return fmt.Errorf("argon2crack: degenerate salt set")
	}

	totalBytes := maxJobBytes * e.maxKeys
	for {
		// Host staging follows the batch width through every retry.
		e.blocksIn = make([]byte, e.maxKeys*int(e.maxLanes)*2*BlockBytes)
		e.blocksOut = make([]byte, e.maxKeys*int(e.maxLanes)*BlockBytes)

		buf, err := e.dev.AllocBuffer(totalBytes)
		if err == nil {
			e.scratch = buf
			e.log.Infof("argon2crack: scratch %d MB for %d keys (device has %d MB)",
				totalBytes>>20, e.maxKeys, e.dev.GlobalMemSize()>>20)
			break
		}

		e.log.WithError(err).Warnf("argon2crack: scratch allocation of %d MB failed, halving batch",
			totalBytes>>20)
		totalBytes /= 2
		e.maxKeys /= 2
		if e.maxKeys == 0 {
			e.blocksIn = nil
			e.blocksOut = nil
			return ErrOutOfDeviceMemory
		}
	}

	for v := Variant(0); v < numVariants; v++ {
		k, err := e.dev.SegmentKernel(v)
		if err != nil {
			return fmt.Errorf("argon2crack: kernel %s: %w", v.KernelName(), err)
		}
		e.kernels[v] = k
	}

	e.tune = newTuneTable(e.maxLanes, e.maxSegmentBlocks)
	e.keys = make([][]byte, e.maxKeys)
	e.crypted = make([]byte, e.maxKeys*MaxTag)
	e.planned = true
	return nil
}

// stagingIn returns candidate i's slice of the input staging region under
// the current salt: the lane-contiguous first-two-blocks strip.
func (e *Engine) stagingIn(i int, lanes uint32) []byte {
	stride := int(lanes) * 2 * argon2.BlockBytes
	return e.blocksIn[i*stride : (i+1)*stride]
}

// stagingOut returns candidate i's slice of the output staging region: the
// last block of every lane, back to back.
func (e *Engine) stagingOut(i int, lanes uint32) []byte {
	stride := int(lanes) * argon2.BlockBytes
	return e.blocksOut[i*stride : (i+1)*stride]
}
