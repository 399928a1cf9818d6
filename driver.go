package argon2crack

import "fmt"

// checkGeometry enforces the work-group invariants: lanes_per_block divides
// lanes, jobs_per_block divides the batch width, and the local-memory
// footprint fits the device budget. Violations are configuration errors
// against the autotuner, never user input.
func (e *Engine) checkGeometry(g Geometry, lanes uint32) error {
	if g.LanesPerBlock == 0 || g.LanesPerBlock > lanes || lanes%g.LanesPerBlock != 0 {
		return fmt.Errorf("%w: lanes_per_block %d does not divide lanes %d",
			ErrBadGeometry, g.LanesPerBlock, lanes)
	}
	if g.JobsPerBlock == 0 || int(g.JobsPerBlock) > e.maxKeys || e.maxKeys%int(g.JobsPerBlock) != 0 {
		return fmt.Errorf("%w: jobs_per_block %d does not divide batch %d",
			ErrBadGeometry, g.JobsPerBlock, e.maxKeys)
	}
	if g.localMemBytes() > e.dev.LocalMemSize() {
		return fmt.Errorf("%w: %d bytes of local memory exceed the %d-byte budget",
			ErrBadGeometry, g.localMemBytes(), e.dev.LocalMemSize())
	}
	return nil
}

// runSegments drives the memory-fill phase for the whole batch: upload the
// first-two-blocks strip, one segment-kernel launch per (pass, slice) in
// strict nested order with a finish after each, then read back the lane
// tails. The per-step barrier is the slice synchronization Argon2 requires;
// pipelining across slices is not allowed.
func (e *Engine) runSegments(s *Salt, g Geometry) error {
	lanes := s.Lanes
	segmentBlocks := s.SegmentBlocks()
	if err := e.checkGeometry(g, lanes); err != nil {
		return err
	}

	laneStride := SyncPoints * int(segmentBlocks) * BlockBytes
	jobStride := int(lanes) * laneStride

	// The scratch tile is lane-major; one rect row is one lane's strip,
	// one slice is one candidate.
	in := Rect{
		Region:           [3]int{2 * BlockBytes, int(lanes), e.maxKeys},
		BufferRowPitch:   laneStride,
		BufferSlicePitch: jobStride,
		HostRowPitch:     2 * BlockBytes,
		HostSlicePitch:   int(lanes) * 2 * BlockBytes,
	}
	if err := e.scratch.Write(in, e.blocksIn); err != nil {
		return fmt.Errorf("argon2crack: upload first blocks: %w", err)
	}

	kernel := e.kernels[s.Variant]
	args := KernelArgs{
		LocalMemBytes: g.localMemBytes(),
		Memory:        e.scratch,
		Passes:        s.TimeCost,
		Lanes:         lanes,
		SegmentBlocks: segmentBlocks,
	}
	global := [2]int{ThreadsPerLane * int(lanes), e.maxKeys}
	local := [2]int{ThreadsPerLane * int(g.LanesPerBlock), int(g.JobsPerBlock)}

	for pass := uint32(0); pass < s.TimeCost; pass++ {
		for slice := uint32(0); slice < SyncPoints; slice++ {
			args.Pass, args.Slice = pass, slice
			if err := kernel.Run(args, global, local); err != nil {
				return fmt.Errorf("argon2crack: segment kernel pass %d slice %d: %w",
					pass, slice, err)
			}
		}
	}

	out := Rect{
		BufferOrigin:     [3]int{laneStride - BlockBytes, 0, 0},
		Region:           [3]int{BlockBytes, int(lanes), e.maxKeys},
		BufferRowPitch:   laneStride,
		BufferSlicePitch: jobStride,
		HostRowPitch:     BlockBytes,
		HostSlicePitch:   int(lanes) * BlockBytes,
	}
	if err := e.scratch.Read(out, e.blocksOut); err != nil {
		return fmt.Errorf("argon2crack: read back lane tails: %w", err)
	}
	return nil
}
