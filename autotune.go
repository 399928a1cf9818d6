package argon2crack

import (
	"fmt"
	"time"
)

// slowKernelThreshold is the per-launch duration worth flagging. Reducing
// the batch width in response is a known option left unimplemented.
const slowKernelThreshold = 200 * time.Millisecond

// tuneTable memoizes the autotuned geometry per (variant, lanes,
// segment blocks) triple. Entries are write-once; the zero Geometry means
// "not yet measured". Axis bounds come from the planner's maxima over the
// target database.
type tuneTable struct {
	maxLanes         uint32
	maxSegmentBlocks uint32
	entries          []Geometry
}

func newTuneTable(maxLanes, maxSegmentBlocks uint32) *tuneTable {
	return &tuneTable{
		maxLanes:         maxLanes,
		maxSegmentBlocks: maxSegmentBlocks,
		entries:          make([]Geometry, numVariants*int(maxLanes+1)*int(maxSegmentBlocks+1)),
	}
}

func (t *tuneTable) index(v Variant, lanes, segmentBlocks uint32) int {
	if lanes == 0 || lanes > t.maxLanes || segmentBlocks > t.maxSegmentBlocks {
		panic(fmt.Sprintf("argon2crack: tune key (%s, %d, %d) outside planned bounds",
			v, lanes, segmentBlocks))
	}
	return (int(v)*int(t.maxLanes+1)+int(lanes))*int(t.maxSegmentBlocks+1) + int(segmentBlocks)
}

func (t *tuneTable) get(v Variant, lanes, segmentBlocks uint32) (Geometry, bool) {
	// Salts outside the planned maxima were never seen by Reset and so
	// were never measured.
	if lanes == 0 || lanes > t.maxLanes || segmentBlocks > t.maxSegmentBlocks {
		return Geometry{}, false
	}
	g := t.entries[t.index(v, lanes, segmentBlocks)]
	return g, g.LanesPerBlock != 0
}

func (t *tuneTable) put(v Variant, lanes, segmentBlocks uint32, g Geometry) {
	t.entries[t.index(v, lanes, segmentBlocks)] = g
}

func isPowerOfTwo(x int) bool {
	return x&(x-1) == 0
}

// autotune measures the work-group geometry for the salt's tune triple and
// memoizes the winner. When lanes is a power of two above one, the sweep
// walks lanes_per_block over the powers of two up to lanes; then, only when
// a whole work-group holds exactly one job's lanes and the batch width is a
// power of two above one, it walks jobs_per_block over the powers of two up
// to the batch width. Other lane counts and batch widths keep the (1, 1)
// baseline. Each point gets a warm-up launch and a profiled launch of the
// first segment (pass 0, slice 0) of a one-pass fill; a device error
// truncates the sweep and the best point so far stands.
func (e *Engine) autotune(s *Salt) error {
	variant, lanes, segmentBlocks := s.tuneKey()
	if _, ok := e.tune.get(variant, lanes, segmentBlocks); ok {
		return nil
	}

	kernel := e.kernels[variant]
	global := [2]int{ThreadsPerLane * int(lanes), e.maxKeys}
	args := KernelArgs{
		Memory:        e.scratch,
		Passes:        1,
		Lanes:         lanes,
		SegmentBlocks: segmentBlocks,
		Pass:          0,
		Slice:         0,
	}

	measure := func(g Geometry) (time.Duration, error) {
		args.LocalMemBytes = g.localMemBytes()
		if args.LocalMemBytes > e.dev.LocalMemSize() {
			e.log.Warnf("argon2crack: geometry (%d, %d) wants %d KB of %d KB local memory",
				g.LanesPerBlock, g.JobsPerBlock,
				args.LocalMemBytes>>10, e.dev.LocalMemSize()>>10)
		}
		local := [2]int{ThreadsPerLane * int(g.LanesPerBlock), int(g.JobsPerBlock)}
		if err := kernel.Run(args, global, local); err != nil { // warm-up
			return 0, err
		}
		return kernel.RunProfiled(args, global, local)
	}

	best := Geometry{LanesPerBlock: 1, JobsPerBlock: 1}
	bestTime, err := measure(best)
	if err != nil {
		return fmt.Errorf("argon2crack: autotune baseline for (%s, %d, %d): %w",
			variant, lanes, segmentBlocks, err)
	}

	if lanes > 1 && isPowerOfTwo(int(lanes)) {
		for lpb := uint32(1); lpb <= lanes; lpb *= 2 {
			g := Geometry{LanesPerBlock: lpb, JobsPerBlock: 1}
			t, err := measure(g)
			if err != nil {
				break // transient device error: keep the best so far
			}
			if t < bestTime {
				bestTime, best = t, g
			}
		}
	}

	// Packing several jobs into one work-group only pays once its lanes
	// are already saturated by a single job.
	if best.LanesPerBlock == lanes && e.maxKeys > 1 && isPowerOfTwo(e.maxKeys) {
		for jpb := 1; jpb <= e.maxKeys; jpb *= 2 {
			g := Geometry{LanesPerBlock: best.LanesPerBlock, JobsPerBlock: uint32(jpb)}
			t, err := measure(g)
			if err != nil {
				break
			}
			if t < bestTime {
				bestTime, best = t, g
			}
		}
	}

	e.tune.put(variant, lanes, segmentBlocks, best)
	e.log.Infof("argon2crack: autotune [%s lanes=%d segments=%d] -> (%d, %d) in %v",
		variant, lanes, segmentBlocks, best.LanesPerBlock, best.JobsPerBlock, bestTime)
	if bestTime > slowKernelThreshold {
		e.log.Warnf("argon2crack: slow kernel for [%s lanes=%d segments=%d]: %v per launch",
			variant, lanes, segmentBlocks, bestTime)
	}
	return nil
}
