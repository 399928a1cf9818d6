package argon2crack

import (
	"fmt"
	"time"
)

// Variant selects the Argon2 addressing mode. The numeric values match the
// suffix of the device kernel entry points and the `type` tunable exposed
// to the harness.
type Variant uint32

const (
	// Argon2d uses data-dependent addressing.
	Argon2d Variant = iota

	// Argon2i uses data-independent addressing.
	Argon2i

	// Argon2id runs the first half of the first pass data-independent
	// and everything after data-dependent.
	Argon2id

	numVariants = 3
)

// String returns the variant name as it appears in encoded hashes.
func (v Variant) String() string {
	switch v {
	case Argon2d:
		return "argon2d"
	case Argon2i:
		return "argon2i"
	case Argon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("argon2(%d)", uint32(v))
	}
}

// KernelName returns the device entry point of the variant's segment kernel.
func (v Variant) KernelName() string {
	return fmt.Sprintf("argon2_kernel_segment_%d", uint32(v))
}

// ThreadsPerLane is the number of device work-items cooperating on one lane.
const ThreadsPerLane = 32

// Geometry is the work-group tiling chosen by the autotuner.
// LanesPerBlock lanes and JobsPerBlock candidates share one work-group and
// its local-memory allocation.
type Geometry struct {
	LanesPerBlock uint32
	JobsPerBlock  uint32
}

// localMemBytes is the local-memory footprint of a work-group with this
// geometry: two 32-bit words per work-item.
func (g Geometry) localMemBytes() int {
	return ThreadsPerLane * int(g.LanesPerBlock) * int(g.JobsPerBlock) * 8
}

// Rect describes a three-dimensional rectangular copy between host memory
// and a device buffer, with OpenCL buffer-rect semantics: Region is
// {bytes per row, rows, slices}, origins are {byte, row, slice} offsets,
// and the pitches give the distance in bytes between consecutive rows and
// slices on each side.
type Rect struct {
	BufferOrigin [3]int
	HostOrigin   [3]int
	Region       [3]int

	BufferRowPitch   int
	BufferSlicePitch int
	HostRowPitch     int
	HostSlicePitch   int
}

// KernelArgs carries the seven-argument segment-kernel contract, in the
// fixed positions the device code expects: (0) the local-memory allocation
// size, (1) the global scratch buffer, then t_cost, lanes, segment_blocks,
// pass and slice as 32-bit values.
type KernelArgs struct {
	LocalMemBytes int
	Memory        Buffer

	Passes        uint32
	Lanes         uint32
	SegmentBlocks uint32
	Pass          uint32
	Slice         uint32
}

// Buffer is a device allocation. The core owns exactly one: the shared
// Argon2 scratch sized by the memory planner.
type Buffer interface {
	// Write copies host data into the buffer along r.
	Write(r Rect, host []byte) error

	// Read copies buffer contents into host memory along r.
	Read(r Rect, host []byte) error

	// Release frees the device allocation.
	Release() error
}

// Kernel is one compiled segment-kernel entry point.
type Kernel interface {
	// Run enqueues the kernel over the global range, tiled by the local
	// range, and blocks until the device reports completion.
	Run(args KernelArgs, global, local [2]int) error

	// RunProfiled is Run with device profiling enabled; it returns the
	// execution time measured between the start and end events.
	RunProfiled(args KernelArgs, global, local [2]int) (time.Duration, error)
}

// Device abstracts the GPU runtime the pipeline drives. Kernel compilation,
// queue management and event profiling stay behind this interface; the core
// only sizes buffers, dispatches segment kernels and waits.
type Device interface {
	// AllocBuffer creates a read-write device allocation of size bytes.
	AllocBuffer(size int) (Buffer, error)

	// SegmentKernel returns the compiled entry point for the variant.
	SegmentKernel(v Variant) (Kernel, error)

	// LocalMemSize is the per-work-group local-memory budget in bytes.
	LocalMemSize() int

	// GlobalMemSize is the total device memory in bytes.
	GlobalMemSize() int

	// Close releases the runtime resources.
	Close() error
}
