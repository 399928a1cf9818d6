package argon2crack

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/yousef-lap/argon2crack/internal/argon2"
	"github.com/yousef-lap/argon2crack/internal/kernel"
)

// HostDevice executes the segment kernels on the CPU. It implements Device
// with the same geometry, argument and rectangular-copy contracts a GPU
// runtime exposes, which makes it the validation target for the pipeline
// and a fallback when no GPU runtime is bound. Candidates run across all
// CPUs; lanes within a (candidate, slice) run serially.
//
// Profiling times are wall clock rather than device events.
type HostDevice struct {
	localMem  int
	globalMem int
	closed    bool
}

const (
	hostLocalMemSize  = 32 << 10
	hostGlobalMemSize = 8 << 30
)

// NewHostDevice returns a host device with a typical GPU-like local-memory
// budget of 32 KiB.
func NewHostDevice() *HostDevice {
	return &HostDevice{
		localMem:  hostLocalMemSize,
		globalMem: hostGlobalMemSize,
	}
}

// AllocBuffer creates a block-aligned host allocation standing in for
// device global memory.
func (d *HostDevice) AllocBuffer(size int) (Buffer, error) {
	if d.closed {
		return nil, errors.New("argon2crack: host device is closed")
	}
	if size <= 0 || size%BlockBytes != 0 {
		return nil, fmt.Errorf("argon2crack: buffer size %d is not a positive block multiple", size)
	}
	if size > d.globalMem {
		return nil, fmt.Errorf("argon2crack: buffer of %d bytes exceeds %d bytes of device memory",
			size, d.globalMem)
	}
	return &hostBuffer{blocks: make([]argon2.Block, size/BlockBytes)}, nil
}

// SegmentKernel returns the host implementation of the variant's entry point.
func (d *HostDevice) SegmentKernel(v Variant) (Kernel, error) {
	if v >= numVariants {
		return nil, fmt.Errorf("argon2crack: no kernel %s", v.KernelName())
	}
	return &hostKernel{dev: d, variant: v}, nil
}

func (d *HostDevice) LocalMemSize() int  { return d.localMem }
func (d *HostDevice) GlobalMemSize() int { return d.globalMem }

func (d *HostDevice) Close() error {
	d.closed = true
	return nil
}

// hostBuffer keeps the scratch as decoded blocks so the fill phase works on
// words directly; rect copies translate at the boundary.
type hostBuffer struct {
	blocks []argon2.Block
}

func (b *hostBuffer) Write(r Rect, host []byte) error {
	return b.eachRow(r, host, func(dst []argon2.Block, src []byte) {
		for i := range dst {
			dst[i].Decode(src[i*BlockBytes:])
		}
	})
}

func (b *hostBuffer) Read(r Rect, host []byte) error {
	return b.eachRow(r, host, func(src []argon2.Block, dst []byte) {
		for i := range src {
			src[i].Encode(dst[i*BlockBytes:])
		}
	})
}

// eachRow walks the rect row by row and hands the copy callback the
// buffer-side blocks and host-side bytes of each row. Rows must be
// block-aligned on the buffer side.
func (b *hostBuffer) eachRow(r Rect, host []byte, move func([]argon2.Block, []byte)) error {
	rowBytes := r.Region[0]
	if rowBytes%BlockBytes != 0 {
		return fmt.Errorf("argon2crack: rect row of %d bytes is not block-aligned", rowBytes)
	}
	rowBlocks := rowBytes / BlockBytes

	for z := 0; z < r.Region[2]; z++ {
		for y := 0; y < r.Region[1]; y++ {
			bufOff := (r.BufferOrigin[2]+z)*r.BufferSlicePitch +
				(r.BufferOrigin[1]+y)*r.BufferRowPitch + r.BufferOrigin[0]
			hostOff := (r.HostOrigin[2]+z)*r.HostSlicePitch +
				(r.HostOrigin[1]+y)*r.HostRowPitch + r.HostOrigin[0]

			if bufOff%BlockBytes != 0 {
				return fmt.Errorf("argon2crack: rect buffer offset %d is not block-aligned", bufOff)
			}
			if bufOff < 0 || bufOff+rowBytes > len(b.blocks)*BlockBytes {
				return fmt.Errorf("argon2crack: rect row outside buffer: offset %d, row %d bytes",
					bufOff, rowBytes)
			}
			if hostOff < 0 || hostOff+rowBytes > len(host) {
				return fmt.Errorf("argon2crack: rect row outside host region: offset %d, row %d bytes",
					hostOff, rowBytes)
			}

			move(b.blocks[bufOff/BlockBytes:bufOff/BlockBytes+rowBlocks], host[hostOff:hostOff+rowBytes])
		}
	}
	return nil
}

func (b *hostBuffer) Release() error {
	b.blocks = nil
	return nil
}

// hostKernel runs the reference segment kernel over the global range.
type hostKernel struct {
	dev     *HostDevice
	variant Variant
}

func (k *hostKernel) Run(args KernelArgs, global, local [2]int) error {
	if local[0] <= 0 || local[1] <= 0 ||
		local[0]%ThreadsPerLane != 0 ||
		global[0]%local[0] != 0 || global[1]%local[1] != 0 {
		return fmt.Errorf("argon2crack: local range %v does not tile global range %v", local, global)
	}
	if args.LocalMemBytes > k.dev.localMem {
		return fmt.Errorf("argon2crack: kernel wants %d bytes of local memory, device has %d",
			args.LocalMemBytes, k.dev.localMem)
	}
	lanes, batch := global[0]/ThreadsPerLane, global[1]
	if lanes != int(args.Lanes) {
		return fmt.Errorf("argon2crack: global range %v disagrees with %d lanes", global, args.Lanes)
	}

	buf, ok := args.Memory.(*hostBuffer)
	if !ok {
		return errors.New("argon2crack: scratch buffer does not belong to this device")
	}
	jobBlocks := lanes * SyncPoints * int(args.SegmentBlocks)
	if batch*jobBlocks > len(buf.blocks) {
		return fmt.Errorf("argon2crack: batch of %d needs %d blocks, scratch has %d",
			batch, batch*jobBlocks, len(buf.blocks))
	}

	// Candidates are independent within a (pass, slice) step; spread them
	// over the CPUs.
	workers := runtime.NumCPU()
	if workers > batch {
		workers = batch
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for job := w; job < batch; job += workers {
				tile := buf.blocks[job*jobBlocks : (job+1)*jobBlocks]
				for lane := uint32(0); lane < args.Lanes; lane++ {
					kernel.FillSegment(tile, uint32(k.variant), args.Passes,
						args.Lanes, args.SegmentBlocks, args.Pass, args.Slice, lane)
				}
			}
		}(w)
	}
	wg.Wait()
	return nil
}

func (k *hostKernel) RunProfiled(args KernelArgs, global, local [2]int) (time.Duration, error) {
	start := time.Now()
	if err := k.Run(args, global, local); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
