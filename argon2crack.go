// Package argon2crack implements a device-accelerated Argon2 evaluation
// pipeline for password cracking: given a set of decoded argon2 targets and
// a batch of candidate passwords, it computes every candidate's tag on a
// GPU-class device and compares the results against the targets.
//
// The pipeline is staged. A CPU-side initializer derives the first two
// blocks of every lane per candidate, the device fills the memory matrix
// one (pass, slice) segment kernel at a time, and a CPU-side finalizer
// reduces the lane tails into tags. A memory planner sizes one shared
// device scratch buffer for the whole target set, and an autotuner picks
// the work-group geometry per (variant, lanes, segment blocks) triple.
//
// Example usage:
//
//	salt, target, err := argon2crack.DecodeHash(encoded)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng, err := argon2crack.New(argon2crack.NewHostDevice(), argon2crack.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.Reset([]*argon2crack.Salt{salt})
//	eng.SetSalt(salt)
//	eng.SetKey(0, []byte("password"))
//	eng.CryptAll(1)
//	if eng.CmpOne(0, target) {
//	    fmt.Println("cracked:", string(eng.GetKey(0)))
//	}
package argon2crack

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultMaxKeysPerCrypt is the planner's starting batch width. The planner
// halves it as needed to fit the device scratch buffer.
const DefaultMaxKeysPerCrypt = 256

// Config specifies the engine configuration.
type Config struct {
	// MaxKeysPerCrypt is the upper bound on candidates per batch.
	// Zero selects DefaultMaxKeysPerCrypt.
	MaxKeysPerCrypt int

	// Logger receives planning and autotune diagnostics.
	// Nil selects logrus.StandardLogger().
	Logger *logrus.Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxKeysPerCrypt < 0 {
		return fmt.Errorf("argon2crack: negative MaxKeysPerCrypt: %d", c.MaxKeysPerCrypt)
	}
	return nil
}

// Engine owns the pipeline state: the device scratch buffer, the host
// staging buffers, the compiled kernels, the autotune table and the
// current batch. It is driven single-threaded by the outer harness and
// suspends only when waiting on the device.
type Engine struct {
	dev Device
	log *logrus.Logger

	// Set by the memory planner on the first Reset.
	planned          bool
	maxKeys          int
	maxLanes         uint32
	maxSegmentBlocks uint32

	scratch   Buffer
	kernels   [numVariants]Kernel
	blocksIn  []byte // first two blocks of each lane, per candidate
	blocksOut []byte // last block of each lane, per candidate
	tune      *tuneTable

	// Current batch.
	salt    *Salt
	keys    [][]byte
	crypted []byte // maxKeys cells of MaxTag bytes

	closed bool
}

// New creates an engine bound to the given device. The engine allocates
// nothing until Reset runs the memory planner over the target salts.
func New(dev Device, cfg Config) (*Engine, error) {
	if dev == nil {
		return nil, errors.New("argon2crack: nil device")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	maxKeys := cfg.MaxKeysPerCrypt
	if maxKeys == 0 {
		maxKeys = DefaultMaxKeysPerCrypt
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Engine{
		dev:     dev,
		log:     log,
		maxKeys: maxKeys,
	}, nil
}

// MaxKeysPerCrypt returns the current batch width. It only shrinks while
// the planner retries allocation; after a successful Reset it is stable.
func (e *Engine) MaxKeysPerCrypt() int {
	return e.maxKeys
}

// Reset prepares the engine for a target database: on first use it runs the
// memory planner over the distinct salts and compiles the kernels, then it
// autotunes the geometry of every (variant, lanes, segment blocks) triple
// the salts map to. Salts not seen by any Reset cannot be crypted against.
func (e *Engine) Reset(salts []*Salt) error {
	if e.closed {
		return ErrClosed
	}
	if len(salts) == 0 {
		return errors.New("argon2crack: reset with no salts")
	}

	if !e.planned {
		if err := e.plan(salts); err != nil {
			return err
		}
	}

	for _, s := range salts {
		if err := e.autotune(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the device scratch and marks the engine unusable.
// It is idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.scratch != nil {
		err = e.scratch.Release()
		e.scratch = nil
	}
	e.blocksIn = nil
	e.blocksOut = nil
	e.crypted = nil
	e.keys = nil
	return err
}
