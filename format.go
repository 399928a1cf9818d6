package argon2crack

import (
	"bytes"
	"fmt"

	"github.com/yousef-lap/argon2crack/internal/argon2"
)

// The batch and comparison facade: the narrow contract the outer cracking
// harness drives. One batch is set_salt, then set_key per slot, then
// crypt_all, then cmp_one per target. Batches never overlap on the device.

// SetSalt installs the salt descriptor the next CryptAll runs against.
func (e *Engine) SetSalt(s *Salt) error {
	if e.closed {
		return ErrClosed
	}
	if s == nil {
		return fmt.Errorf("argon2crack: nil salt")
	}
	cp := *s
	cp.Salt = append([]byte(nil), s.Salt...)
	e.salt = &cp
	return nil
}

// SetKey stores the candidate password for slot i, truncated to
// MaxPassword bytes.
func (e *Engine) SetKey(i int, key []byte) error {
	if !e.planned {
		return ErrNotPlanned
	}
	if i < 0 || i >= e.maxKeys {
		return fmt.Errorf("argon2crack: key index %d outside batch of %d", i, e.maxKeys)
	}
	if len(key) > MaxPassword {
		key = key[:MaxPassword]
	}
	e.keys[i] = append(e.keys[i][:0], key...)
	return nil
}

// GetKey returns the candidate stored in slot i, exactly as kept.
func (e *Engine) GetKey(i int) []byte {
	if !e.planned || i < 0 || i >= e.maxKeys {
		return nil
	}
	return e.keys[i]
}

// CryptAll evaluates Argon2 for the leading n candidates of the batch
// against the current salt. On return, tag cells [0, n) hold the results.
// A device failure mid-batch is fatal for the batch: no partial results
// are published.
func (e *Engine) CryptAll(n int) error {
	switch {
	case e.closed:
		return ErrClosed
	case !e.planned:
		return ErrNotPlanned
	case e.salt == nil:
		return fmt.Errorf("argon2crack: crypt with no salt set")
	case n <= 0 || n > e.maxKeys:
		return fmt.Errorf("argon2crack: batch of %d outside (0, %d]", n, e.maxKeys)
	}

	s := e.salt
	variant, lanes, segmentBlocks := s.tuneKey()
	geometry, ok := e.tune.get(variant, lanes, segmentBlocks)
	if !ok {
		return fmt.Errorf("%w: (%s, %d, %d)", ErrNotTuned, variant, lanes, segmentBlocks)
	}

	params := argon2.Params{
		Variant:    uint32(s.Variant),
		Version:    s.Version,
		TimeCost:   s.TimeCost,
		MemoryCost: s.MemoryCost,
		Lanes:      s.Lanes,
		HashSize:   s.HashSize,
	}
	for i := 0; i < n; i++ {
		h0 := argon2.InitialHash(params, e.keys[i], s.Salt)
		argon2.FillFirstBlocks(&h0, s.Lanes, e.stagingIn(i, s.Lanes))
	}

	if err := e.runSegments(s, geometry); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		cell := e.crypted[i*MaxTag : i*MaxTag+int(s.HashSize)]
		argon2.FinalizeTag(cell, e.stagingOut(i, s.Lanes), s.Lanes)
	}
	return nil
}

// CmpOne reports whether candidate i's computed tag matches the expected
// binary (a MaxTag cell or any buffer holding at least HashSize bytes).
func (e *Engine) CmpOne(i int, binary []byte) bool {
	if !e.planned || e.salt == nil || i < 0 || i >= e.maxKeys {
		return false
	}
	n := int(e.salt.HashSize)
	if len(binary) < n {
		return false
	}
	return bytes.Equal(binary[:n], e.crypted[i*MaxTag:i*MaxTag+n])
}

// CmpAll is a permissive pre-filter over the whole batch; the harness
// relies on CmpOne for precision.
func (e *Engine) CmpAll(binary []byte, count int) bool {
	return true
}
