package argon2crack

import (
	"bytes"
	"testing"
	"time"
)

// The scenario vectors: every encoded hash must come back true from CmpOne
// after a batch containing its password, computed on the host device.
var crackVectors = []struct {
	name     string
	encoded  string
	password string
	slow     bool
}{
	{
		name:     "argon2d_m4096_t3_p1",
		encoded:  "$argon2d$v=19$m=4096,t=3,p=1$ZGFtYWdlX2RvbmU$w9w3s5/zV8+PcAZlJhnTCOE+vBkZssmZf6jOq3dKv50",
		password: "password",
	},
	{
		name:     "argon2i_m4096_t3_p1",
		encoded:  "$argon2i$v=19$m=4096,t=3,p=1$ZGFtYWdlX2RvbmU$N59QwnpxDQZRj1/cO6bqm408dD6Z2Z9LKYpwFJSPVKA",
		password: "password",
	},
	{
		name:     "argon2d_m16384_t3_p1_short_tag",
		encoded:  "$argon2d$v=19$m=16384,t=3,p=1$c2hvcnRfc2FsdA$TLSTPihIo+5F67Y1vJdfWdB9",
		password: "blessed_dead",
		slow:     true,
	},
	{
		name:     "argon2i_m16384_t4_p3_long_tag",
		encoded:  "$argon2i$v=19$m=16384,t=4,p=3$YW5vdGhlcl9zYWx0$K7unxwO5aeuZCpnIJ06FMCRKod3eRg8oIRzQrK3E6mGbyqlTvvl47jeDWq/5drF1COJkEF9Ty7FWXJZHa+vqlf2YZGp/4qSlAvKmdtJ/6JZU32iQItzMRwcfujHE+PBjbL5uz4966A",
		password: "death_dying",
		slow:     true,
	},
	{
		name:     "argon2id_m4096_t3_p1",
		encoded:  "$argon2id$v=19$m=4096,t=3,p=1$c2hvcmF0X3NhbHQ$K6/V3qNPJwVmLb/ELiD8gKGskLaFv5OweJYwSKUW1hE",
		password: "password",
	},
	{
		name:     "argon2id_m16384_t4_p3",
		encoded:  "$argon2id$v=19$m=16384,t=4,p=3$c2hvcmF0X3NhbHQ$hG83oaWEcftTjbiWJxoQs6gKCModwYAC+9EK8j/DUsk",
		password: "sacrificed",
		slow:     true,
	},
}

func TestCryptAllCracksKnownHashes(t *testing.T) {
	for _, tt := range crackVectors {
		t.Run(tt.name, func(t *testing.T) {
			if tt.slow && testing.Short() {
				t.Skip("skipping 16 MiB fill in short mode")
			}

			salt, target := mustDecode(t, tt.encoded)
			// A non-power-of-two batch keeps the reset-time autotune
			// sweep down to its baseline measurement.
			eng := newTestEngine(t, 3, salt)

			if err := eng.SetSalt(salt); err != nil {
				t.Fatal(err)
			}
			// The right candidate sits between decoys.
			eng.SetKey(0, []byte("wrong_guess"))
			eng.SetKey(1, []byte(tt.password))
			eng.SetKey(2, []byte(tt.password+"x"))

			if err := eng.CryptAll(3); err != nil {
				t.Fatalf("CryptAll() error = %v", err)
			}

			if !eng.CmpAll(target, 3) {
				t.Error("CmpAll() = false, want permissive true")
			}
			if eng.CmpOne(0, target) {
				t.Error("CmpOne(decoy) = true")
			}
			if !eng.CmpOne(1, target) {
				t.Error("CmpOne(correct password) = false")
			}
			if eng.CmpOne(2, target) {
				t.Error("CmpOne(near miss) = true")
			}
		})
	}
}

func TestCryptAllRejectsSingleByteDifference(t *testing.T) {
	salt, target := mustDecode(t, crackVectors[0].encoded)
	eng := newTestEngine(t, 3, salt)
	eng.SetSalt(salt)

	password := []byte(crackVectors[0].password)
	flipped := append([]byte(nil), password...)
	flipped[0] ^= 0x01

	eng.SetKey(0, password)
	eng.SetKey(1, flipped)
	if err := eng.CryptAll(2); err != nil {
		t.Fatalf("CryptAll() error = %v", err)
	}

	if !eng.CmpOne(0, target) {
		t.Error("CmpOne(correct) = false")
	}
	if eng.CmpOne(1, target) {
		t.Error("CmpOne(one bit off) = true")
	}
}

func TestCryptAllDeterministicAcrossGeometries(t *testing.T) {
	salt, target := mustDecode(t, crackVectors[1].encoded)
	eng := newTestEngine(t, 4, salt)
	eng.SetSalt(salt)
	eng.SetKey(0, []byte(crackVectors[1].password))

	variant, lanes, segmentBlocks := salt.tuneKey()
	var tags [][]byte
	for _, g := range []Geometry{
		{LanesPerBlock: 1, JobsPerBlock: 1},
		{LanesPerBlock: 1, JobsPerBlock: 2},
		{LanesPerBlock: 1, JobsPerBlock: 4},
	} {
		eng.tune.put(variant, lanes, segmentBlocks, g)
		if err := eng.CryptAll(1); err != nil {
			t.Fatalf("CryptAll() with geometry (%d, %d): %v", g.LanesPerBlock, g.JobsPerBlock, err)
		}
		if !eng.CmpOne(0, target) {
			t.Errorf("geometry (%d, %d) missed the known tag", g.LanesPerBlock, g.JobsPerBlock)
		}
		tags = append(tags, append([]byte(nil), eng.crypted[:salt.HashSize]...))
	}

	for i := 1; i < len(tags); i++ {
		if !bytes.Equal(tags[0], tags[i]) {
			t.Errorf("geometry %d produced a different tag", i)
		}
	}
}

// countingDevice wraps the host device and counts kernel submissions.
type countingDevice struct {
	*HostDevice
	runs int
}

type countingKernel struct {
	Kernel
	dev *countingDevice
}

func (d *countingDevice) SegmentKernel(v Variant) (Kernel, error) {
	k, err := d.HostDevice.SegmentKernel(v)
	if err != nil {
		return nil, err
	}
	return &countingKernel{Kernel: k, dev: d}, nil
}

func (k *countingKernel) Run(args KernelArgs, global, local [2]int) error {
	k.dev.runs++
	return k.Kernel.Run(args, global, local)
}

func TestCryptAllSubmitsOneKernelPerPassSlice(t *testing.T) {
	salt, _ := mustDecode(t, crackVectors[0].encoded)

	dev := &countingDevice{HostDevice: NewHostDevice()}
	eng, err := New(dev, Config{MaxKeysPerCrypt: 3, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()
	if err := eng.Reset([]*Salt{salt}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	eng.SetSalt(salt)
	eng.SetKey(0, []byte("password"))

	dev.runs = 0 // discard autotune launches
	if err := eng.CryptAll(1); err != nil {
		t.Fatalf("CryptAll() error = %v", err)
	}

	want := int(salt.TimeCost) * SyncPoints
	if dev.runs != want {
		t.Errorf("kernel submissions = %d, want t_cost*4 = %d", dev.runs, want)
	}
}

func TestCryptAllReusesBatchSlots(t *testing.T) {
	salt, target := mustDecode(t, crackVectors[0].encoded)
	eng := newTestEngine(t, 3, salt)
	eng.SetSalt(salt)

	// First batch: miss everywhere.
	for i, w := range []string{"a", "b", "c"} {
		eng.SetKey(i, []byte(w))
	}
	if err := eng.CryptAll(3); err != nil {
		t.Fatalf("CryptAll() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if eng.CmpOne(i, target) {
			t.Fatalf("CmpOne(%d) = true for a wrong candidate", i)
		}
	}

	// Second batch over the same slots: hit in slot 2.
	eng.SetKey(2, []byte(crackVectors[0].password))
	if err := eng.CryptAll(3); err != nil {
		t.Fatalf("second CryptAll() error = %v", err)
	}
	if !eng.CmpOne(2, target) {
		t.Error("CmpOne after slot reuse = false")
	}
}

// One engine serves a whole target database: planning takes the maxima over
// every salt, and each distinct (variant, lanes, segment blocks) triple gets
// its own tuned geometry.
func TestMultiSaltDatabase(t *testing.T) {
	type target struct {
		salt     *Salt
		binary   []byte
		password string
	}
	var (
		targets []target
		salts   []*Salt
	)
	for _, v := range crackVectors {
		if v.slow {
			continue
		}
		s, binary := mustDecode(t, v.encoded)
		targets = append(targets, target{salt: s, binary: binary, password: v.password})
		salts = append(salts, s)
	}

	eng := newTestEngine(t, 3, salts...)

	for _, tgt := range targets {
		if err := eng.SetSalt(tgt.salt); err != nil {
			t.Fatal(err)
		}
		eng.SetKey(0, []byte("not it"))
		eng.SetKey(1, []byte(tgt.password))
		if err := eng.CryptAll(2); err != nil {
			t.Fatalf("CryptAll() for %s: %v", tgt.salt.Variant, err)
		}
		if eng.CmpOne(0, tgt.binary) {
			t.Errorf("%s: decoy matched", tgt.salt.Variant)
		}
		if !eng.CmpOne(1, tgt.binary) {
			t.Errorf("%s: password missed", tgt.salt.Variant)
		}
	}
}

// A slow profiled launch must only be noted, never fail the reset.
func TestSlowKernelIsOnlyNoted(t *testing.T) {
	kern := &scriptKernel{times: map[Geometry]time.Duration{
		{1, 1}: 300 * time.Millisecond,
	}}
	eng := newScriptEngine(t, kern, 8)
	if err := eng.Reset([]*Salt{fourLaneSalt()}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if eng.MaxKeysPerCrypt() != 8 {
		t.Errorf("batch width changed to %d in response to a slow kernel", eng.MaxKeysPerCrypt())
	}
}
