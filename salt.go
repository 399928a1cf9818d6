package argon2crack

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/yousef-lap/argon2crack/internal/argon2"
)

// Limits shared with the outer harness.
const (
	// BlockBytes is the size of one Argon2 memory block.
	BlockBytes = argon2.BlockBytes

	// SyncPoints is the number of slices per pass.
	SyncPoints = argon2.SyncPoints

	// MaxPassword is the longest candidate password stored per key slot.
	MaxPassword = 100

	// MaxTag is the fixed size of a stored target or computed tag cell.
	MaxTag = 256

	// MaxSalt is the longest accepted salt.
	MaxSalt = 64

	// Version13 is the only supported argon2 version.
	Version13 = 0x13

	// Version10 is the obsolete argon2 version, rejected by the decoder.
	Version10 = 0x10

	// minTag is the shortest accepted tag.
	minTag = 8
)

const (
	prefixArgon2d  = "$argon2d$"
	prefixArgon2i  = "$argon2i$"
	prefixArgon2id = "$argon2id$"
)

// Salt is the immutable descriptor decoded from one encoded hash: the
// variant, the cost parameters exposed to the harness as tunables, and the
// salt bytes. Candidates in a batch all share one Salt.
type Salt struct {
	Variant    Variant
	Version    uint32
	TimeCost   uint32 // passes over memory (t)
	MemoryCost uint32 // requested KiB (m)
	Lanes      uint32 // parallelism (p)
	HashSize   uint32 // tag length in bytes
	Salt       []byte
}

// SegmentBlocks is the number of blocks per (lane, slice):
// max(m / (lanes*4), 2). The effective memory per candidate is
// lanes * 4 * SegmentBlocks blocks, which rounds the requested m down to a
// multiple of 4*lanes with a floor of 8*lanes.
func (s *Salt) SegmentBlocks() uint32 {
	sb := s.MemoryCost / (s.Lanes * SyncPoints)
	if sb < 2 {
		sb = 2
	}
	return sb
}

// jobBytes is the device scratch footprint of one candidate under this salt.
func (s *Salt) jobBytes() int {
	return int(s.Lanes) * SyncPoints * int(s.SegmentBlocks()) * BlockBytes
}

// BucketHash folds the salt bytes into a bucket index of the given bit
// width, for harness-side salt tables.
func (s *Salt) BucketHash(bits uint) uint32 {
	var h uint32
	mask := uint32(1)<<bits - 1
	for _, b := range s.Salt {
		h = h<<1 + uint32(b)
		if h>>bits != 0 {
			h ^= h >> bits
			h &= mask
		}
	}
	h ^= h >> bits
	return h & mask
}

// tuneKey identifies the autotune entry this salt maps to.
func (s *Salt) tuneKey() (Variant, uint32, uint32) {
	return s.Variant, s.Lanes, s.SegmentBlocks()
}

// DecodeHash parses an encoded argon2 hash of the form
//
//	$argon2{d,i,id}$v=19$m=<m>,t=<t>,p=<p>$<salt>$<tag>
//
// with unpadded standard base64 for salt and tag. It returns the salt
// descriptor and the expected tag in a fixed MaxTag-byte cell (tag bytes
// first, zero-filled) for uniform comparison storage.
//
// Rejections: unknown prefix, version 0x10 (ErrUnsupportedVersion), tags
// shorter than 8 bytes (ErrTagTooShort), and any other parse or range
// failure (ErrInvalidHash).
func DecodeHash(encoded string) (*Salt, []byte, error) {
	// Longest prefix first so argon2id is not misread as argon2i.
	var variant Variant
	var rest string
	switch {
	case strings.HasPrefix(encoded, prefixArgon2id):
		variant, rest = Argon2id, encoded[len(prefixArgon2id):]
	case strings.HasPrefix(encoded, prefixArgon2i):
		variant, rest = Argon2i, encoded[len(prefixArgon2i):]
	case strings.HasPrefix(encoded, prefixArgon2d):
		variant, rest = Argon2d, encoded[len(prefixArgon2d):]
	default:
		return nil, nil, fmt.Errorf("%w: unknown prefix", ErrInvalidHash)
	}

	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return nil, nil, fmt.Errorf("%w: want 4 fields, got %d", ErrInvalidHash, len(fields))
	}

	var version uint32
	if n, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil || n != 1 {
		return nil, nil, fmt.Errorf("%w: bad version field %q", ErrInvalidHash, fields[0])
	}
	if version == Version10 {
		return nil, nil, ErrUnsupportedVersion
	}
	if version != Version13 {
		return nil, nil, fmt.Errorf("%w: unknown version %d", ErrInvalidHash, version)
	}

	var m, t, p uint32
	if n, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil || n != 3 {
		return nil, nil, fmt.Errorf("%w: bad cost field %q", ErrInvalidHash, fields[1])
	}
	if m == 0 || t == 0 || p == 0 {
		return nil, nil, fmt.Errorf("%w: zero cost parameter", ErrInvalidHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad salt encoding: %v", ErrInvalidHash, err)
	}
	if len(salt) > MaxSalt {
		return nil, nil, fmt.Errorf("%w: salt longer than %d bytes", ErrInvalidHash, MaxSalt)
	}

	tag, err := base64.RawStdEncoding.DecodeString(fields[3])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad tag encoding: %v", ErrInvalidHash, err)
	}
	if len(tag) > MaxTag {
		return nil, nil, fmt.Errorf("%w: tag longer than %d bytes", ErrInvalidHash, MaxTag)
	}
	if len(tag) < minTag {
		return nil, nil, ErrTagTooShort
	}

	s := &Salt{
		Variant:    variant,
		Version:    version,
		TimeCost:   t,
		MemoryCost: m,
		Lanes:      p,
		HashSize:   uint32(len(tag)),
		Salt:       salt,
	}

	binary := make([]byte, MaxTag)
	copy(binary, tag)
	return s, binary, nil
}

// IsValidHash reports whether encoded would be accepted by DecodeHash.
// Rejected inputs never reach the pipeline.
func IsValidHash(encoded string) bool {
	_, _, err := DecodeHash(encoded)
	return err == nil
}
