package pkgfile

import (
	"encoding/binary"
	"strings"
)

// MurmurHash64A implements the 64-bit MurmurHash2 algorithm used for path
// lookup entries in package files.
func MurmurHash64A(data []byte, seed uint64) uint64 {
	const (
		m = 0xc6a4a7935bd1e995
		r = 47
	)

	h := seed ^ (uint64(len(data)) * m)

	remainder := len(data) & 7
	alignedLength := len(data) - remainder

	for i := 0; i < alignedLength; i += 8 {
		k := binary.LittleEndian.Uint64(data[i : i+8])

		k *= m
		k ^= k >> r
		k *= m

		h ^= k
		h *= m
	}

	switch remainder {
	case 7:
		h ^= uint64(data[alignedLength+6]) << 48
		fallthrough
	case 6:
		h ^= uint64(data[alignedLength+5]) << 40
		fallthrough
	case 5:
		h ^= uint64(data[alignedLength+4]) << 32
		fallthrough
	case 4:
		h ^= uint64(data[alignedLength+3]) << 24
		fallthrough
	case 3:
		h ^= uint64(data[alignedLength+2]) << 16
		fallthrough
	case 2:
		h ^= uint64(data[alignedLength+1]) << 8
		fallthrough
	case 1:
		h ^= uint64(data[alignedLength+0])
		h *= m
	}

	h ^= h >> r
	h *= m
	h ^= h >> r

	return h
}

const pathHashSeed = 0x52545049

// HashPath computes the path-table hash of a package-relative path. Paths
// hash identically regardless of case and separator style.
func HashPath(path string) uint64 {
	normalized := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	return MurmurHash64A([]byte(normalized), pathHashSeed)
}
