// Package ident provides stable 32-bit identifiers derived from name
// strings. Identifiers key parameters and events throughout the sound
// graph; equality and map hashing operate on the integer value only.
package ident

import "hash/crc32"

// ID is a 32-bit FNV-1a hash of a name string.
// The zero value is reserved as the invalid identifier.
type ID uint32

// Invalid is the reserved zero identifier.
const Invalid ID = 0

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// New hashes a name string with 32-bit FNV-1a.
// Callers are expected to use distinct names; collisions are not defended
// against and no reverse lookup is provided.
func New(name string) ID {
	h := uint32(fnvOffset32)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= fnvPrime32
	}

	return ID(h)
}

// Combine mixes two identifiers into one, suitable for deriving a child
// identifier from a namespace and a member name.
func Combine(a, b ID) ID {
	return a ^ (b + 0x9e3779b9 + (a << 6) + (a >> 2))
}

// CRC32 hashes arbitrary bytes with the IEEE polynomial. It serves data
// whose bytes are only known at run time, such as loaded resource names.
func CRC32(data []byte) ID {
	return ID(crc32.ChecksumIEEE(data))
}

// Mix64 finalizes a 64-bit value with three xor-shift/multiply rounds
// (SplitMix64 constants). Used to spread UUID halves across the full range.
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 33
	x *= 0x94d049bb133111eb
	x ^= x >> 33

	return x
}
