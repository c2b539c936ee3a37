package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from the OS entropy source.
// It panics if the source fails, which is treated as a fatal process-level
// condition rather than a recoverable error.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic("entropy source unavailable: " + err.Error())
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Useful for removing plaintext secrets from memory after use.
// A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
