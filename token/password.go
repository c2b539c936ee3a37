package token

import (
	"crypto/rand"
	"math/big"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var alphabetSize = big.NewInt(int64(len(passwordAlphabet)))

// RandomAlphanumeric returns an n-character string drawn uniformly from
// [a-zA-Z0-9]. Each position is an independent uniform draw over the whole
// alphabet, so the final character ('9') is as likely as any other.
// Panics if the entropy source fails.
func RandomAlphanumeric(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("entropy source unavailable: " + err.Error())
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf)
}
