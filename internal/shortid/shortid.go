// Package shortid mints the short identifiers used in share links.
package shortid

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet omits characters that are easy to confuse when read aloud or typed (0/O, 1/l/I).
const Alphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// Length is the number of characters in an identifier.
const Length = 10

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// New returns a random identifier of Length characters.
func New() (string, error) {
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// Valid reports whether id could have been produced by New.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !inAlphabet(id[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	for i := 0; i < len(Alphabet); i++ {
		if Alphabet[i] == c {
			return true
		}
	}
	return false
}
