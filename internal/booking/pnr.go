package booking

import (
	"crypto/rand"
	"fmt"
)

// pnrAlphabet avoids characters that read ambiguously over the phone
// (no 0/O, 1/I/L).
const pnrAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// pnrLength gives ~31^6 locators per property, plenty before the
// per-property uniqueness constraint forces a regenerate.
const pnrLength = 6

// GeneratePNR produces a random human-readable booking locator.
func GeneratePNR() (string, error) {
	buf := make([]byte, pnrLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate pnr: %w", err)
	}
	for i, b := range buf {
		buf[i] = pnrAlphabet[int(b)%len(pnrAlphabet)]
	}
	return string(buf), nil
}
