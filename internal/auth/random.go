package auth

import (
	"crypto/rand"
	"fmt"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns n characters drawn uniformly from [A-Za-z0-9].
//
// Each random byte is masked to 6 bits (0..63) and values past the alphabet
// are rejected, so no character is more likely than another.
func RandomString(n int) (string, error) {
	const mask = 63

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("auth: reading random bytes: %w", err)
		}
		for _, b := range buf {
			idx := int(b & mask)
			if idx >= len(alphanumeric) {
				continue
			}
			out = append(out, alphanumeric[idx])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
