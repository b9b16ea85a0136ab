package lobby

import (
	"crypto/rand"
	mrand "math/rand"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// GenerateCode returns a random 6-character lobby code drawn from
// uppercase letters and digits. The code is the lobby's shared secret
// and is printed at startup for out-of-band distribution.
func GenerateCode() string {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively unheard of; the code is a
		// join secret, not a credential, so a math/rand fallback is fine.
		for i := range b {
			b[i] = byte(mrand.Intn(256))
		}
	}
	for i, v := range b {
		b[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return string(b)
}
