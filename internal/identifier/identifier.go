package identifier

import "math/rand/v2"

const (
	Length   = 20
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generate returns a random lowercase alphanumeric identifier of Length characters.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}
