package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
)

// GenerateMatchCode creates a random match code
func GenerateMatchCode() string {
	code := make([]byte, MatchCodeLength)
	for i := 0; i < MatchCodeLength; i++ {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(MatchCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = MatchCodeChars[rand.Intn(len(MatchCodeChars))]
			continue
		}
		code[i] = MatchCodeChars[n.Int64()]
	}
	return string(code)
}
