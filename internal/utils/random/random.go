package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Picker draws a uniform index in [0, n).
type Picker interface {
	Intn(n int) int
}

// CryptoPicker draws indexes from crypto/rand. Each call is independent, so
// concurrent selections never share state.
type CryptoPicker struct{}

// Intn returns a uniform value in [0, n). It panics if n <= 0 or the system
// random source fails, the same contract as math/rand.
func (CryptoPicker) Intn(n int) int {
	v, err := Int(n)
	if err != nil {
		panic(err)
	}
	return v
}

// Int returns a cryptographically secure uniform value in [0, n).
func Int(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}
