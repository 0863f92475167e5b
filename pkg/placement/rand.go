package placement

import (
	"math/rand/v2"

	"github.com/matzehuels/fleetmap/pkg/geom"
)

// Rand is the random source used for shuffling. *rand.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform int in [0, n). n > 0.
	IntN(n int) int
}

// NewRand returns a PCG generator seeded from seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Shuffle permutes cells in place with the Fisher–Yates algorithm, drawing
// from r exactly len(cells)-1 times.
func Shuffle(r Rand, cells []geom.Cell) {
	for i := len(cells) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		cells[i], cells[j] = cells[j], cells[i]
	}
}
