package zobrist

import (
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// Zobrist generates a zobrist hash for a Rush Hour configuration. Every
// (car, variable position) pair gets its own random key; a configuration
// hashes to the XOR of the keys of its cars, plus an identity key that
// separates otherwise identical configurations belonging to different
// puzzles.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	identity uint64
	posTable [][]uint64

	numCars  int
	gridSize int
}

// Initialize allocates the random tables. A car's variable position ranges
// over [0, gridSize]; the topmost slot is only ever used by a goal car that
// has driven off the board.
func (z *Zobrist) Initialize(numCars, gridSize int) {
	z.numCars = numCars
	z.gridSize = gridSize
	z.posTable = make([][]uint64, numCars)
	for i := 0; i < numCars; i++ {
		z.posTable[i] = make([]uint64, gridSize+1)
		for j := 0; j <= gridSize; j++ {
			z.posTable[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	z.identity = frand.Uint64n(bignum) + 1
}

// Hash computes the full hash of a position vector.
func (z *Zobrist) Hash(positions []int) uint64 {
	key := z.identity
	for car, pos := range positions {
		key ^= z.posTable[car][pos]
	}
	return key
}

// Slide returns the hash obtained from key after car moved from one
// variable position to another. Sliding back restores the original key.
func (z *Zobrist) Slide(key uint64, car, from, to int) uint64 {
	return key ^ z.posTable[car][from] ^ z.posTable[car][to]
}

func (z *Zobrist) NumCars() int {
	return z.numCars
}

func (z *Zobrist) GridSize() int {
	return z.gridSize
}
