package zobrist

import (
	"testing"

	"github.com/matryer/is"
)

func TestSlideAndSlideBack(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(4, 6)

	positions := []int{1, 0, 3, 2}
	h := z.Hash(positions)
	// slide car 2 from 3 to 0 and back again. The final hash should be the
	// same as the beginning hash.
	h1 := z.Slide(h, 2, 3, 0)
	h2 := z.Slide(h1, 2, 0, 3)
	is.Equal(h, h2)
	is.True(h1 != h2) // extremely unlikely to collide, but this is not technically always true.
}

func TestIncrementalMatchesFullHash(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(3, 6)

	start := []int{0, 2, 4}
	h := z.Hash(start)
	h = z.Slide(h, 0, 0, 4)
	h = z.Slide(h, 1, 2, 0)
	h = z.Slide(h, 0, 4, 5)

	is.Equal(h, z.Hash([]int{5, 0, 4}))
}

func TestIdentitySeparatesTables(t *testing.T) {
	is := is.New(t)
	z1 := &Zobrist{}
	z1.Initialize(2, 6)
	z2 := &Zobrist{}
	z2.Initialize(2, 6)

	pos := []int{1, 1}
	is.True(z1.Hash(pos) != z2.Hash(pos))
	is.Equal(z1.NumCars(), 2)
	is.Equal(z1.GridSize(), 6)
}
