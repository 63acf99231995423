package puzzle

import (
	"testing"

	"github.com/matryer/is"
)

func TestNodeExpandAndPath(t *testing.T) {
	is := is.New(t)
	p := blockerPuzzle(t)
	root := p.InitialNode()

	children := root.Expand()
	is.Equal(len(children), 5)
	for _, c := range children {
		is.Equal(c.Depth(), 1)
		is.True(c.Parent() == root)
	}

	grandchildren := children[1].Expand()
	is.True(len(grandchildren) > 0)
	gc := grandchildren[0]
	is.Equal(gc.Depth(), 2)

	path := gc.Path()
	is.Equal(len(path), 3)
	is.True(path[0].Equal(root.State()))
	is.True(path[1].Equal(children[1].State()))
	is.True(path[2].Equal(gc.State()))

	is.Equal(len(root.Path()), 1)
}
