package puzzleio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domino14/rushhour/puzzle"
)

func TestReadFile(t *testing.T) {
	puzzles, err := ReadFile("./testdata/jams.txt")
	assert.Nil(t, err)
	assert.Len(t, puzzles, 7)

	names := make([]string, len(puzzles))
	for i, p := range puzzles {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"trivial", "blocker", "jam-1", "jam-2", "jam-3", "jam-4",
		"unsolvable"}, names)

	blocker := puzzles[1]
	assert.Equal(t, 6, blocker.GridSize())
	assert.Equal(t, []puzzle.Car{
		{X: 0, Y: 2, Orientation: puzzle.Horizontal, Size: 2},
		{X: 3, Y: 1, Orientation: puzzle.Vertical, Size: 2},
	}, blocker.Cars())

	assert.Equal(t, 11, puzzles[3].NumCars())
}

func TestReadLatin1(t *testing.T) {
	puzzles, err := ReadFile("./testdata/latin1.txt")
	assert.Nil(t, err)
	assert.Len(t, puzzles, 1)
	assert.Equal(t, "café", puzzles[0].Name())
}

func TestReadUTF8Pragma(t *testing.T) {
	in := "#character-encoding UTF-8\nnaïve\n3\n2 1 H 1\n.\n"
	puzzles, err := Read(strings.NewReader(in), "pragma")
	assert.Nil(t, err)
	assert.Len(t, puzzles, 1)
	assert.Equal(t, "naïve", puzzles[0].Name())
	assert.Equal(t, puzzle.Horizontal, puzzles[0].Orientation(0))
}

func TestReadErrors(t *testing.T) {
	type tc struct {
		in       string
		contains string
	}
	cases := []tc{
		{"p\n6 6\n", "line 2: expected single integer"},
		{"p\nsix\n", "line 2: expected integer grid size"},
		{"p\n0\n", "line 2: expected positive grid size"},
		{"p\n6\n0 2 h\n.\n", "line 3: expected four fields"},
		{"p\n6\na 2 h 2\n.\n", "line 3: expected integer x-coordinate"},
		{"p\n6\n0 b h 2\n.\n", "line 3: expected integer y-coordinate"},
		{"p\n6\n0 2 d 2\n.\n", "line 3: expected orientation"},
		{"p\n6\n0 2 h two\n.\n", "line 3: expected integer car size"},
		{"p\n6\n\n0 2 h 9\n.\n", "line 5: puzzle \"p\""},
		{"p\n6\n.\n", "line 3: puzzle \"p\""},
		{"#character-encoding ebcdic\np\n", "unhandled character encoding"},
	}
	for _, c := range cases {
		_, err := Read(strings.NewReader(c.in), "in.txt")
		assert.True(t, errors.Is(err, ErrParse), c.in)
		assert.Contains(t, err.Error(), c.contains)
	}
}

func TestReadWrapsPuzzleErrors(t *testing.T) {
	_, err := ReadFile("./testdata/overlap.txt")
	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, errors.Is(err, puzzle.ErrOverlap))
	assert.Contains(t, err.Error(), "testdata/overlap.txt line 10")
}

func TestReadPremature(t *testing.T) {
	_, err := ReadFile("./testdata/premature.txt")
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "ended prematurely")
}

func TestReadEmpty(t *testing.T) {
	puzzles, err := Read(strings.NewReader("\n\n"), "empty")
	assert.Nil(t, err)
	assert.Empty(t, puzzles)
}

func TestWriteRoundTrip(t *testing.T) {
	puzzles, err := ReadFile("./testdata/jams.txt")
	assert.Nil(t, err)

	var buf bytes.Buffer
	assert.Nil(t, Write(&buf, puzzles))
	again, err := Read(&buf, "buffer")
	assert.Nil(t, err)
	assert.Equal(t, len(puzzles), len(again))
	for i := range puzzles {
		assert.Equal(t, puzzles[i].Name(), again[i].Name())
		assert.Equal(t, puzzles[i].GridSize(), again[i].GridSize())
		assert.Equal(t, puzzles[i].Cars(), again[i].Cars())
		assert.Equal(t, puzzles[i].Fingerprint(), again[i].Fingerprint())
	}
}
