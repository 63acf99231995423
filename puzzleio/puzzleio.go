// Package puzzleio reads and writes puzzle description files.
//
// A file holds any number of puzzles. Each one is a name line, a line with
// the grid size, one line per car of the form "x y h|v size" (the first car
// is the goal car), and a line holding a single ".". Blank lines are
// ignored. Files are UTF-8 unless the first line is a pragma such as
// "#character-encoding iso-8859-1".
package puzzleio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/domino14/rushhour/puzzle"
)

var ErrParse = errors.New("puzzle file parse error")

const EncodingPragma = "#character-encoding"

var encodingRegexp = regexp.MustCompile(`^` + EncodingPragma + `\s+(?P<encoding>[[:graph:]]+)\s*$`)

var charmaps = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
}

type readMode int

const (
	readingName readMode = iota
	readingGridSize
	readingCars
)

type parser struct {
	source string
	line   int

	mode     readMode
	name     string
	gridSize int
	cars     []puzzle.Car

	puzzles []*puzzle.Puzzle
}

func (p *parser) errorf(format string, args ...any) error {
	args = append([]any{ErrParse, p.source, p.line}, args...)
	return fmt.Errorf("%w: %s line %d: "+format, args...)
}

func (p *parser) parseLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	words := strings.Fields(line)

	switch {
	case p.mode == readingName:
		p.name = line
		p.cars = nil
		p.mode = readingGridSize

	case p.mode == readingGridSize:
		if len(words) != 1 {
			return p.errorf("expected single integer for grid size")
		}
		n, err := strconv.Atoi(words[0])
		if err != nil {
			return p.errorf("expected integer grid size, got %q", words[0])
		}
		if n <= 0 {
			return p.errorf("expected positive grid size, got %d", n)
		}
		p.gridSize = n
		p.mode = readingCars

	case line == ".":
		pz, err := puzzle.New(p.name, p.gridSize, p.cars)
		if err != nil {
			return p.errorf("puzzle %q: %w", p.name, err)
		}
		p.puzzles = append(p.puzzles, pz)
		p.mode = readingName

	default:
		car, err := p.parseCar(words)
		if err != nil {
			return err
		}
		p.cars = append(p.cars, car)
	}
	return nil
}

func (p *parser) parseCar(words []string) (puzzle.Car, error) {
	var c puzzle.Car
	if len(words) != 4 {
		return c, p.errorf("expected four fields, got %d", len(words))
	}
	var err error
	if c.X, err = strconv.Atoi(words[0]); err != nil {
		return c, p.errorf("expected integer x-coordinate, got %q", words[0])
	}
	if c.Y, err = strconv.Atoi(words[1]); err != nil {
		return c, p.errorf("expected integer y-coordinate, got %q", words[1])
	}
	switch strings.ToLower(words[2]) {
	case "h":
		c.Orientation = puzzle.Horizontal
	case "v":
		c.Orientation = puzzle.Vertical
	default:
		return c, p.errorf("expected orientation to be 'v' or 'h', got %q", words[2])
	}
	if c.Size, err = strconv.Atoi(words[3]); err != nil {
		return c, p.errorf("expected integer car size, got %q", words[3])
	}
	return c, nil
}

// decoderFor consumes the encoding pragma, if there is one, and returns the
// decoder it names, or nil for UTF-8.
func decoderFor(br *bufio.Reader) (*encoding.Decoder, bool, error) {
	head, _ := br.Peek(len(EncodingPragma))
	if string(head) != EncodingPragma {
		return nil, false, nil
	}
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	m := encodingRegexp.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return nil, true, fmt.Errorf("%w: malformed encoding pragma %q", ErrParse, line)
	}
	enc := strings.ToLower(m[1])
	if enc == "utf-8" || enc == "utf8" {
		return nil, true, nil
	}
	cm, ok := charmaps[enc]
	if !ok {
		return nil, true, fmt.Errorf("%w: unhandled character encoding %s", ErrParse, enc)
	}
	return cm.NewDecoder(), true, nil
}

// Read parses every puzzle in r. source names r in error messages.
func Read(r io.Reader, source string) ([]*puzzle.Puzzle, error) {
	br := bufio.NewReader(r)
	dec, hadPragma, err := decoderFor(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	var src io.Reader = br
	if dec != nil {
		src = transform.NewReader(br, dec)
	}

	p := &parser{source: source}
	if hadPragma {
		p.line = 1
	}
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	if p.mode != readingName {
		return nil, fmt.Errorf("%w: %s: puzzle description ended prematurely", ErrParse, source)
	}
	log.Debug().Str("source", source).Int("puzzles", len(p.puzzles)).Msg("read-puzzles")
	return p.puzzles, nil
}

// ReadFile parses every puzzle in the named file.
func ReadFile(filename string) ([]*puzzle.Puzzle, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, filename)
}

// Write emits puzzles in the format Read accepts, always as UTF-8.
func Write(w io.Writer, puzzles []*puzzle.Puzzle) error {
	var sb strings.Builder
	for i, p := range puzzles {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n%d\n", p.Name(), p.GridSize())
		for _, c := range p.Cars() {
			fmt.Fprintf(&sb, "%d %d %s %d\n", c.X, c.Y, c.Orientation, c.Size)
		}
		sb.WriteString(".\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
