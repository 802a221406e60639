package cursor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Cursor is a character-level reader with unbounded backtracking.
//
// Every rune read from the underlying stream is kept in buf. The runes in
// buf past the current offset are the ones already read but not yet
// consumed; they are replayed before reading from the stream resumes. A
// checkpoint is just an offset, so restoring one and reading on is
// indistinguishable from never having advanced past it.
type Cursor struct {
	r   *bufio.Reader
	buf []rune
	off int // offset of the current rune in buf
	eof bool
	err error

	lines []int // buf offsets at which a line starts, ascending
}

// Checkpoint is an opaque cursor state produced by Save.
type Checkpoint struct {
	off int
}

// Offset returns the rune offset the checkpoint refers to.
func (cp Checkpoint) Offset() int { return cp.off }

// Position is a human-facing location. Line and Column are 1-based; Column
// counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// New returns a cursor positioned at the first rune of r.
func New(r io.Reader) *Cursor {
	c := &Cursor{r: bufio.NewReader(r), lines: []int{0}}
	c.fill()
	return c
}

// fill makes sure buf holds the rune at off, reading it if necessary.
func (c *Cursor) fill() bool {
	for c.off >= len(c.buf) {
		if c.eof {
			return false
		}
		ch, _, err := c.r.ReadRune()
		if err != nil {
			c.eof = true
			if !errors.Is(err, io.EOF) {
				c.err = err
			}
			return false
		}
		c.buf = append(c.buf, ch)
		if ch == '\n' {
			c.lines = append(c.lines, len(c.buf))
		}
	}
	return true
}

// Peek returns the current rune without consuming it. ok is false at the end
// of input.
func (c *Cursor) Peek() (ch rune, ok bool) {
	if !c.fill() {
		return 0, false
	}
	return c.buf[c.off], true
}

// PeekAt returns the rune n positions past the current one.
func (c *Cursor) PeekAt(n int) (rune, bool) {
	save := c.off
	c.off += n
	ok := c.fill()
	var ch rune
	if ok {
		ch = c.buf[c.off]
	}
	c.off = save
	return ch, ok
}

// Advance consumes the current rune and reports whether the input is now
// exhausted.
func (c *Cursor) Advance() bool {
	if c.fill() {
		c.off++
	}
	return !c.fill()
}

// AtEOF reports whether every rune has been consumed.
func (c *Cursor) AtEOF() bool {
	return !c.fill()
}

// Save returns a checkpoint for the current state.
func (c *Cursor) Save() Checkpoint {
	return Checkpoint{off: c.off}
}

// Restore rewinds (or fast-forwards) the cursor to cp. Runes between cp and
// the furthest point read become pending again.
func (c *Cursor) Restore(cp Checkpoint) {
	c.off = cp.off
}

// Offset returns the rune offset of the current position.
func (c *Cursor) Offset() int { return c.off }

// Since returns the text consumed after cp.
func (c *Cursor) Since(cp Checkpoint) string {
	if cp.off >= c.off {
		return ""
	}
	return string(c.buf[cp.off:c.off])
}

// Position converts a rune offset into a line and column. Offsets beyond
// what has been read are clamped.
func (c *Cursor) Position(off int) Position {
	if off > len(c.buf) {
		off = len(c.buf)
	}
	if off < 0 {
		off = 0
	}
	line := sort.Search(len(c.lines), func(i int) bool { return c.lines[i] > off }) - 1
	return Position{Offset: off, Line: line + 1, Column: off - c.lines[line] + 1}
}

// Here returns the position of the current rune.
func (c *Cursor) Here() Position {
	return c.Position(c.off)
}

// Err returns the first non-EOF error returned by the underlying reader.
func (c *Cursor) Err() error {
	return c.err
}
