package cursor

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekAndAdvance(t *testing.T) {
	t.Parallel()
	c := New(strings.NewReader("ab"))

	ch, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, 'a', ch)

	assert.False(t, c.Advance())
	ch, ok = c.Peek()
	require.True(t, ok)
	assert.Equal(t, 'b', ch)

	assert.True(t, c.Advance())
	assert.True(t, c.AtEOF())
	_, ok = c.Peek()
	assert.False(t, ok)

	// Advancing past the end is a no-op.
	assert.True(t, c.Advance())
	assert.Equal(t, 2, c.Offset())
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()
	c := New(strings.NewReader(""))
	assert.True(t, c.AtEOF())
	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, c.Here())
	assert.NoError(t, c.Err())
}

func TestSaveRestore(t *testing.T) {
	t.Parallel()
	c := New(strings.NewReader("hello world"))
	cp := c.Save()
	for i := 0; i < 5; i++ {
		c.Advance()
	}
	assert.Equal(t, "hello", c.Since(cp))

	c.Restore(cp)
	assert.Equal(t, 0, c.Offset())
	assert.Equal(t, "", c.Since(cp))

	var sb strings.Builder
	for !c.AtEOF() {
		ch, _ := c.Peek()
		sb.WriteRune(ch)
		c.Advance()
	}
	assert.Equal(t, "hello world", sb.String())
}

func TestPeekAt(t *testing.T) {
	t.Parallel()
	c := New(strings.NewReader("xyz"))
	ch, ok := c.PeekAt(2)
	require.True(t, ok)
	assert.Equal(t, 'z', ch)
	_, ok = c.PeekAt(3)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Offset())
}

func TestUnicode(t *testing.T) {
	t.Parallel()
	c := New(strings.NewReader("λx"))
	ch, _ := c.Peek()
	assert.Equal(t, 'λ', ch)
	c.Advance()
	assert.Equal(t, 1, c.Offset())
	assert.Equal(t, Position{Offset: 1, Line: 1, Column: 2}, c.Here())
}

func TestPosition(t *testing.T) {
	t.Parallel()
	c := New(strings.NewReader("ab\ncd\n"))
	for i := 0; i < 4; i++ {
		c.Advance()
	}
	pos := c.Here()
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 2, pos.Column)
	assert.Equal(t, "2:2", pos.String())
	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, c.Position(0))
}

func TestPositionMatchesLineScan(t *testing.T) {
	t.Parallel()
	src := "module M\n\nfn f\n  λ x\r\n\tb\n"
	c := New(strings.NewReader(src))

	// Read everything, rewind halfway and read again so line starts are
	// not recorded twice.
	for !c.AtEOF() {
		c.Advance()
	}
	c.Restore(Checkpoint{off: 7})
	for !c.AtEOF() {
		c.Advance()
	}

	runes := []rune(src)
	line, col := 1, 1
	for off := 0; off <= len(runes); off++ {
		assert.Equal(t, Position{Offset: off, Line: line, Column: col}, c.Position(off), "offset %d", off)
		if off < len(runes) && runes[off] == '\n' {
			line, col = line+1, 1
		} else {
			col++
		}
	}
	assert.Equal(t, len(runes), c.Position(len(runes)+10).Offset)
}

func TestReadError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	c := New(io.MultiReader(strings.NewReader("ok"), iotest.ErrReader(boom)))
	for !c.AtEOF() {
		c.Advance()
	}
	assert.ErrorIs(t, c.Err(), boom)
	assert.Equal(t, 2, c.Offset())
}
