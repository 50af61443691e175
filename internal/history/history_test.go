package history

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/objdb/internal/errors"
)

func TestNewBounded_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultMaxItems, NewBounded[int](0).Max())
	assert.Equal(t, DefaultMaxItems, NewBounded[int](-3).Max())
	assert.Equal(t, 7, NewBounded[int](7).Max())
}

func TestBounded_EvictsOldest(t *testing.T) {
	h := NewBounded[int](50)
	for i := 0; i < 60; i++ {
		h.Push(i)
	}

	require.Equal(t, 50, h.Len())
	items := h.Items()
	assert.Equal(t, 10, items[0])
	assert.Equal(t, 59, items[49])
	for i, v := range items {
		assert.Equal(t, i+10, v)
	}
}

func TestBounded_PushPop(t *testing.T) {
	h := NewBounded[string](0)
	h.Push("A")
	h.Push("B")

	v, ok := h.Pop()
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	v, ok = h.Pop()
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	v, ok = h.Pop()
	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, 0, h.Len())
}

func TestBounded_RemoveAt(t *testing.T) {
	h := NewBounded[string](0)
	for _, s := range []string{"a", "b", "c"} {
		h.Push(s)
	}

	v, err := h.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.Equal(t, []string{"a", "c"}, h.Items())

	for _, i := range []int{-1, 2, 10} {
		_, err := h.RemoveAt(i)
		assert.True(t, errors.Is(err, errors.ErrOutOfRange), "RemoveAt(%d): %v", i, err)
	}
	assert.Equal(t, 2, h.Len())
}

func TestBounded_ItemsIsCopy(t *testing.T) {
	h := NewBounded[int](0)
	h.Push(1)
	items := h.Items()
	items[0] = 99

	assert.Equal(t, []int{1}, h.Items())
}

type position struct{ X, Y, Z float32 }

func TestCommand_UndoPassesCapturedArgs(t *testing.T) {
	var got position
	calls := 0
	cmd := NewCommand("Move object", position{1, 2, 3}, func(p position) error {
		calls++
		got = p
		return nil
	})

	assert.Equal(t, 0, calls, "reverse must not run at construction")
	require.NoError(t, cmd.Undo())
	assert.Equal(t, 1, calls)
	assert.Equal(t, position{1, 2, 3}, got)
}

func TestCommand_String(t *testing.T) {
	cmd := NewCommand("Rename \"Kuribo\"", 0, func(int) error { return nil })
	assert.Equal(t, "Rename \"Kuribo\"", cmd.String())
	assert.Equal(t, cmd.String(), fmt.Sprint(cmd))
}

func TestCommand_NoReverse(t *testing.T) {
	cmd := NewCommand[int]("Broken", 1, nil)

	err := cmd.Undo()
	assert.True(t, errors.Is(err, errors.ErrNoReverseOperation))
}

func TestCommand_ReverseErrorPropagates(t *testing.T) {
	boom := stderrors.New("object was deleted")
	cmd := NewCommand("Move object", struct{}{}, func(struct{}) error { return boom })

	assert.ErrorIs(t, cmd.Undo(), boom)
}

func TestUndoLast(t *testing.T) {
	h := NewBounded[*Command](0)
	var log []string
	for _, name := range []string{"first", "second"} {
		h.Push(NewCommand(name, name, func(n string) error {
			log = append(log, n)
			return nil
		}))
	}

	name, err := UndoLast(h)
	require.NoError(t, err)
	assert.Equal(t, "second", name)

	name, err = UndoLast(h)
	require.NoError(t, err)
	assert.Equal(t, "first", name)
	assert.Equal(t, []string{"second", "first"}, log)

	_, err = UndoLast(h)
	assert.True(t, errors.Is(err, errors.ErrNothingToUndo))
}
