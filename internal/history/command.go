package history

import "github.com/hpungsan/objdb/internal/errors"

// Command is a named, reversible action.
type Command struct {
	name    string
	reverse func() error
}

// NewCommand binds name to a reverse operation and the arguments it will be
// called with. reverse is not run here. A nil reverse builds a command whose
// Undo fails with NO_REVERSE_OPERATION.
func NewCommand[A any](name string, args A, reverse func(A) error) *Command {
	c := &Command{name: name}
	if reverse != nil {
		c.reverse = func() error { return reverse(args) }
	}
	return c
}

// Undo runs the reverse operation with the captured arguments.
func (c *Command) Undo() error {
	if c.reverse == nil {
		return errors.NewNoReverseOperation(c.name)
	}
	return c.reverse()
}

// String returns the display name.
func (c *Command) String() string {
	return c.name
}

// UndoLast pops the newest command and undoes it, returning its name.
// The command is consumed even if its reverse operation fails.
func UndoLast(h *Bounded[*Command]) (string, error) {
	cmd, ok := h.Pop()
	if !ok {
		return "", errors.NewNothingToUndo()
	}
	return cmd.name, cmd.Undo()
}
