// Package history provides the editor's undo machinery.
//
// # Bounded
//
// Bounded is a capacity-limited stack. Pushing past capacity silently drops
// the oldest items, so the history always holds the newest Max() entries:
//
//	h := history.NewBounded[*history.Command](50)
//	h.Push(cmd)
//	last, ok := h.Pop()
//
// # Commands
//
// A Command pairs a display name with a reverse operation and the arguments
// it needs, captured when the action is applied:
//
//	cmd := history.NewCommand("Move object", prev, func(p Position) error {
//		return obj.MoveTo(p)
//	})
//	h.Push(cmd)
//
//	// later
//	name, err := history.UndoLast(h)
//
// Commands are undo-only; there is no redo.
package history
