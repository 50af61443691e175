// Package edit applies reversible changes to a schema registry.
//
// Every change made through a Session pushes one history command that knows
// how to put the registry back. The registry's id-to-model index is kept by
// the registry itself, so it stays consistent through edits and undos alike.
package edit

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hpungsan/objdb/internal/clipboard"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/history"
	"github.com/hpungsan/objdb/internal/schema"
)

// Session owns a registry and its undo history.
// It is not safe for concurrent use.
type Session struct {
	reg  *schema.Registry
	hist *history.Bounded[*history.Command]
	clip clipboard.Item
}

// NewSession starts a session on reg. maxHistory <= 0 means
// history.DefaultMaxItems.
func NewSession(reg *schema.Registry, maxHistory int) *Session {
	return &Session{
		reg:  reg,
		hist: history.NewBounded[*history.Command](maxHistory),
	}
}

// Registry returns the registry being edited.
func (s *Session) Registry() *schema.Registry {
	return s.reg
}

// placedEntry is an entry together with the position it held.
type placedEntry struct {
	entry schema.Entry
	index int
}

type placedCategory struct {
	category schema.Category
	index    int
}

type modelChange struct {
	id    string
	model string
}

// SetEntry adds e, or replaces the entry with the same id in place. The
// entry is stored normalized (see schema.Entry.Normalized), so the session
// registry matches what the encoded document decodes to.
func (s *Session) SetEntry(e schema.Entry) (string, error) {
	if strings.TrimSpace(e.ID) == "" {
		return "", errors.NewInvalidRequest("object id is required")
	}
	e = e.Normalized()

	prev, existed := s.reg.Entry(e.ID)
	s.reg.SetEntry(e)

	if existed {
		return s.push(history.NewCommand(fmt.Sprintf("Edit object %q", e.ID), prev, s.restoreEntry)), nil
	}
	return s.push(history.NewCommand(fmt.Sprintf("Add object %q", e.ID), e.ID, s.dropEntry)), nil
}

// RemoveEntry deletes an entry. Undo puts it back at the same position.
func (s *Session) RemoveEntry(id string) (string, error) {
	e, index, ok := s.reg.RemoveEntry(id)
	if !ok {
		return "", errors.NewNotFound(id)
	}
	return s.push(history.NewCommand(fmt.Sprintf("Remove object %q", id), placedEntry{e, index}, s.reinsertEntry)), nil
}

// SetModel changes an entry's model. An empty model takes the entry out of
// the id-to-model index.
func (s *Session) SetModel(id, model string) (string, error) {
	e, ok := s.reg.Entry(id)
	if !ok {
		return "", errors.NewNotFound(id)
	}
	prev := modelChange{id: id, model: e.Model}
	e.Model = model
	s.reg.SetEntry(e)
	return s.push(history.NewCommand(fmt.Sprintf("Set model of %q", id), prev, s.restoreModel)), nil
}

// SetCategory adds a category or renames an existing one.
func (s *Session) SetCategory(id int, name string) (string, error) {
	prev, existed := s.reg.Category(id)
	s.reg.SetCategory(id, name)

	if existed {
		return s.push(history.NewCommand("Rename category "+strconv.Itoa(id),
			schema.Category{ID: id, Name: prev}, s.restoreCategory)), nil
	}
	return s.push(history.NewCommand("Add category "+strconv.Itoa(id), id, s.dropCategory)), nil
}

// RemoveCategory deletes a category. Entries referring to it keep the id.
func (s *Session) RemoveCategory(id int) (string, error) {
	c, index, ok := s.reg.RemoveCategory(id)
	if !ok {
		return "", errors.NewNotFound("category " + strconv.Itoa(id))
	}
	return s.push(history.NewCommand("Remove category "+strconv.Itoa(id),
		placedCategory{c, index}, s.reinsertCategory)), nil
}

// Copy puts the entries with the given ids on the clipboard, in the order
// given. Copying is not a change and records no history.
func (s *Session) Copy(ids ...string) (clipboard.Item, error) {
	if len(ids) == 0 {
		return clipboard.Item{}, errors.NewInvalidRequest("nothing to copy")
	}
	objs := make([]clipboard.Object, 0, len(ids))
	for _, id := range ids {
		e, ok := s.reg.Entry(id)
		if !ok {
			return clipboard.Item{}, errors.NewNotFound(id)
		}
		objs = append(objs, e)
	}
	if len(objs) == 1 {
		s.clip = clipboard.NewFullObject(objs[0])
	} else {
		s.clip = clipboard.NewObjectArray(objs...)
	}
	return s.clip, nil
}

// Clipboard returns the last copied selection.
func (s *Session) Clipboard() clipboard.Item {
	return s.clip
}

// Paste appends the copied entries under newIDs, one id per copied entry.
// The new ids must be distinct and unused. Each pasted entry is its own
// change, so undo removes them one at a time.
func (s *Session) Paste(newIDs ...string) ([]string, error) {
	objs, ok := s.clip.Objects()
	if !ok || len(objs) == 0 {
		return nil, errors.NewInvalidRequest("clipboard holds no objects (" + s.clip.Describe() + ")")
	}
	if len(newIDs) != len(objs) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("paste needs %d new id(s), got %d", len(objs), len(newIDs)))
	}

	entries := make([]schema.Entry, len(objs))
	seen := make(map[string]bool, len(newIDs))
	for i, obj := range objs {
		e, ok := obj.(schema.Entry)
		if !ok {
			return nil, errors.NewInvalidRequest("clipboard does not hold registry objects")
		}
		id := strings.TrimSpace(newIDs[i])
		if id == "" {
			return nil, errors.NewInvalidRequest("object id is required")
		}
		if _, exists := s.reg.Entry(id); exists || seen[id] {
			return nil, errors.NewDuplicateID("object", id)
		}
		seen[id] = true
		e.ID = id
		entries[i] = e
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := s.reg.AddEntry(e); err != nil {
			return names, err
		}
		name := "Paste " + clipboard.NewFullObject(e).DescribePaste(clipboard.NoParent)
		names = append(names, s.push(history.NewCommand(name, e.ID, s.dropEntry)))
	}
	return names, nil
}

// Undo reverses the newest change and returns its name.
func (s *Session) Undo() (string, error) {
	return history.UndoLast(s.hist)
}

// UndoAll reverses every recorded change, newest first.
func (s *Session) UndoAll() ([]string, error) {
	var names []string
	for s.hist.Len() > 0 {
		name, err := s.Undo()
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// History returns the names of the recorded changes, newest first.
func (s *Session) History() []string {
	cmds := s.hist.Items()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.String()
	}
	slices.Reverse(names)
	return names
}

// Len returns the number of changes that can be undone.
func (s *Session) Len() int {
	return s.hist.Len()
}

func (s *Session) push(cmd *history.Command) string {
	s.hist.Push(cmd)
	return cmd.String()
}

// Reverse operations

func (s *Session) restoreEntry(e schema.Entry) error {
	s.reg.SetEntry(e)
	return nil
}

func (s *Session) dropEntry(id string) error {
	if _, _, ok := s.reg.RemoveEntry(id); !ok {
		return errors.NewNotFound(id)
	}
	return nil
}

func (s *Session) reinsertEntry(p placedEntry) error {
	return s.reg.InsertEntry(p.entry, p.index)
}

func (s *Session) restoreModel(m modelChange) error {
	e, ok := s.reg.Entry(m.id)
	if !ok {
		return errors.NewNotFound(m.id)
	}
	e.Model = m.model
	s.reg.SetEntry(e)
	return nil
}

func (s *Session) restoreCategory(c schema.Category) error {
	s.reg.SetCategory(c.ID, c.Name)
	return nil
}

func (s *Session) dropCategory(id int) error {
	if _, _, ok := s.reg.RemoveCategory(id); !ok {
		return errors.NewNotFound("category " + strconv.Itoa(id))
	}
	return nil
}

func (s *Session) reinsertCategory(p placedCategory) error {
	return s.reg.InsertCategory(p.category, p.index)
}
