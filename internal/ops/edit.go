package ops

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/edit"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/history"
	"github.com/hpungsan/objdb/internal/schema"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// Change operations accepted by Edit.
const (
	ChangeSetObject      = "set_object"
	ChangeRemoveObject   = "remove_object"
	ChangeSetModel       = "set_model"
	ChangeSetCategory    = "set_category"
	ChangeRemoveCategory = "remove_category"
	ChangeCopyObject     = "copy_object"
	ChangePasteObject    = "paste_object"
	ChangeUndo           = "undo"
	ChangeUndoAll        = "undo_all"
)

// Change is one edit step.
type Change struct {
	Op string `json:"op" yaml:"op"`

	// Object is the full entry for set_object
	Object *schema.Entry `json:"object,omitempty" yaml:"object,omitempty"`

	// ObjectID addresses remove_object and set_model
	ObjectID string `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`

	// ObjectIDs selects several entries for copy_object
	ObjectIDs []string `json:"object_ids,omitempty" yaml:"object_ids,omitempty"`

	// NewIDs names the pasted entries, one per copied entry
	NewIDs []string `json:"new_ids,omitempty" yaml:"new_ids,omitempty"`

	// CategoryID addresses set_category and remove_category
	CategoryID   *int   `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty" yaml:"category_name,omitempty"`
}

// EditInput contains parameters for the Edit operation.
type EditInput struct {
	ID      string
	Name    string
	Changes []Change // required
	SaveAs  *string  // name of the new snapshot; unnamed if nil
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	Source    string               `json:"source" yaml:"source"`
	Applied   []string             `json:"applied" yaml:"applied"` // newest first
	Clipboard string               `json:"clipboard" yaml:"clipboard"`
	Unchanged bool                 `json:"unchanged" yaml:"unchanged"` // registry ends equal to the source
	Snapshot  snapshot.Summary     `json:"snapshot" yaml:"snapshot"`
	Lint      *snapshot.LintResult `json:"lint" yaml:"lint"`
}

// Edit applies changes to a copy of a snapshot's registry and stores the
// result as a new snapshot with a refreshed timestamp. Any failing change
// aborts the edit and nothing is stored.
func Edit(ctx context.Context, database *sql.DB, cfg *config.Config, input EditInput) (*EditOutput, error) {
	if len(input.Changes) == 0 {
		return nil, errors.NewInvalidRequest("changes must not be empty")
	}

	src, reg, err := openRegistry(ctx, database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	maxHistory := history.DefaultMaxItems
	if cfg != nil && cfg.HistoryMaxItems > 0 {
		maxHistory = cfg.HistoryMaxItems
	}
	original := reg.Clone()
	session := edit.NewSession(reg, maxHistory)

	for i, c := range input.Changes {
		if err := checkCancelled(ctx, "edit"); err != nil {
			return nil, err
		}
		if err := applyChange(session, c); err != nil {
			return nil, fmt.Errorf("changes[%d]: %w", i, err)
		}
	}

	unchanged := session.Registry().Equal(original)
	doc, err := schema.Encode(session.Registry(), true)
	if err != nil {
		return nil, err
	}

	s := snapshot.New(input.SaveAs, doc, session.Registry())
	if s.NameNorm != nil {
		exists, err := db.CheckNameExists(ctx, database, *s.NameNorm)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.NewNameAlreadyExists(*s.NameRaw)
		}
	}
	s.ParentID = &src.ID
	s.ID = newID()
	s.CreatedAt = time.Now().Unix()
	if err := db.Insert(ctx, database, s); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists(*s.NameRaw)
		}
		return nil, err
	}

	slog.DebugContext(ctx, "edited snapshot",
		"source", src.ID, "id", s.ID, "changes", len(input.Changes))

	applied := session.History()
	if applied == nil {
		applied = []string{}
	}

	return &EditOutput{
		Source:    src.ID,
		Applied:   applied,
		Clipboard: session.Clipboard().Describe(),
		Unchanged: unchanged,
		Snapshot:  s.ToSummary(),
		Lint:      snapshot.Lint(session.Registry()),
	}, nil
}

func applyChange(s *edit.Session, c Change) error {
	var err error
	switch c.Op {
	case ChangeSetObject:
		if c.Object == nil {
			return errors.NewInvalidRequest("set_object requires object")
		}
		_, err = s.SetEntry(*c.Object)
	case ChangeRemoveObject:
		if c.ObjectID == "" {
			return errors.NewInvalidRequest("remove_object requires object_id")
		}
		_, err = s.RemoveEntry(c.ObjectID)
	case ChangeSetModel:
		if c.ObjectID == "" {
			return errors.NewInvalidRequest("set_model requires object_id")
		}
		_, err = s.SetModel(c.ObjectID, c.Model)
	case ChangeSetCategory:
		if c.CategoryID == nil {
			return errors.NewInvalidRequest("set_category requires category_id")
		}
		_, err = s.SetCategory(*c.CategoryID, c.CategoryName)
	case ChangeRemoveCategory:
		if c.CategoryID == nil {
			return errors.NewInvalidRequest("remove_category requires category_id")
		}
		_, err = s.RemoveCategory(*c.CategoryID)
	case ChangeCopyObject:
		ids := c.ObjectIDs
		if c.ObjectID != "" {
			ids = append([]string{c.ObjectID}, ids...)
		}
		if len(ids) == 0 {
			return errors.NewInvalidRequest("copy_object requires object_id or object_ids")
		}
		_, err = s.Copy(ids...)
	case ChangePasteObject:
		_, err = s.Paste(c.NewIDs...)
	case ChangeUndo:
		_, err = s.Undo()
	case ChangeUndoAll:
		_, err = s.UndoAll()
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("unknown change op %q", c.Op))
	}
	return err
}
