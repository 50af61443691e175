package schema

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hpungsan/objdb/internal/errors"
)

// DefaultFieldType is the type given to fields that don't name one.
const DefaultFieldType = "int"

// Category is a named grouping referenced by entries via integer id.
type Category struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Field is one named, typed metadata slot within an entry.
type Field struct {
	ID     int    `json:"id" yaml:"id"`
	Type   string `json:"type" yaml:"type"`
	Name   string `json:"name" yaml:"name"`
	Values string `json:"values" yaml:"values"`
	Notes  string `json:"notes" yaml:"notes"`
}

// Entry is one object type's metadata.
type Entry struct {
	// ID is the registry key (the object's class name in level files)
	ID string `json:"id" yaml:"id"`

	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Model string `json:"model" yaml:"model"`
	Notes string `json:"notes" yaml:"notes"`
	Files string `json:"files" yaml:"files"`

	// Known and Complete are integer flags as stored in the document
	Known    int `json:"known" yaml:"known"`
	Complete int `json:"complete" yaml:"complete"`

	// Category is a soft reference to a Category id; it need not exist
	Category int `json:"category" yaml:"category"`

	// Fields keeps document order
	Fields []Field `json:"fields" yaml:"fields"`
}

// HasModel reports whether the entry contributes to the id-to-model index.
func (e Entry) HasModel() bool {
	return strings.TrimSpace(e.Model) != ""
}

// String returns the entry id.
func (e Entry) String() string {
	return e.ID
}

// Normalized returns a copy of e in the form a decode of its encoding
// yields: fields without a type get DefaultFieldType, and text values made
// only of whitespace become empty, since decode drops whitespace-only text.
func (e Entry) Normalized() Entry {
	e = e.clone()
	for _, s := range []*string{&e.Name, &e.Type, &e.Model, &e.Notes, &e.Files} {
		if strings.TrimSpace(*s) == "" {
			*s = ""
		}
	}
	for i := range e.Fields {
		if e.Fields[i].Type == "" {
			e.Fields[i].Type = DefaultFieldType
		}
	}
	return e
}

func (e Entry) clone() Entry {
	e.Fields = slices.Clone(e.Fields)
	return e
}

func (e Entry) equal(o Entry) bool {
	return e.ID == o.ID &&
		e.Name == o.Name &&
		e.Type == o.Type &&
		e.Model == o.Model &&
		e.Notes == o.Notes &&
		e.Files == o.Files &&
		e.Known == o.Known &&
		e.Complete == o.Complete &&
		e.Category == o.Category &&
		slices.Equal(e.Fields, o.Fields)
}

// Registry is the in-memory catalogue of categories and object-type entries.
//
// Categories and entries iterate in insertion order. The id-to-model index is
// derived from the entries and rebuilt after every entry mutation. Entries
// are copied in and out so the index can't drift from the stored data.
//
// A Registry has a single owner; it is not safe for concurrent use.
type Registry struct {
	// Timestamp is the document timestamp in Unix seconds.
	Timestamp int64

	categories *orderedmap.OrderedMap[int, string]
	entries    *orderedmap.OrderedMap[string, Entry]
	idToModel  map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		categories: orderedmap.New[int, string](),
		entries:    orderedmap.New[string, Entry](),
		idToModel:  map[string]string{},
	}
}

// Categories

// AddCategory appends a category. A repeated id is a DUPLICATE_ID error.
func (r *Registry) AddCategory(id int, name string) error {
	if _, ok := r.categories.Get(id); ok {
		return errors.NewDuplicateID("category", strconv.Itoa(id))
	}
	r.categories.Set(id, name)
	return nil
}

// SetCategory adds a category or renames an existing one in place.
// Returns true if the category was added.
func (r *Registry) SetCategory(id int, name string) bool {
	_, present := r.categories.Set(id, name)
	return !present
}

// InsertCategory places a new category at index (0..CategoryCount()).
func (r *Registry) InsertCategory(c Category, index int) error {
	n := r.categories.Len()
	if index < 0 || index > n {
		return errors.NewOutOfRange(index, n+1)
	}
	if _, ok := r.categories.Get(c.ID); ok {
		return errors.NewDuplicateID("category", strconv.Itoa(c.ID))
	}
	mark, hasMark := keyAt(r.categories, index)
	r.categories.Set(c.ID, c.Name)
	if hasMark {
		if err := r.categories.MoveBefore(c.ID, mark); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// Category returns the name of the category with the given id.
func (r *Registry) Category(id int) (string, bool) {
	return r.categories.Get(id)
}

// RemoveCategory deletes a category and reports the position it occupied.
// Entries referring to it are left untouched.
func (r *Registry) RemoveCategory(id int) (Category, int, bool) {
	index := indexOf(r.categories, id)
	if index < 0 {
		return Category{}, -1, false
	}
	name, _ := r.categories.Delete(id)
	return Category{ID: id, Name: name}, index, true
}

// Categories returns all categories in order.
func (r *Registry) Categories() []Category {
	out := make([]Category, 0, r.categories.Len())
	for pair := r.categories.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Category{ID: pair.Key, Name: pair.Value})
	}
	return out
}

// CategoryCount returns the number of categories.
func (r *Registry) CategoryCount() int {
	return r.categories.Len()
}

// Entries

// AddEntry appends an entry. A repeated id is a DUPLICATE_ID error.
func (r *Registry) AddEntry(e Entry) error {
	if _, ok := r.entries.Get(e.ID); ok {
		return errors.NewDuplicateID("object", e.ID)
	}
	r.entries.Set(e.ID, e.clone())
	r.reindex()
	return nil
}

// SetEntry adds an entry or replaces an existing one in place.
// Returns true if the entry was added.
func (r *Registry) SetEntry(e Entry) bool {
	_, present := r.entries.Set(e.ID, e.clone())
	r.reindex()
	return !present
}

// InsertEntry places a new entry at index (0..EntryCount()).
func (r *Registry) InsertEntry(e Entry, index int) error {
	n := r.entries.Len()
	if index < 0 || index > n {
		return errors.NewOutOfRange(index, n+1)
	}
	if _, ok := r.entries.Get(e.ID); ok {
		return errors.NewDuplicateID("object", e.ID)
	}
	mark, hasMark := keyAt(r.entries, index)
	r.entries.Set(e.ID, e.clone())
	if hasMark {
		if err := r.entries.MoveBefore(e.ID, mark); err != nil {
			return errors.NewInternal(err)
		}
	}
	r.reindex()
	return nil
}

// Entry returns a copy of the entry with the given id.
func (r *Registry) Entry(id string) (Entry, bool) {
	e, ok := r.entries.Get(id)
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// RemoveEntry deletes an entry and reports the position it occupied.
func (r *Registry) RemoveEntry(id string) (Entry, int, bool) {
	index := indexOf(r.entries, id)
	if index < 0 {
		return Entry{}, -1, false
	}
	e, _ := r.entries.Delete(id)
	r.reindex()
	return e, index, true
}

// Entries returns copies of all entries in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.clone())
	}
	return out
}

// EntryIDs returns all entry ids in order.
func (r *Registry) EntryIDs() []string {
	out := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// EntryCount returns the number of entries.
func (r *Registry) EntryCount() int {
	return r.entries.Len()
}

// Derived index

// ModelFor returns the model of the entry with the given id, if it has one.
func (r *Registry) ModelFor(id string) (string, bool) {
	m, ok := r.idToModel[id]
	return m, ok
}

// IDToModel returns a copy of the id-to-model index.
func (r *Registry) IDToModel() map[string]string {
	return maps.Clone(r.idToModel)
}

// reindex rebuilds idToModel from scratch.
func (r *Registry) reindex() {
	idx := make(map[string]string, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.HasModel() {
			idx[pair.Key] = pair.Value.Model
		}
	}
	r.idToModel = idx
}

// Clone returns a deep copy.
func (r *Registry) Clone() *Registry {
	c := New()
	c.Timestamp = r.Timestamp
	for pair := r.categories.Oldest(); pair != nil; pair = pair.Next() {
		c.categories.Set(pair.Key, pair.Value)
	}
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		c.entries.Set(pair.Key, pair.Value.clone())
	}
	c.reindex()
	return c
}

// Equal reports whether both registries hold the same timestamp, categories
// and entries in the same order.
func (r *Registry) Equal(o *Registry) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Timestamp != o.Timestamp ||
		r.categories.Len() != o.categories.Len() ||
		r.entries.Len() != o.entries.Len() {
		return false
	}
	a, b := r.categories.Oldest(), o.categories.Oldest()
	for ; a != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || a.Value != b.Value {
			return false
		}
	}
	x, y := r.entries.Oldest(), o.entries.Oldest()
	for ; x != nil; x, y = x.Next(), y.Next() {
		if x.Key != y.Key || !x.Value.equal(y.Value) {
			return false
		}
	}
	return true
}

// keyAt returns the key at position index, if there is one.
func keyAt[K comparable, V any](om *orderedmap.OrderedMap[K, V], index int) (K, bool) {
	i := 0
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		if i == index {
			return pair.Key, true
		}
		i++
	}
	var zero K
	return zero, false
}

// indexOf returns the position of key, or -1.
func indexOf[K comparable, V any](om *orderedmap.OrderedMap[K, V], key K) int {
	i := 0
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == key {
			return i
		}
		i++
	}
	return -1
}
