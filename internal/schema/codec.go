package schema

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/objdb/internal/errors"
)

// Document is an encoded registry. The bytes are UTF-8; String gives the
// same content as text.
type Document []byte

func (d Document) String() string {
	return string(d)
}

// nowFunc is the clock used by timestamp refresh. Tests replace it.
var nowFunc = time.Now

const (
	rootElement = "database"
	header      = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

// Decode builds a registry from a document. The registry is returned only
// when the whole document decodes; any error yields a nil registry.
//
// Within an object, repeated text elements overwrite each other so the last
// occurrence wins. Unknown elements are ignored.
func Decode(data []byte) (*Registry, error) {
	root, err := parseTree(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, err
	}
	if root.name != rootElement {
		return nil, errors.NewMalformedDocument(
			fmt.Sprintf("root element is <%s>, want <%s>", root.name, rootElement))
	}

	ts, err := root.int64Attr("timestamp")
	if err != nil {
		return nil, err
	}

	reg := New()
	reg.Timestamp = ts

	for _, child := range root.children {
		switch child.name {
		case "categories":
			for _, c := range child.children {
				id, err := c.intAttr("id")
				if err != nil {
					return nil, err
				}
				if err := reg.AddCategory(id, c.innerText()); err != nil {
					return nil, err
				}
			}
		case "object":
			entry, err := decodeEntry(child)
			if err != nil {
				return nil, err
			}
			if _, ok := reg.entries.Get(entry.ID); ok {
				return nil, errors.NewDuplicateID("object", entry.ID)
			}
			reg.entries.Set(entry.ID, entry)
		}
	}

	reg.reindex()
	return reg, nil
}

func decodeEntry(n *node) (Entry, error) {
	id, err := n.attr("id")
	if err != nil {
		return Entry{}, err
	}
	e := Entry{ID: id}

	for _, child := range n.children {
		switch child.name {
		case "name":
			e.Name = child.innerText()
		case "type":
			e.Type = child.innerText()
		case "model":
			e.Model = child.innerText()
		case "notes":
			e.Notes = child.innerText()
		case "files":
			e.Files = child.innerText()
		case "flags":
			if e.Known, err = child.intAttr("known"); err != nil {
				return Entry{}, err
			}
			if e.Complete, err = child.intAttr("complete"); err != nil {
				return Entry{}, err
			}
		case "category":
			if e.Category, err = child.intAttr("id"); err != nil {
				return Entry{}, err
			}
		case "field":
			f, err := decodeField(child)
			if err != nil {
				return Entry{}, err
			}
			e.Fields = append(e.Fields, f)
		}
	}
	return e, nil
}

func decodeField(n *node) (Field, error) {
	var f Field
	var err error
	if f.ID, err = n.intAttr("id"); err != nil {
		return Field{}, err
	}
	for _, a := range []struct {
		name string
		dst  *string
	}{
		{"type", &f.Type},
		{"name", &f.Name},
		{"values", &f.Values},
		{"notes", &f.Notes},
	} {
		if *a.dst, err = n.attr(a.name); err != nil {
			return Field{}, err
		}
	}
	return f, nil
}

// node is one element of the parsed document.
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	text     strings.Builder
}

func (n *node) innerText() string {
	return n.text.String()
}

func (n *node) attr(name string) (string, error) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, nil
		}
	}
	return "", errors.NewMissingAttribute(n.name, name)
}

func (n *node) intAttr(name string) (int, error) {
	v, err := n.attr(name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, errors.NewMalformedDocument(
			fmt.Sprintf("<%s> attribute %q: %q is not an integer", n.name, name, v))
	}
	return i, nil
}

func (n *node) int64Attr(name string) (int64, error) {
	v, err := n.attr(name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, errors.NewMalformedDocument(
			fmt.Sprintf("<%s> attribute %q: %q is not an integer", n.name, name, v))
	}
	return i, nil
}

// parseTree reads the whole document into a node tree.
// Character data is appended to every open element, so an element's text is
// the concatenation of all descendant text. Whitespace-only runs are dropped.
func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewMalformedDocument(fmt.Sprintf("invalid XML: %v", err))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.NewMalformedDocument("document has more than one root element")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 || len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			for _, n := range stack {
				n.text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.NewMalformedDocument("document has no root element")
	}
	return root, nil
}

// ---------------------------------------------------------------------------
// Encode
// ---------------------------------------------------------------------------

// Encode serializes reg. With refreshTimestamp set, reg.Timestamp is first
// updated to the current time; nothing else about reg changes.
func Encode(reg *Registry, refreshTimestamp bool) (Document, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, reg, refreshTimestamp); err != nil {
		return nil, err
	}
	return Document(buf.Bytes()), nil
}

// EncodeTo streams the encoding of reg to w. Write failures are returned as
// INTERNAL errors wrapping the writer's error.
func EncodeTo(w io.Writer, reg *Registry, refreshTimestamp bool) error {
	if refreshTimestamp {
		reg.Timestamp = nowFunc().Unix()
	}

	if _, err := io.WriteString(w, header); err != nil {
		return errors.NewInternal(err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	ew := &elementWriter{enc: enc}

	ew.start(rootElement, attr("timestamp", strconv.FormatInt(reg.Timestamp, 10)))

	ew.start("categories")
	for pair := reg.categories.Oldest(); pair != nil; pair = pair.Next() {
		ew.text("category", pair.Value, attr("id", strconv.Itoa(pair.Key)))
	}
	ew.end("categories")

	for pair := reg.entries.Oldest(); pair != nil; pair = pair.Next() {
		e := pair.Value
		ew.start("object", attr("id", e.ID))
		ew.text("name", e.Name)
		ew.text("type", e.Type)
		ew.text("model", e.Model)
		ew.empty("flags",
			attr("known", strconv.Itoa(e.Known)),
			attr("complete", strconv.Itoa(e.Complete)))
		ew.empty("category", attr("id", strconv.Itoa(e.Category)))
		ew.text("notes", e.Notes)
		ew.text("files", e.Files)
		for _, f := range e.Fields {
			ew.empty("field",
				attr("id", strconv.Itoa(f.ID)),
				attr("type", f.Type),
				attr("name", f.Name),
				attr("values", f.Values),
				attr("notes", f.Notes))
		}
		ew.end("object")
	}

	ew.end(rootElement)

	if ew.err == nil {
		ew.err = enc.Flush()
	}
	if ew.err == nil {
		_, ew.err = io.WriteString(w, "\n")
	}
	if ew.err != nil {
		return errors.NewInternal(ew.err)
	}
	return nil
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// elementWriter keeps the first encoder error and skips everything after it.
type elementWriter struct {
	enc *xml.Encoder
	err error
}

func (w *elementWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *elementWriter) start(name string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *elementWriter) end(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *elementWriter) empty(name string, attrs ...xml.Attr) {
	w.start(name, attrs...)
	w.end(name)
}

func (w *elementWriter) text(name, value string, attrs ...xml.Attr) {
	w.start(name, attrs...)
	w.token(xml.CharData(value))
	w.end(name)
}
