// Package clipboard describes the editor's last copied selection.
package clipboard

import (
	"slices"
	"strconv"
	"strings"
)

// Kind identifies what an Item holds.
type Kind uint8

const (
	// KindNotSet is the empty clipboard.
	KindNotSet Kind = iota

	// KindPosition, KindRotation and KindScale hold a vector.
	KindPosition
	KindRotation
	KindScale

	// KindIntArray holds object arguments.
	KindIntArray

	// KindFullObject holds one level object.
	KindFullObject

	// KindRail holds one rail.
	KindRail

	// KindObjectArray holds several level objects.
	KindObjectArray
)

var kindNames = [...]string{
	KindNotSet:      "NotSet",
	KindPosition:    "Position",
	KindRotation:    "Rotation",
	KindScale:       "Scale",
	KindIntArray:    "IntArray",
	KindFullObject:  "FullObject",
	KindRail:        "Rail",
	KindObjectArray: "ObjectArray",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// NoParent is the DescribePaste argument for a plain paste.
const NoParent = -1

// Object is a level object. Only its description is used here.
type Object interface {
	String() string
}

// Rail is a level rail. Only its name is used here.
type Rail interface {
	Name() string
}

// Vector is a position, rotation or scale.
type Vector struct {
	X, Y, Z float32
}

// Item is the clipboard content. The zero value is the empty clipboard.
// Each kind carries only its own payload.
type Item struct {
	kind    Kind
	vec     Vector
	ints    []int
	rail    Rail
	objects []Object
}

// NotSet returns the empty clipboard.
func NotSet() Item {
	return Item{}
}

// NewPosition holds a copied object position.
func NewPosition(x, y, z float32) Item {
	return Item{kind: KindPosition, vec: Vector{x, y, z}}
}

// NewRotation holds a copied object rotation.
func NewRotation(x, y, z float32) Item {
	return Item{kind: KindRotation, vec: Vector{x, y, z}}
}

// NewScale holds a copied object scale.
func NewScale(x, y, z float32) Item {
	return Item{kind: KindScale, vec: Vector{x, y, z}}
}

// NewIntArray holds copied object arguments. ints is copied.
func NewIntArray(ints ...int) Item {
	return Item{kind: KindIntArray, ints: slices.Clone(ints)}
}

// NewRail holds one copied rail.
func NewRail(r Rail) Item {
	return Item{kind: KindRail, rail: r}
}

// NewFullObject holds one copied level object.
func NewFullObject(o Object) Item {
	return Item{kind: KindFullObject, objects: []Object{o}}
}

// NewObjectArray holds several copied level objects. objs is copied.
func NewObjectArray(objs ...Object) Item {
	return Item{kind: KindObjectArray, objects: slices.Clone(objs)}
}

// Kind returns what the item holds.
func (it Item) Kind() Kind {
	return it.kind
}

// Vector returns the payload of a Position, Rotation or Scale item.
func (it Item) Vector() (Vector, bool) {
	switch it.kind {
	case KindPosition, KindRotation, KindScale:
		return it.vec, true
	}
	return Vector{}, false
}

// Ints returns a copy of the payload of an IntArray item.
func (it Item) Ints() ([]int, bool) {
	if it.kind != KindIntArray {
		return nil, false
	}
	return slices.Clone(it.ints), true
}

// Rail returns the payload of a Rail item.
func (it Item) Rail() (Rail, bool) {
	if it.kind != KindRail {
		return nil, false
	}
	return it.rail, true
}

// Objects returns the payload of a FullObject (one element) or ObjectArray item.
func (it Item) Objects() ([]Object, bool) {
	switch it.kind {
	case KindFullObject, KindObjectArray:
		return slices.Clone(it.objects), true
	}
	return nil, false
}

// Describe returns the one-line text shown for the clipboard in the editor.
func (it Item) Describe() string {
	switch it.kind {
	case KindPosition, KindRotation, KindScale:
		return it.kind.String() + " - X:" + formatFloat(it.vec.X) +
			" Y:" + formatFloat(it.vec.Y) +
			" Z:" + formatFloat(it.vec.Z)
	case KindIntArray:
		return "Args[]"
	case KindRail:
		name := ""
		if it.rail != nil {
			name = it.rail.Name()
		}
		return "Rail - " + name
	case KindFullObject:
		return "Object - " + it.firstObject()
	case KindObjectArray:
		return "Object[" + strconv.Itoa(len(it.objects)) + "]"
	default:
		return "Not set"
	}
}

// DescribePaste is Describe for a paste target. parent >= 0 means the paste
// goes under that object as children, which only changes the FullObject text.
func (it Item) DescribePaste(parent int) string {
	if parent >= 0 && it.kind == KindFullObject {
		return "Paste object as children - " + it.firstObject()
	}
	return it.Describe()
}

func (it Item) String() string {
	return it.Describe()
}

func (it Item) firstObject() string {
	if len(it.objects) == 0 || it.objects[0] == nil {
		return ""
	}
	return it.objects[0].String()
}

// formatFloat prints the shortest digits that round-trip the float32.
// Decimal exponents below -4 or from 7 up switch to E notation with a
// signed, at least two digit exponent (1E+10, 1.5E-05).
func formatFloat(f float32) string {
	e := strconv.FormatFloat(float64(f), 'e', -1, 32)
	mant, exp, ok := strings.Cut(e, "e")
	if !ok {
		return e // NaN, ±Inf
	}
	if x, _ := strconv.Atoi(exp); x < -4 || x >= 7 {
		return mant + "E" + exp
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
