package clipboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type rail string

func (r rail) Name() string { return string(r) }

type object string

func (o object) String() string { return string(o) }

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"not set", NotSet(), "Not set"},
		{"zero value", Item{}, "Not set"},
		{"position", NewPosition(1, 2, 3), "Position - X:1 Y:2 Z:3"},
		{"rotation", NewRotation(0, 90, -45.5), "Rotation - X:0 Y:90 Z:-45.5"},
		{"scale", NewScale(1.5, 0.25, 1), "Scale - X:1.5 Y:0.25 Z:1"},
		{"float32 shortest", NewPosition(0.1, -0.25, 1e6), "Position - X:0.1 Y:-0.25 Z:1000000"},
		{"exponent notation", NewPosition(1e10, 1e-5, 1.5e7), "Position - X:1E+10 Y:1E-05 Z:1.5E+07"},
		{"fixed notation edges", NewScale(0.0001, 9999999, -123456), "Scale - X:0.0001 Y:9999999 Z:-123456"},
		{"int array", NewIntArray(1, 2, 3), "Args[]"},
		{"rail", NewRail(rail("MyRail")), "Rail - MyRail"},
		{"nil rail", NewRail(nil), "Rail - "},
		{"full object", NewFullObject(object("Kuribo [12]")), "Object - Kuribo [12]"},
		{"object array", NewObjectArray(object("a"), object("b"), object("c")), "Object[3]"},
		{"empty object array", NewObjectArray(), "Object[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Describe())
			assert.Equal(t, tt.want, tt.item.String())
			assert.Equal(t, tt.want, fmt.Sprint(tt.item))
		})
	}
}

func TestDescribePaste(t *testing.T) {
	obj := NewFullObject(object("Kuribo [12]"))

	assert.Equal(t, "Paste object as children - Kuribo [12]", obj.DescribePaste(0))
	assert.Equal(t, "Paste object as children - Kuribo [12]", obj.DescribePaste(7))
	assert.Equal(t, "Object - Kuribo [12]", obj.DescribePaste(NoParent))

	others := []Item{
		NotSet(),
		NewPosition(1, 2, 3),
		NewIntArray(4),
		NewRail(rail("r")),
		NewObjectArray(object("a"), object("b")),
	}
	for _, it := range others {
		assert.Equal(t, it.Describe(), it.DescribePaste(3), "kind %s", it.Kind())
	}
}

func TestAccessors(t *testing.T) {
	pos := NewPosition(1, 2, 3)
	v, ok := pos.Vector()
	assert.True(t, ok)
	assert.Equal(t, Vector{1, 2, 3}, v)
	_, ok = pos.Ints()
	assert.False(t, ok)
	_, ok = pos.Objects()
	assert.False(t, ok)
	_, ok = pos.Rail()
	assert.False(t, ok)

	args := []int{5, 6}
	ints := NewIntArray(args...)
	args[0] = 99
	got, ok := ints.Ints()
	assert.True(t, ok)
	assert.Equal(t, []int{5, 6}, got)
	_, ok = ints.Vector()
	assert.False(t, ok)

	r, ok := NewRail(rail("Path01")).Rail()
	assert.True(t, ok)
	assert.Equal(t, "Path01", r.Name())

	objs, ok := NewFullObject(object("x")).Objects()
	assert.True(t, ok)
	assert.Len(t, objs, 1)

	_, ok = NotSet().Vector()
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NotSet", KindNotSet.String())
	assert.Equal(t, "ObjectArray", KindObjectArray.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.Equal(t, KindRail, NewRail(rail("r")).Kind())
}
