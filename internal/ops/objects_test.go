package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/objdb/internal/errors"
)

func objectIDs(items []ObjectSummary) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestObjects(t *testing.T) {
	database := openTestDB(t)
	id := storeSample(t, database, "Galaxy")
	ctx := context.Background()

	t.Run("document order", func(t *testing.T) {
		out, err := Objects(ctx, database, ObjectsInput{Name: "galaxy"})
		require.NoError(t, err)
		assert.Equal(t, id, out.Snapshot)
		assert.Equal(t, []string{"Kuribo", "CoinRing", "TogezoSnake"}, objectIDs(out.Items))
		assert.Equal(t, 3, out.Pagination.Total)

		k := out.Items[0]
		assert.Equal(t, "Enemies", k.CategoryName)
		assert.Equal(t, 2, k.FieldCount)
		assert.Equal(t, "Kuribo", k.Model)
		assert.Empty(t, out.Items[2].CategoryName, "category 7 is undefined")
	})

	t.Run("category filter", func(t *testing.T) {
		out, err := Objects(ctx, database, ObjectsInput{ID: id, Category: intPtr(7)})
		require.NoError(t, err)
		assert.Equal(t, []string{"TogezoSnake"}, objectIDs(out.Items))
	})

	t.Run("query matches id or name", func(t *testing.T) {
		out, err := Objects(ctx, database, ObjectsInput{ID: id, Query: "GOOMBA"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Kuribo"}, objectIDs(out.Items))

		out, err = Objects(ctx, database, ObjectsInput{ID: id, Query: "ring"})
		require.NoError(t, err)
		assert.Equal(t, []string{"CoinRing"}, objectIDs(out.Items))
	})

	t.Run("pagination", func(t *testing.T) {
		out, err := Objects(ctx, database, ObjectsInput{ID: id, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"CoinRing", "TogezoSnake"}, objectIDs(out.Items))
		assert.False(t, out.Pagination.HasMore)

		out, err = Objects(ctx, database, ObjectsInput{ID: id, Offset: 10})
		require.NoError(t, err)
		assert.NotNil(t, out.Items)
		assert.Empty(t, out.Items)
	})

	t.Run("unknown snapshot", func(t *testing.T) {
		_, err := Objects(ctx, database, ObjectsInput{Name: "nope"})
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}

func TestLookup(t *testing.T) {
	database := openTestDB(t)
	id := storeSample(t, database, "Galaxy")
	ctx := context.Background()

	out, err := Lookup(ctx, database, LookupInput{ID: id, ObjectID: "Kuribo"})
	require.NoError(t, err)
	assert.Equal(t, "Goomba", out.Object.Name)
	require.NotNil(t, out.CategoryName)
	assert.Equal(t, "Enemies", *out.CategoryName)
	require.NotNil(t, out.Model)
	assert.Equal(t, "Kuribo", *out.Model)
	require.Len(t, out.Object.Fields, 2)
	assert.Equal(t, "Giant variant", out.Object.Fields[1].Notes)

	out, err = Lookup(ctx, database, LookupInput{ID: id, ObjectID: "TogezoSnake"})
	require.NoError(t, err)
	assert.Nil(t, out.CategoryName)
	assert.Nil(t, out.Model, "whitespace model is not indexed")
}

func TestLookup_NotFoundSuggests(t *testing.T) {
	database := openTestDB(t)
	id := storeSample(t, database, "Galaxy")

	_, err := Lookup(context.Background(), database, LookupInput{ID: id, ObjectID: "Kurib"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	objErr, ok := err.(*errors.ObjError)
	require.True(t, ok)
	assert.Equal(t, []string{"Kuribo"}, objErr.Details["suggestions"])
}

func TestLookup_RequiresObjectID(t *testing.T) {
	database := openTestDB(t)
	id := storeSample(t, database, "Galaxy")

	_, err := Lookup(context.Background(), database, LookupInput{ID: id})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestCategories(t *testing.T) {
	database := openTestDB(t)
	storeSample(t, database, "Galaxy")

	out, err := Categories(context.Background(), database, CategoriesInput{Name: "galaxy"})
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{
		{ID: 0, Name: "Enemies", Entries: 1},
		{ID: 1, Name: "Items", Entries: 1},
		{ID: 2, Name: "Gimmicks", Entries: 0},
	}, out.Items)
	assert.Equal(t, 1, out.Undefined)
}
