package entity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/catalog/internal/transport/transporttest"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

func TestCollectionRemoveEvicts(t *testing.T) {
	rec := transporttest.New().
		On("GET", "/api/grouping/", 200, `{"results":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`).
		On("DELETE", "/api/grouping/1/", 204, "")

	c, err := LoadCollection(context.Background(), Grouping, rec)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	first := c.Records()[0]
	require.NoError(t, c.Remove(context.Background(), first))

	assert.Equal(t, 1, c.Len())
	id, _ := c.Records()[0].ID()
	assert.Equal(t, "2", id)
	assert.True(t, first.Detached())
}

func TestCollectionRemoveFailureKeepsRecord(t *testing.T) {
	rec := transporttest.New().
		On("GET", "/api/grouping/", 200, `{"results":[{"id":1,"name":"a"}]}`).
		On("DELETE", "/api/grouping/1/", 500, "")

	c, err := LoadCollection(context.Background(), Grouping, rec)
	require.NoError(t, err)

	err = c.Remove(context.Background(), c.Records()[0])
	assert.ErrorIs(t, err, types.ErrRemote)
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Records()[0].Detached())
}

func TestCollectionLoadFailure(t *testing.T) {
	rec := transporttest.New().On("GET", "/api/column/", 503, "")
	c, err := LoadCollection(context.Background(), Column, rec)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, types.ErrRemote)
}

func TestCollectionAddAnotherAndSaveAll(t *testing.T) {
	rec := transporttest.New().On("POST", "/api/grouping/", 201, `{"id":5,"name":"x"}`)
	c := NewCollection(Grouping, rec)

	a := c.AddAnother()
	require.NoError(t, a.Editing.Set("name", "x"))
	b := c.AddAnother()
	require.NoError(t, b.Editing.Set("name", "x"))
	require.Equal(t, 2, c.Len())

	require.NoError(t, c.SaveAll(context.Background()))
	assert.Len(t, rec.Calls(), 2)
	for _, e := range c.Records() {
		id, ok := e.ID()
		assert.True(t, ok)
		assert.Equal(t, "5", id)
	}
}

func TestCollectionSaveAllJoinsErrors(t *testing.T) {
	rec := transporttest.New().
		On("POST", "/api/grouping/", 201, `{"id":5,"name":"ok"}`).
		On("PUT", "/api/grouping/9/", 400, `{"name":["taken"]}`)
	c := NewCollection(Grouping, rec)

	c.AddAnother()
	bad := New(Grouping, rec, map[string]any{"id": json.Number("9"), "name": "dup"})
	c.mu.Lock()
	c.records = append(c.records, bad)
	c.mu.Unlock()

	err := c.SaveAll(context.Background())
	assert.ErrorIs(t, err, types.ErrRemote)
	assert.Contains(t, err.Error(), "record 1")
	assert.Len(t, rec.Calls(), 2, "a failure does not stop later saves")
}

func TestCollectionDiscard(t *testing.T) {
	rec := transporttest.New()
	c := NewCollection(Table, rec)
	staged := c.AddAnother()
	c.AddAnother()

	c.Discard(staged)
	assert.Equal(t, 1, c.Len())
	assert.True(t, staged.Detached())
	assert.Empty(t, rec.Calls())
}
