package entity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/catalog/internal/transport/transporttest"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

func TestUpdateAssignsSchemaFieldsOnly(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		values  map[string]any
	}{
		{
			name:    "database",
			variant: Database,
			values:  map[string]any{"id": json.Number("1"), "name": "Sales", "database": "db1", "description": "x"},
		},
		{
			name:    "table",
			variant: Table,
			values:  map[string]any{"id": json.Number("7"), "name": "t1", "database": json.Number("1"), "description": "", "date_range": nil},
		},
		{
			name:    "grouping",
			variant: Grouping,
			values:  map[string]any{"id": json.Number("2"), "name": "Finance"},
		},
		{
			name:    "column",
			variant: Column,
			values: map[string]any{
				"id": json.Number("9"), "name": "amount", "description": "total", "data_type": "int",
				"is_derived_item": true, "derivation": "sum", "tables": []any{json.Number("1")},
				"grouping": []any{"Finance"}, "link": "http://x",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"not_in_schema": "ignored"}
			for k, v := range tt.values {
				raw[k] = v
			}

			e := New(tt.variant, transporttest.New(), raw)
			e.Update(raw)

			for _, f := range tt.variant.Fields {
				got, ok := e.Get(f)
				require.True(t, ok, "field %s", f)
				assert.Equal(t, tt.values[f], got, "field %s", f)
			}
			_, ok := e.Get("not_in_schema")
			assert.False(t, ok, "non-schema key must be ignored")
			assert.Len(t, e.Values(), len(tt.variant.Fields))
		})
	}
}

func TestUpdateClearsMissingFields(t *testing.T) {
	e := New(Grouping, transporttest.New(), map[string]any{"id": json.Number("1"), "name": "a"})
	e.Update(map[string]any{"id": json.Number("1")})

	_, ok := e.Get("name")
	assert.False(t, ok)
}

func TestNewWithoutValues(t *testing.T) {
	e := New(Table, transporttest.New(), nil)

	_, ok := e.ID()
	assert.False(t, ok)
	assert.Empty(t, e.Values())
	assert.Equal(t, StateIdle, e.Editing.State())
	assert.Equal(t, Table.Fields, e.Editing.Fields())
}

func TestSetRejectsUnknownField(t *testing.T) {
	e := New(Grouping, transporttest.New(), nil)

	assert.NoError(t, e.Set("name", "g"))
	assert.ErrorIs(t, e.Set("bogus", 1), types.ErrUnknownField)
	assert.ErrorIs(t, e.Editing.Set("bogus", 1), types.ErrUnknownField)
}

func TestEditCancelLeavesFieldsUntouched(t *testing.T) {
	raw := map[string]any{
		"id": json.Number("3"), "name": "amount", "description": "d", "data_type": "int",
		"is_derived_item": false, "derivation": "", "tables": []any{json.Number("1"), json.Number("2")},
		"grouping": []any{"g"}, "link": nil,
	}
	e := New(Column, transporttest.New(), raw)
	before, err := json.Marshal(e)
	require.NoError(t, err)

	e.Edit()
	require.True(t, e.Editing.EditMode())
	require.NoError(t, e.Editing.Set("name", "changed"))
	require.NoError(t, e.Editing.Set("description", "changed too"))
	tables, _ := e.Editing.Value("tables")
	tables.([]any)[0] = "mutated in place"
	e.Cancel()

	after, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, StateIdle, e.Editing.State())
	assert.False(t, e.Editing.EditMode())
}

func TestSaveCreatesWithPost(t *testing.T) {
	rec := transporttest.New().
		On("POST", "/api/table/", 201, `{"id":7,"name":"t1","database":1,"description":"","date_range":null}`)

	table := New(Table, rec, nil)
	table.Edit()
	require.NoError(t, table.Editing.Set("name", "t1"))
	require.NoError(t, table.Editing.Set("database", 1))
	require.NoError(t, table.Save(context.Background()))

	call := rec.Last()
	assert.Equal(t, "POST", call.Method)
	assert.Equal(t, "/api/table/", call.Path)
	assert.Equal(t, map[string]any{"name": "t1", "database": float64(1)}, call.JSON())

	id, ok := table.ID()
	assert.True(t, ok)
	assert.Equal(t, "7", id)
	name, _ := table.Get("name")
	assert.Equal(t, "t1", name)
	dr, ok := table.Get("date_range")
	assert.True(t, ok)
	assert.Nil(t, dr)
	assert.Equal(t, StateIdle, table.Editing.State())
}

func TestSaveUpdatesWithPut(t *testing.T) {
	rec := transporttest.New().
		On("PUT", "/api/database/4/", 200, `{"id":4,"name":"HR","database":"db2","description":"people"}`)

	db := New(Database, rec, map[string]any{"id": json.Number("4"), "name": "hr", "database": "db2", "description": ""})
	db.Edit()
	require.NoError(t, db.Editing.Set("name", "HR"))
	require.NoError(t, db.Editing.Set("description", "people"))

	stale, _ := db.Get("name")
	assert.Equal(t, "hr", stale, "edits stay staged until saved")

	require.NoError(t, db.Save(context.Background()))

	call := rec.Last()
	assert.Equal(t, "PUT", call.Method)
	assert.Equal(t, "/api/database/4/", call.Path)
	assert.Equal(t, map[string]any{"id": float64(4), "name": "HR", "database": "db2", "description": "people"}, call.JSON())

	name, _ := db.Get("name")
	assert.Equal(t, "HR", name)
	desc, _ := db.Get("description")
	assert.Equal(t, "people", desc)
}

func TestSaveFromIdleSendsCurrentValues(t *testing.T) {
	rec := transporttest.New().On("POST", "/api/grouping/", 201, `{"id":11,"name":"Finance"}`)

	g := New(Grouping, rec, nil)
	require.NoError(t, g.Set("name", "Finance"))
	require.NoError(t, g.Save(context.Background()))

	assert.Equal(t, map[string]any{"name": "Finance"}, rec.Last().JSON())
	id, _ := g.ID()
	assert.Equal(t, "11", id)
}

func TestSaveFailureReturnsToEditing(t *testing.T) {
	rec := transporttest.New().On("PUT", "/api/grouping/2/", 400, `{"name":["required"]}`)

	g := New(Grouping, rec, map[string]any{"id": json.Number("2"), "name": "old"})
	g.Edit()
	require.NoError(t, g.Editing.Set("name", ""))

	err := g.Save(context.Background())
	assert.ErrorIs(t, err, types.ErrRemote)

	var re *types.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 400, re.StatusCode)

	assert.Equal(t, StateEditing, g.Editing.State())
	staged, _ := g.Editing.Value("name")
	assert.Equal(t, "", staged, "working copy survives a failed save")
	name, _ := g.Get("name")
	assert.Equal(t, "old", name)
}

func TestSaveWhileLoadingIsBusy(t *testing.T) {
	rec := transporttest.New().On("PUT", "/api/grouping/2/", 200, `{"id":2,"name":"new"}`)
	g := New(Grouping, rec, map[string]any{"id": json.Number("2"), "name": "old"})

	var inFlight []error
	rec.OnRequest = func(transporttest.Call) {
		assert.True(t, g.Editing.Loading())
		assert.False(t, g.Editing.EditMode())
		inFlight = append(inFlight, g.Save(context.Background()), g.Remove(context.Background()))
		g.Edit()
		g.Cancel()
		assert.Equal(t, StateSaving, g.Editing.State(), "populate and cancel are ignored while loading")
	}

	g.Edit()
	require.NoError(t, g.Editing.Set("name", "new"))
	require.NoError(t, g.Save(context.Background()))

	require.Len(t, inFlight, 2)
	assert.ErrorIs(t, inFlight[0], types.ErrBusy)
	assert.ErrorIs(t, inFlight[1], types.ErrBusy)
	assert.Len(t, rec.Calls(), 1)
}

func TestSaveAndRemoveWhileDeletingAreBusy(t *testing.T) {
	rec := transporttest.New().On("DELETE", "/api/grouping/3/", 204, "")
	g := New(Grouping, rec, map[string]any{"id": json.Number("3"), "name": "old"})

	var inFlight []error
	rec.OnRequest = func(transporttest.Call) {
		assert.Equal(t, StateDeleting, g.Editing.State())
		assert.True(t, g.Editing.Loading())
		inFlight = append(inFlight, g.Save(context.Background()), g.Remove(context.Background()))
		assert.Equal(t, StateDeleting, g.Editing.State())
	}

	require.NoError(t, g.Remove(context.Background()))

	require.Len(t, inFlight, 2)
	assert.ErrorIs(t, inFlight[0], types.ErrBusy)
	assert.ErrorIs(t, inFlight[1], types.ErrBusy)
	assert.Len(t, rec.Calls(), 1)
	assert.Equal(t, StateIdle, g.Editing.State())
}

func TestSaveOnDetachedEntityDoesNotMerge(t *testing.T) {
	rec := transporttest.New().On("PUT", "/api/grouping/5/", 200, `{"id":5,"name":"server"}`)
	g := New(Grouping, rec, map[string]any{"id": json.Number("5"), "name": "local"})
	rec.OnRequest = func(transporttest.Call) { g.Detach() }

	g.Edit()
	require.NoError(t, g.Editing.Set("name", "server"))
	err := g.Save(context.Background())

	assert.ErrorIs(t, err, types.ErrDetached)
	name, _ := g.Get("name")
	assert.Equal(t, "local", name)
}

func TestSaveCancelledContextDoesNotMerge(t *testing.T) {
	rec := transporttest.New().On("PUT", "/api/grouping/5/", 200, `{"id":5,"name":"server"}`)
	g := New(Grouping, rec, map[string]any{"id": json.Number("5"), "name": "local"})

	ctx, cancel := context.WithCancel(context.Background())
	rec.OnRequest = func(transporttest.Call) { cancel() }

	err := g.Save(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	name, _ := g.Get("name")
	assert.Equal(t, "local", name)
}

func TestRemoveIssuesDelete(t *testing.T) {
	rec := transporttest.New().On("DELETE", "/api/column/3/", 204, "")
	c := New(Column, rec, map[string]any{"id": json.Number("3"), "name": "x"})

	require.NoError(t, c.Remove(context.Background()))
	assert.Equal(t, "DELETE", rec.Last().Method)
	assert.Equal(t, "/api/column/3/", rec.Last().Path)
	assert.Equal(t, StateIdle, c.Editing.State())
}

func TestRemoveChecksStatus(t *testing.T) {
	rec := transporttest.New().On("DELETE", "/api/column/3/", 500, "")
	c := New(Column, rec, map[string]any{"id": json.Number("3")})
	c.Edit()

	err := c.Remove(context.Background())
	assert.ErrorIs(t, err, types.ErrRemote)
	assert.Equal(t, StateEditing, c.Editing.State())
}

func TestRemoveWithoutIDMakesNoRequest(t *testing.T) {
	rec := transporttest.New()
	c := New(Column, rec, nil)

	err := c.Remove(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.Empty(t, rec.Calls())
}

func TestLoadBuildsEntities(t *testing.T) {
	rec := transporttest.New().On("GET", "/api/database/", 200,
		`{"count":1,"next":null,"results":[{"id":1,"name":"Sales","database":"db1","description":"x"}]}`)

	dbs, err := Load(context.Background(), Database, rec)
	require.NoError(t, err)
	require.Len(t, dbs, 1)

	name, _ := dbs[0].Get("name")
	assert.Equal(t, "Sales", name)
	id, ok := dbs[0].ID()
	assert.True(t, ok)
	assert.Equal(t, "1", id)
	assert.Equal(t, Database.Name, dbs[0].Variant().Name)
}

func TestLoadRemoteFailure(t *testing.T) {
	rec := transporttest.New().On("GET", "/api/table/", 500, `{"detail":"boom"}`)

	var (
		dbs []*Entity
		err error
	)
	assert.NotPanics(t, func() { dbs, err = Load(context.Background(), Table, rec) })
	assert.Nil(t, dbs)
	assert.ErrorIs(t, err, types.ErrRemote)
}

func TestLoadMalformedPage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not an object", body: `[1,2]`},
		{name: "result not an object", body: `{"results":[1]}`},
		{name: "null result", body: `{"results":[null]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := transporttest.New().On("GET", "/api/grouping/", 200, tt.body)
			_, err := Load(context.Background(), Grouping, rec)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingResults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "error envelope", body: `{"detail":"maintenance"}`},
		{name: "empty object", body: `{}`},
		{name: "null results", body: `{"results":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := transporttest.New().On("GET", "/api/table/", 200, tt.body)
			ts, err := Load(context.Background(), Table, rec)
			assert.ErrorIs(t, err, types.ErrInvalidData)
			assert.Nil(t, ts)
		})
	}
}

func TestLoadEmptyResults(t *testing.T) {
	rec := transporttest.New().On("GET", "/api/grouping/", 200, `{"results":[]}`)
	gs, err := Load(context.Background(), Grouping, rec)
	require.NoError(t, err)
	assert.Empty(t, gs)
}

func TestFind(t *testing.T) {
	rec := transporttest.New().On("GET", "/api/table/7/", 200, `{"id":7,"name":"t1"}`)

	tbl, err := Find(context.Background(), Table, rec, "7")
	require.NoError(t, err)
	name, _ := tbl.Get("name")
	assert.Equal(t, "t1", name)

	_, err = Find(context.Background(), Table, rec, "8")
	assert.ErrorIs(t, err, types.ErrRemote)

	_, err = Find(context.Background(), Table, rec, "")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestBaseVariantIsNotImplemented(t *testing.T) {
	var base Variant

	_, err := base.APIName()
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	_, err = base.URL()
	assert.ErrorIs(t, err, types.ErrNotImplemented)

	rec := transporttest.New()
	_, err = Load(context.Background(), base, rec)
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	err = New(base, rec, nil).Save(context.Background())
	assert.ErrorIs(t, err, types.ErrNotImplemented)
	assert.Empty(t, rec.Calls())

	noFields := Variant{Name: "widget"}
	_, err = noFields.URL()
	assert.ErrorIs(t, err, types.ErrNotImplemented)
}

func TestVariantURLs(t *testing.T) {
	url, err := Table.URL()
	require.NoError(t, err)
	assert.Equal(t, "/api/table/", url)

	item, err := Column.ItemURL("12")
	require.NoError(t, err)
	assert.Equal(t, "/api/column/12/", item)
}

func TestItemURLRejectsPathIDs(t *testing.T) {
	for _, id := range []string{"", ".", "..", "../database/1", "1/2", "7?x=1", "7#frag", "%2e%2e", `a\b`} {
		_, err := Table.ItemURL(id)
		assert.ErrorIs(t, err, types.ErrInvalidID, id)
	}
}

func TestFindRejectsPathIDWithoutRequest(t *testing.T) {
	rec := transporttest.New()
	_, err := Find(context.Background(), Table, rec, "../database/1")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.Empty(t, rec.Calls())
}

func TestFormatID(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{in: nil, ok: false},
		{in: json.Number("7"), want: "7", ok: true},
		{in: "abc", want: "abc", ok: true},
		{in: "", ok: false},
		{in: float64(12), want: "12", ok: true},
		{in: 5, want: "5", ok: true},
		{in: int64(6), want: "6", ok: true},
	}
	for _, tt := range tests {
		got, ok := formatID(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
