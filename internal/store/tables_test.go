package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(NewMemoryStorage())
	require.NoError(t, err)
	return db
}

func TestKVTable_Operations(t *testing.T) {
	db := newMemDB(t)
	tbl, err := NewKVTable[string](db, "kv")
	require.NoError(t, err)

	_, err = tbl.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tbl.Insert("b", "two"))
	require.NoError(t, tbl.Insert("a", "one"))
	assert.ErrorIs(t, tbl.Insert("a", "uno"), ErrIntegrity)

	require.NoError(t, tbl.Set("a", "uno"))
	v, err := tbl.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "uno", v)
	assert.True(t, tbl.Has("b"))

	assert.Equal(t, []Pair[string]{{"a", "uno"}, {"b", "two"}}, tbl.All())

	require.NoError(t, tbl.Drop("a"))
	require.NoError(t, tbl.Drop("a"), "dropping twice is a no-op")
	assert.Equal(t, 1, tbl.Len())
}

func TestKVTable_AllIsSnapshot(t *testing.T) {
	db := newMemDB(t)
	tbl, err := NewKVTable[int](db, "states")
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, tbl.Set(k, 1))
	}

	for _, p := range tbl.All() {
		require.NoError(t, tbl.Drop(p.Key))
		require.NoError(t, tbl.Set(p.Key+"x", 2))
	}

	assert.Equal(t, []Pair[int]{{"ax", 2}, {"bx", 2}, {"cx", 2}}, tbl.All())
}

func TestKVTable_FindOne(t *testing.T) {
	db := newMemDB(t)
	tbl, err := NewKVTable[int](db, "states")
	require.NoError(t, err)
	require.NoError(t, tbl.Set("abc1", 1))
	require.NoError(t, tbl.Set("abc2", 2))
	require.NoError(t, tbl.Set("xyz", 3))

	hasPrefix := func(p string) func(string, int) bool {
		return func(k string, _ int) bool { return strings.HasPrefix(k, p) }
	}

	got, err := tbl.FindOne(hasPrefix("x"))
	require.NoError(t, err)
	assert.Equal(t, Pair[int]{"xyz", 3}, got)

	_, err = tbl.FindOne(hasPrefix("abc"))
	assert.ErrorIs(t, err, ErrMultipleResults)

	_, err = tbl.FindOne(hasPrefix("q"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, tbl.FindAll(hasPrefix("abc")), 2)
}

func TestIDMapping_Bijective(t *testing.T) {
	db := newMemDB(t)
	m, err := NewIDMapping(db, "external_ids")
	require.NoError(t, err)

	require.NoError(t, m.Map("src1", "f1"))
	ext, err := m.GetExternal("src1")
	require.NoError(t, err)
	assert.Equal(t, "f1", ext)
	nat, err := m.GetNative("f1")
	require.NoError(t, err)
	assert.Equal(t, "src1", nat)

	// Remapping a native id drops its stale foreign id.
	require.NoError(t, m.Map("src1", "f2"))
	_, err = m.GetNative("f1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Reusing a foreign id drops the stale native id.
	require.NoError(t, m.Map("src2", "f2"))
	_, err = m.GetExternal("src1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Unmap("src2"))
	_, err = m.GetNative("f2")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, m.Unmap("src2"))
}

func TestIDMapping_MapIsOneCommit(t *testing.T) {
	db, cs := newCountingDB(t)
	m, err := NewIDMapping(db, "external_ids")
	require.NoError(t, err)
	base := cs.writes

	require.NoError(t, m.Map("a", "f1"))
	assert.Equal(t, base+1, cs.writes)
}

type event struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
}

func TestDocumentTable_Operations(t *testing.T) {
	db := newMemDB(t)
	tbl, err := NewDocumentTable[event](db, "history")
	require.NoError(t, err)

	id1, err := tbl.Insert(event{"a", "added"})
	require.NoError(t, err)
	id2, err := tbl.Insert(event{"b", "added"})
	require.NoError(t, err)
	id3, err := tbl.Insert(event{"a", "archived"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{id1, id2, id3})

	doc, err := tbl.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Source)
	_, err = tbl.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)

	rows := tbl.FindAll(func(e event) bool { return e.Source == "a" })
	require.Len(t, rows, 2)
	assert.Equal(t, "added", rows[0].Doc.Kind)
	assert.Equal(t, "archived", rows[1].Doc.Kind)

	_, err = tbl.FindOne(func(e event) bool { return e.Source == "a" })
	assert.ErrorIs(t, err, ErrMultipleResults)
	_, err = tbl.FindOne(func(e event) bool { return e.Source == "z" })
	assert.ErrorIs(t, err, ErrNotFound)
	row, err := tbl.FindOne(func(e event) bool { return e.Source == "b" })
	require.NoError(t, err)
	assert.Equal(t, id2, row.ID)

	n, err := tbl.Delete(func(e event) bool { return e.Source == "a" })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, tbl.Len())
}

func TestDocumentTable_IDsContinueAfterReload(t *testing.T) {
	s := NewMemoryStorage()
	db, err := Open(s)
	require.NoError(t, err)
	tbl, err := NewDocumentTable[event](db, "history")
	require.NoError(t, err)
	_, err = tbl.Insert(event{"a", "added"})
	require.NoError(t, err)
	_, err = tbl.Insert(event{"a", "cancelled"})
	require.NoError(t, err)

	db2, err := Open(s)
	require.NoError(t, err)
	tbl2, err := NewDocumentTable[event](db2, "history")
	require.NoError(t, err)
	id, err := tbl2.Insert(event{"b", "added"})
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}
