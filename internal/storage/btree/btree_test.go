package btree

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emdrive/emdrive/internal/schema"
	"github.com/emdrive/emdrive/internal/storage/fsys"
	"github.com/emdrive/emdrive/internal/storage/paging"
)

func testTable() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "events",
		Columns: []schema.ColumnDefinition{
			{Name: "id", DataType: schema.DataType{Raw: schema.TypeUInt64}, PrimaryKey: true},
			{Name: "payload", DataType: schema.DataType{Raw: schema.TypeString}},
		},
	}
}

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	store := fsys.New(t.TempDir())
	table := testTable()
	require.NoError(t, store.CreateTableFile("test", table.Name, paging.ConstructBlankTable()))
	return New(store, "test", &table)
}

func testRow(key uint64, payload string) schema.Row {
	return schema.Row{
		schema.Direct(schema.NewUInt64(key)),
		schema.Direct(schema.NewString(payload)),
	}
}

func collectKeys(t *testing.T, tree *Tree) []uint64 {
	t.Helper()
	var keys []uint64
	require.NoError(t, tree.ScanAll(func(row schema.Row) bool {
		keys = append(keys, row[0].Value.U64)
		return true
	}))
	return keys
}

func TestEmptyTree(t *testing.T) {
	tree := newTestTree(t)
	_, found, err := tree.Lookup(schema.NewUInt64(1))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, collectKeys(t, tree))
}

func TestInsertAndLookup(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.Insert(testRow(7, "seven")))
	require.NoError(t, tree.Insert(testRow(3, "three")))
	require.NoError(t, tree.Insert(testRow(5, "five")))

	row, found, err := tree.Lookup(schema.NewUInt64(5))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "five", row[1].Value.S)

	_, found, err = tree.Lookup(schema.NewUInt64(4))
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, []uint64{3, 5, 7}, collectKeys(t, tree))
}

func TestDuplicateKeyRejected(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.Insert(testRow(1, "first")))
	err := tree.Insert(testRow(1, "again"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// The original row survives.
	row, found, err := tree.Lookup(schema.NewUInt64(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first", row[1].Value.S)
}

func TestRowTooLarge(t *testing.T) {
	tree := newTestTree(t)
	err := tree.Insert(testRow(1, strings.Repeat("x", paging.PageSize)))
	assert.ErrorIs(t, err, ErrRowTooLarge)
}

func TestSplitsKeepEveryRowReachable(t *testing.T) {
	tree := newTestTree(t)

	// ~180-byte rows force plenty of leaf splits, including root
	// growth from a single leaf to a node-rooted tree.
	const rowCount = 500
	payload := strings.Repeat("p", 160)
	inserted := make(map[uint64]string, rowCount)
	for i := 0; i < rowCount; i++ {
		// A permutation of 0..rowCount-1, far from insertion order.
		key := uint64((i * 7919) % rowCount)
		value := fmt.Sprintf("%s-%d", payload, key)
		require.NoError(t, tree.Insert(testRow(key, value)))
		inserted[key] = value
	}

	keys := collectKeys(t, tree)
	require.Len(t, keys, rowCount)
	for i, key := range keys {
		assert.Equal(t, uint64(i), key, "scan must yield ascending keys")
	}

	for key, value := range inserted {
		row, found, err := tree.Lookup(schema.NewUInt64(key))
		require.NoError(t, err)
		require.True(t, found, "key %d must be present", key)
		assert.Equal(t, value, row[1].Value.S)
	}

	// The root moved off the initial leaf when it split.
	meta, err := tree.readMeta()
	require.NoError(t, err)
	assert.NotEqual(t, uint32(1), meta.RootPage)
	root, err := tree.readPage(meta.RootPage)
	require.NoError(t, err)
	assert.Equal(t, paging.KindNode, root.Kind)
	assert.GreaterOrEqual(t, len(root.Children), 2)
	for i := 1; i < len(root.Keys); i++ {
		assert.Equal(t, -1, schema.CompareValues(root.Keys[i-1], root.Keys[i]),
			"node keys must be strictly increasing")
	}
}

func TestRangeScan(t *testing.T) {
	tree := newTestTree(t)
	for key := uint64(0); key < 50; key++ {
		require.NoError(t, tree.Insert(testRow(key, "v")))
	}

	lower := schema.NewUInt64(10)
	upper := schema.NewUInt64(19)
	var keys []uint64
	require.NoError(t, tree.Scan(&lower, &upper, func(row schema.Row) bool {
		keys = append(keys, row[0].Value.U64)
		return true
	}))
	require.Len(t, keys, 10)
	assert.Equal(t, uint64(10), keys[0])
	assert.Equal(t, uint64(19), keys[9])
}

func TestScanStopsEarly(t *testing.T) {
	tree := newTestTree(t)
	for key := uint64(0); key < 10; key++ {
		require.NoError(t, tree.Insert(testRow(key, "v")))
	}
	count := 0
	require.NoError(t, tree.ScanAll(func(schema.Row) bool {
		count++
		return count < 3
	}))
	assert.Equal(t, 3, count)
}

func TestLayoutVersionMismatch(t *testing.T) {
	store := fsys.New(t.TempDir())
	table := testTable()
	blob := paging.ConstructBlankTable()
	blob[1] = 99 // corrupt the layout version in the meta page
	require.NoError(t, store.CreateTableFile("test", table.Name, blob))

	tree := New(store, "test", &table)
	err := tree.Insert(testRow(1, "v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout version")
}

func TestAllLeavesAtSameDepth(t *testing.T) {
	tree := newTestTree(t)
	for key := uint64(0); key < 300; key++ {
		require.NoError(t, tree.Insert(testRow(key, strings.Repeat("d", 200))))
	}
	meta, err := tree.readMeta()
	require.NoError(t, err)
	depths := map[int]struct{}{}
	var walk func(pageIndex uint32, depth int)
	walk = func(pageIndex uint32, depth int) {
		page, err := tree.readPage(pageIndex)
		require.NoError(t, err)
		if page.Kind == paging.KindLeaf {
			depths[depth] = struct{}{}
			return
		}
		for _, child := range page.Children {
			walk(child, depth+1)
		}
	}
	walk(meta.RootPage, 0)
	assert.Len(t, depths, 1, "every leaf must sit at the same depth")
}
