// Package btree operates a page-backed B+ tree over one table's data
// file. Leaves hold full rows in ascending primary-key order and are
// chained through next-leaf links; interior nodes route lookups by
// primary-key comparison.
//
// Every traversal begins by reading the meta page, because the root
// page index changes when the root splits. Pages are read, mutated in
// memory, and written back whole; new pages are appended at the end of
// the file.
package btree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emdrive/emdrive/internal/schema"
	"github.com/emdrive/emdrive/internal/storage/fsys"
	"github.com/emdrive/emdrive/internal/storage/paging"
)

var (
	// ErrDuplicateKey reports an insert whose primary key is already
	// present.
	ErrDuplicateKey = errors.New("a row with this primary key already exists")

	// ErrRowTooLarge reports a row that cannot fit in an empty leaf.
	// There are no overflow pages.
	ErrRowTooLarge = errors.New("row is too large to fit in a page")
)

// Tree is a handle on one table's B+ tree. It borrows the table
// definition for the duration of its operations and never mutates it.
type Tree struct {
	store      *fsys.Store
	schemaName string
	table      *schema.TableDefinition
	keyIndex   int
}

// New returns a tree over the table's data file.
func New(store *fsys.Store, schemaName string, table *schema.TableDefinition) *Tree {
	return &Tree{
		store:      store,
		schemaName: schemaName,
		table:      table,
		keyIndex:   table.PrimaryKeyIndex(),
	}
}

// key extracts the row's primary-key value.
func (t *Tree) key(row schema.Row) schema.Value {
	return row[t.keyIndex].Value
}

func (t *Tree) readPage(pageIndex uint32) (paging.Page, error) {
	blob, err := t.store.ReadPage(t.schemaName, t.table.Name, pageIndex)
	if err != nil {
		return paging.Page{}, err
	}
	return paging.Decode(blob, t.table)
}

func (t *Tree) writePage(pageIndex uint32, page paging.Page) error {
	blob, err := paging.Serialize(page)
	if err != nil {
		return err
	}
	return t.store.WritePage(t.schemaName, t.table.Name, pageIndex, blob)
}

// allocPage returns the index of a fresh page at the end of the file.
// The caller must write it before allocating again.
func (t *Tree) allocPage() (uint32, error) {
	return t.store.PageCount(t.schemaName, t.table.Name)
}

// readMeta reads and checks page 0.
func (t *Tree) readMeta() (paging.Page, error) {
	meta, err := t.readPage(0)
	if err != nil {
		return paging.Page{}, err
	}
	if meta.Kind != paging.KindMeta {
		return paging.Page{}, fmt.Errorf(
			"found a non-meta page at the beginning of table %s.%s's data file",
			t.schemaName, t.table.Name,
		)
	}
	if meta.LayoutVersion != paging.LayoutVersion {
		return paging.Page{}, fmt.Errorf(
			"table %s.%s uses disk layout version %d, but this build reads version %d",
			t.schemaName, t.table.Name, meta.LayoutVersion, paging.LayoutVersion,
		)
	}
	return meta, nil
}

// pathToLeaf descends from the root to the leaf responsible for key,
// returning the page indexes along the way (root first, leaf last)
// and the decoded leaf.
func (t *Tree) pathToLeaf(key schema.Value) ([]uint32, paging.Page, error) {
	meta, err := t.readMeta()
	if err != nil {
		return nil, paging.Page{}, err
	}
	pageIndex := meta.RootPage
	var path []uint32
	for {
		path = append(path, pageIndex)
		page, err := t.readPage(pageIndex)
		if err != nil {
			return nil, paging.Page{}, err
		}
		switch page.Kind {
		case paging.KindLeaf:
			return path, page, nil
		case paging.KindNode:
			pageIndex = page.Children[childFor(page.Keys, key)]
		default:
			return nil, paging.Page{}, fmt.Errorf(
				"found a %s page inside table %s.%s's B+ tree",
				page.Kind, t.schemaName, t.table.Name,
			)
		}
	}
}

// childFor picks the child slot for a key: the smallest i with
// key < keys[i], or the last child when no key is greater.
func childFor(keys []schema.Value, key schema.Value) int {
	return sort.Search(len(keys), func(i int) bool {
		return schema.CompareValues(key, keys[i]) < 0
	})
}

// Lookup finds the row with the given primary key.
func (t *Tree) Lookup(key schema.Value) (schema.Row, bool, error) {
	_, leaf, err := t.pathToLeaf(key)
	if err != nil {
		return nil, false, err
	}
	position, found := t.searchLeaf(leaf, key)
	if !found {
		return nil, false, nil
	}
	return leaf.Rows[position], true, nil
}

// searchLeaf binary-searches a leaf's rows for key, returning the
// position where it is or would be inserted.
func (t *Tree) searchLeaf(leaf paging.Page, key schema.Value) (int, bool) {
	position := sort.Search(len(leaf.Rows), func(i int) bool {
		return schema.CompareValues(t.key(leaf.Rows[i]), key) >= 0
	})
	found := position < len(leaf.Rows) && schema.CompareValues(t.key(leaf.Rows[position]), key) == 0
	return position, found
}

// Scan yields rows with lower <= key <= upper in ascending key order,
// following the leaf chain. A nil bound is unbounded on that side.
// The scan stops early when fn returns false.
func (t *Tree) Scan(lower, upper *schema.Value, fn func(schema.Row) bool) error {
	var leafIndex uint32
	var leaf paging.Page
	var err error
	if lower != nil {
		var path []uint32
		path, leaf, err = t.pathToLeaf(*lower)
		if err != nil {
			return err
		}
		leafIndex = path[len(path)-1]
	} else {
		leafIndex, leaf, err = t.leftmostLeaf()
		if err != nil {
			return err
		}
	}
	for {
		for _, row := range leaf.Rows {
			key := t.key(row)
			if lower != nil && schema.CompareValues(key, *lower) < 0 {
				continue
			}
			if upper != nil && schema.CompareValues(key, *upper) > 0 {
				return nil
			}
			if !fn(row) {
				return nil
			}
		}
		if leaf.NextLeaf == 0 {
			return nil
		}
		leafIndex = leaf.NextLeaf
		leaf, err = t.readPage(leafIndex)
		if err != nil {
			return err
		}
		if leaf.Kind != paging.KindLeaf {
			return fmt.Errorf(
				"leaf chain of table %s.%s points at a %s page (index %d)",
				t.schemaName, t.table.Name, leaf.Kind, leafIndex,
			)
		}
	}
}

// ScanAll yields every row in ascending key order.
func (t *Tree) ScanAll(fn func(schema.Row) bool) error {
	return t.Scan(nil, nil, fn)
}

// leftmostLeaf descends along first children to the smallest-keyed
// leaf.
func (t *Tree) leftmostLeaf() (uint32, paging.Page, error) {
	meta, err := t.readMeta()
	if err != nil {
		return 0, paging.Page{}, err
	}
	pageIndex := meta.RootPage
	for {
		page, err := t.readPage(pageIndex)
		if err != nil {
			return 0, paging.Page{}, err
		}
		switch page.Kind {
		case paging.KindLeaf:
			return pageIndex, page, nil
		case paging.KindNode:
			pageIndex = page.Children[0]
		default:
			return 0, paging.Page{}, fmt.Errorf(
				"found a %s page inside table %s.%s's B+ tree",
				page.Kind, t.schemaName, t.table.Name,
			)
		}
	}
}

// Insert adds a row keyed by its primary-key column. Duplicate keys
// are rejected; a leaf with no room splits, and splits propagate up
// to the root, growing the tree by one level when the root itself
// splits.
func (t *Tree) Insert(row schema.Row) error {
	if paging.LeafSize([]schema.Row{row}) > paging.PageSize {
		return ErrRowTooLarge
	}
	key := t.key(row)
	path, leaf, err := t.pathToLeaf(key)
	if err != nil {
		return err
	}
	leafIndex := path[len(path)-1]

	position, found := t.searchLeaf(leaf, key)
	if found {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateKey, t.table.Name, t.table.PrimaryKey().Name)
	}

	if paging.LeafHasRoomFor(leaf.Rows, row) {
		leaf.Rows = insertRowAt(leaf.Rows, position, row)
		return t.writePage(leafIndex, leaf)
	}

	// Leaf is full - split it. The upper half moves to a fresh page
	// spliced into the leaf chain, and the new leaf's first key is
	// promoted into the parent.
	merged := insertRowAt(leaf.Rows, position, row)
	mid := len(merged) / 2
	rightIndex, err := t.allocPage()
	if err != nil {
		return err
	}
	right := paging.Page{
		Kind:     paging.KindLeaf,
		NextLeaf: leaf.NextLeaf,
		Rows:     merged[mid:],
	}
	left := paging.Page{
		Kind:     paging.KindLeaf,
		NextLeaf: rightIndex,
		Rows:     merged[:mid],
	}
	if err := t.writePage(rightIndex, right); err != nil {
		return err
	}
	if err := t.writePage(leafIndex, left); err != nil {
		return err
	}
	promoted := t.key(right.Rows[0])
	return t.insertIntoParent(path[:len(path)-1], leafIndex, promoted, rightIndex)
}

func insertRowAt(rows []schema.Row, position int, row schema.Row) []schema.Row {
	merged := make([]schema.Row, 0, len(rows)+1)
	merged = append(merged, rows[:position]...)
	merged = append(merged, row)
	merged = append(merged, rows[position:]...)
	return merged
}

// insertIntoParent records that the page at leftIndex split, with key
// separating it from the new page at rightIndex. An empty path means
// the split page was the root.
func (t *Tree) insertIntoParent(path []uint32, leftIndex uint32, key schema.Value, rightIndex uint32) error {
	if len(path) == 0 {
		return t.createNewRoot(leftIndex, key, rightIndex)
	}

	parentIndex := path[len(path)-1]
	parent, err := t.readPage(parentIndex)
	if err != nil {
		return err
	}

	// The new separator goes where the left child already is; the new
	// right child lands just after it.
	position := childFor(parent.Keys, key)
	keys := make([]schema.Value, 0, len(parent.Keys)+1)
	keys = append(keys, parent.Keys[:position]...)
	keys = append(keys, key)
	keys = append(keys, parent.Keys[position:]...)
	children := make([]uint32, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:position+1]...)
	children = append(children, rightIndex)
	children = append(children, parent.Children[position+1:]...)

	if paging.NodeSize(keys, len(children)) <= paging.PageSize {
		parent.Keys = keys
		parent.Children = children
		return t.writePage(parentIndex, parent)
	}

	// Node is full - split it. The middle key moves up rather than
	// staying in either half.
	mid := len(keys) / 2
	pushUp := keys[mid]
	newNodeIndex, err := t.allocPage()
	if err != nil {
		return err
	}
	rightNode := paging.Page{
		Kind:     paging.KindNode,
		Keys:     keys[mid+1:],
		Children: children[mid+1:],
	}
	leftNode := paging.Page{
		Kind:     paging.KindNode,
		Keys:     keys[:mid],
		Children: children[:mid+1],
	}
	if err := t.writePage(newNodeIndex, rightNode); err != nil {
		return err
	}
	if err := t.writePage(parentIndex, leftNode); err != nil {
		return err
	}
	return t.insertIntoParent(path[:len(path)-1], parentIndex, pushUp, newNodeIndex)
}

// createNewRoot grows the tree by one level and repoints the meta
// page at the new root.
func (t *Tree) createNewRoot(leftIndex uint32, key schema.Value, rightIndex uint32) error {
	rootIndex, err := t.allocPage()
	if err != nil {
		return err
	}
	root := paging.Page{
		Kind:     paging.KindNode,
		Keys:     []schema.Value{key},
		Children: []uint32{leftIndex, rightIndex},
	}
	if err := t.writePage(rootIndex, root); err != nil {
		return err
	}
	return t.writePage(0, paging.NewMeta(rootIndex))
}
