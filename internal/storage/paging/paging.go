// Package paging defines emdrive's fixed-size page model and its
// on-disk binary layout.
//
// Every page is exactly 8 KiB, fully written with trailing bytes
// zeroed. The first byte selects the variant:
//
//	0x00  Meta       layout version (u8), B+ tree root page index (u32)
//	0x20  BTreeNode  arity (u16), arity-1 primary keys, arity child
//	                 page indexes (u32 each)
//	0x21  BTreeLeaf  next leaf page index (u32, 0 = none), row count
//	                 (u16), then one row-offset slot (u16) per row
//	                 growing forward while the row bodies grow backward
//	                 from the end of the page
//
// The slot directory / back-written body split lets a leaf accept new
// rows without rewriting existing bodies; the page is full when the
// two cursors meet. Decoding a node or leaf needs the owning table's
// definition, because keys and rows do not describe their own types.
package paging

import (
	"errors"
	"fmt"

	"github.com/emdrive/emdrive/internal/schema"
	"github.com/emdrive/emdrive/internal/storage/codec"
)

const (
	// PageSize is the fixed page size in bytes (8 KiB).
	PageSize = 8192

	// LayoutVersion is the latest on-disk layout version. A meta page
	// carrying any other version is unreadable by this build.
	LayoutVersion = 0

	// leafHeaderSize covers the marker, next-leaf index, and row
	// count. Every slot offset must point past it.
	leafHeaderSize = 1 + 4 + 2
)

// Page type markers.
const (
	markerMeta byte = 0x00
	markerNode byte = 0x20
	markerLeaf byte = 0x21
)

// ErrPageOverflow reports content that does not fit in one page.
var ErrPageOverflow = errors.New("page contents exceed the page size")

// PageKind identifies a page variant.
type PageKind uint8

const (
	KindMeta PageKind = iota
	KindNode
	KindLeaf
)

func (k PageKind) String() string {
	switch k {
	case KindMeta:
		return "Meta"
	case KindNode:
		return "BTreeNode"
	case KindLeaf:
		return "BTreeLeaf"
	default:
		return fmt.Sprintf("PageKind(%d)", uint8(k))
	}
}

// Page is the in-memory form of one on-disk page. Kind selects which
// field group is meaningful. Pages are values: read, mutate, write.
type Page struct {
	Kind PageKind

	// Meta fields.
	LayoutVersion uint8
	// RootPage is the page index of the B+ tree root: a leaf while the
	// tree has height 1, a node after the first root split.
	RootPage uint32

	// Node fields: len(Children) == len(Keys)+1, keys strictly
	// increasing in primary-key order.
	Keys     []schema.Value
	Children []uint32

	// Leaf fields. NextLeaf 0 means no next leaf - page 0 is always
	// the meta page, so it can never be a leaf's successor.
	NextLeaf uint32
	// Rows in ascending primary-key order.
	Rows []schema.Row
}

// NewMeta returns a meta page pointing at the given root.
func NewMeta(rootPage uint32) Page {
	return Page{Kind: KindMeta, LayoutVersion: LayoutVersion, RootPage: rootPage}
}

// Serialize converts a page to its exact 8192-byte on-disk form.
func Serialize(page Page) ([]byte, error) {
	blob := make([]byte, PageSize)
	switch page.Kind {
	case KindMeta:
		position := codec.PutUint8(blob, 0, markerMeta)
		position = codec.PutUint8(blob, position, page.LayoutVersion)
		codec.PutUint32(blob, position, page.RootPage)

	case KindNode:
		arity := len(page.Children)
		if arity < 2 {
			return nil, fmt.Errorf("a B+ tree node must have at least 2 children, found %d", arity)
		}
		if len(page.Keys) != arity-1 {
			return nil, fmt.Errorf(
				"a B+ tree node with %d children must have %d keys, found %d",
				arity, arity-1, len(page.Keys),
			)
		}
		size := 3 + 4*arity
		for _, key := range page.Keys {
			size += codec.ValueSize(key)
		}
		if size > PageSize {
			return nil, ErrPageOverflow
		}
		position := codec.PutUint8(blob, 0, markerNode)
		position = codec.PutUint16(blob, position, uint16(arity))
		for _, key := range page.Keys {
			position = codec.PutValue(blob, position, key)
		}
		for _, child := range page.Children {
			position = codec.PutUint32(blob, position, child)
		}

	case KindLeaf:
		if LeafSize(page.Rows) > PageSize {
			return nil, ErrPageOverflow
		}
		position := codec.PutUint8(blob, 0, markerLeaf)
		position = codec.PutUint32(blob, position, page.NextLeaf)
		position = codec.PutUint16(blob, position, uint16(len(page.Rows)))
		// Slots are written front to back, row bodies back to front.
		positionBack := PageSize
		for _, row := range page.Rows {
			positionBack = codec.PutRowBack(blob, positionBack, row)
			position = codec.PutUint16(blob, position, uint16(positionBack))
		}

	default:
		return nil, fmt.Errorf("cannot serialize page of kind %s", page.Kind)
	}
	return blob, nil
}

// Decode interprets one page using the table definition as the schema
// assumption for keys and rows. The blob must hold at least one page.
func Decode(blob []byte, table *schema.TableDefinition) (Page, error) {
	if len(blob) < PageSize {
		return Page{}, &codec.DecodeError{
			Message: fmt.Sprintf("expected a full %d-byte page, found %d bytes", PageSize, len(blob)),
		}
	}
	switch blob[0] {
	case markerMeta:
		layoutVersion, rest, err := codec.DecodeUint8(blob[1:])
		if err != nil {
			return Page{}, err
		}
		rootPage, _, err := codec.DecodeUint32(rest)
		if err != nil {
			return Page{}, err
		}
		return Page{Kind: KindMeta, LayoutVersion: layoutVersion, RootPage: rootPage}, nil

	case markerNode:
		arity16, rest, err := codec.DecodeUint16(blob[1:])
		if err != nil {
			return Page{}, err
		}
		arity := int(arity16)
		if arity < 2 {
			return Page{}, &codec.DecodeError{
				Message: fmt.Sprintf("a B+ tree node must have at least 2 children, found %d", arity),
			}
		}
		keyType := table.PrimaryKey().DataType.Raw
		keys := make([]schema.Value, 0, arity-1)
		for i := 0; i < arity-1; i++ {
			var key schema.Value
			key, rest, err = codec.DecodeValue(rest, keyType)
			if err != nil {
				return Page{}, err
			}
			keys = append(keys, key)
		}
		children := make([]uint32, 0, arity)
		for i := 0; i < arity; i++ {
			var child uint32
			child, rest, err = codec.DecodeUint32(rest)
			if err != nil {
				return Page{}, err
			}
			children = append(children, child)
		}
		return Page{Kind: KindNode, Keys: keys, Children: children}, nil

	case markerLeaf:
		nextLeaf, rest, err := codec.DecodeUint32(blob[1:])
		if err != nil {
			return Page{}, err
		}
		rowCount, rest, err := codec.DecodeUint16(rest)
		if err != nil {
			return Page{}, err
		}
		dataTypes := table.DataTypes()
		rows := make([]schema.Row, 0, rowCount)
		for i := 0; i < int(rowCount); i++ {
			var rowOffset uint16
			rowOffset, rest, err = codec.DecodeUint16(rest)
			if err != nil {
				return Page{}, err
			}
			if int(rowOffset) <= leafHeaderSize-1 || int(rowOffset) >= PageSize {
				return Page{}, &codec.DecodeError{
					Message: fmt.Sprintf(
						"row offset is %d, outside the valid range %d..%d of leaf metadata and page bounds",
						rowOffset, leafHeaderSize, PageSize-1,
					),
				}
			}
			row, _, err := codec.DecodeRow(blob[rowOffset:PageSize], dataTypes)
			if err != nil {
				return Page{}, err
			}
			rows = append(rows, row)
		}
		return Page{Kind: KindLeaf, NextLeaf: nextLeaf, Rows: rows}, nil

	default:
		return Page{}, &codec.DecodeError{
			Message: fmt.Sprintf(
				"invalid page type marker byte %#04x - recognized values are: 0x00, 0x20, 0x21",
				blob[0],
			),
		}
	}
}

// LeafSize is the number of page bytes a leaf with the given rows
// occupies: the header, one slot per row, and the row bodies.
func LeafSize(rows []schema.Row) int {
	size := leafHeaderSize + 2*len(rows)
	for _, row := range rows {
		size += codec.RowSize(row)
	}
	return size
}

// LeafHasRoomFor reports whether one more row fits in a leaf that
// already holds rows.
func LeafHasRoomFor(rows []schema.Row, row schema.Row) bool {
	return LeafSize(rows)+2+codec.RowSize(row) <= PageSize
}

// NodeSize is the number of page bytes a node with the given keys and
// child count occupies.
func NodeSize(keys []schema.Value, childCount int) int {
	size := 3 + 4*childCount
	for _, key := range keys {
		size += codec.ValueSize(key)
	}
	return size
}

// ConstructBlankTable returns the initial contents of a table data
// file: a meta page pointing at page 1 as the root, followed by an
// empty leaf with no successor.
func ConstructBlankTable() []byte {
	blob := make([]byte, 0, PageSize*2)
	meta, err := Serialize(NewMeta(1))
	if err != nil {
		panic(err)
	}
	leaf, err := Serialize(Page{Kind: KindLeaf})
	if err != nil {
		panic(err)
	}
	blob = append(blob, meta...)
	blob = append(blob, leaf...)
	return blob
}
