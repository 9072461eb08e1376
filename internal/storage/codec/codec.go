// Package codec converts between typed values and their on-disk byte
// form. Everything emdrive stores on disk is big-endian: fixed-size
// where the type allows, length-prefixed where it does not.
//
// There are two decoding entry points. Self-describing primitives
// (integers, bool, timestamp, UUID, string) decode from bytes alone.
// Composites (Value, Instance, Row) are ambiguous on disk and decode
// only with a schema assumption supplied out of band.
package codec

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/emdrive/emdrive/internal/schema"
)

// MaxStringLen is the longest encodable string in bytes, bounded by
// the 16-bit length prefix.
const MaxStringLen = 1<<16 - 1

// DecodeError reports bytes that cannot be interpreted: a short
// buffer, invalid UTF-8, or an unrecognized discriminator.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string {
	return "DecodeError: " + e.Message
}

func decodeErrorf(format string, args ...any) *DecodeError {
	return &DecodeError{Message: fmt.Sprintf(format, args...)}
}

// ── Self-describing primitives ─────────────────────────────────────────────
//
// Each PutX writes the value at position and returns the position just
// past it. Each DecodeX consumes from the front of the blob and
// returns the remainder.

func PutUint8(blob []byte, position int, v uint8) int {
	blob[position] = v
	return position + 1
}

func DecodeUint8(blob []byte) (uint8, []byte, error) {
	if len(blob) < 1 {
		return 0, nil, decodeErrorf("expected 1 byte for UINT8, found %d", len(blob))
	}
	return blob[0], blob[1:], nil
}

func PutUint16(blob []byte, position int, v uint16) int {
	binary.BigEndian.PutUint16(blob[position:], v)
	return position + 2
}

func DecodeUint16(blob []byte) (uint16, []byte, error) {
	if len(blob) < 2 {
		return 0, nil, decodeErrorf("expected 2 bytes for UINT16, found %d", len(blob))
	}
	return binary.BigEndian.Uint16(blob), blob[2:], nil
}

func PutUint32(blob []byte, position int, v uint32) int {
	binary.BigEndian.PutUint32(blob[position:], v)
	return position + 4
}

func DecodeUint32(blob []byte) (uint32, []byte, error) {
	if len(blob) < 4 {
		return 0, nil, decodeErrorf("expected 4 bytes for UINT32, found %d", len(blob))
	}
	return binary.BigEndian.Uint32(blob), blob[4:], nil
}

func PutUint64(blob []byte, position int, v uint64) int {
	binary.BigEndian.PutUint64(blob[position:], v)
	return position + 8
}

func DecodeUint64(blob []byte) (uint64, []byte, error) {
	if len(blob) < 8 {
		return 0, nil, decodeErrorf("expected 8 bytes for UINT64, found %d", len(blob))
	}
	return binary.BigEndian.Uint64(blob), blob[8:], nil
}

func PutUint128(blob []byte, position int, v schema.Uint128) int {
	b := v.Bytes()
	copy(blob[position:], b[:])
	return position + 16
}

func DecodeUint128(blob []byte) (schema.Uint128, []byte, error) {
	if len(blob) < 16 {
		return schema.Uint128{}, nil, decodeErrorf("expected 16 bytes for UINT128, found %d", len(blob))
	}
	var b [16]byte
	copy(b[:], blob)
	return schema.Uint128FromBytes(b), blob[16:], nil
}

// PutBool writes 1 for true and 0 for false.
func PutBool(blob []byte, position int, v bool) int {
	if v {
		blob[position] = 1
	} else {
		blob[position] = 0
	}
	return position + 1
}

// DecodeBool treats any non-zero byte as true.
func DecodeBool(blob []byte) (bool, []byte, error) {
	if len(blob) < 1 {
		return false, nil, decodeErrorf("expected 1 byte for BOOL, found %d", len(blob))
	}
	return blob[0] != 0, blob[1:], nil
}

// PutTimestamp writes signed 64-bit seconds since the Unix epoch.
func PutTimestamp(blob []byte, position int, unixSeconds int64) int {
	binary.BigEndian.PutUint64(blob[position:], uint64(unixSeconds))
	return position + 8
}

func DecodeTimestamp(blob []byte) (int64, []byte, error) {
	if len(blob) < 8 {
		return 0, nil, decodeErrorf("expected 8 bytes for TIMESTAMP, found %d", len(blob))
	}
	return int64(binary.BigEndian.Uint64(blob)), blob[8:], nil
}

// PutUUID writes the 16 raw bytes.
func PutUUID(blob []byte, position int, v uuid.UUID) int {
	copy(blob[position:], v[:])
	return position + 16
}

func DecodeUUID(blob []byte) (uuid.UUID, []byte, error) {
	if len(blob) < 16 {
		return uuid.UUID{}, nil, decodeErrorf("expected 16 bytes for UUID, found %d", len(blob))
	}
	var v uuid.UUID
	copy(v[:], blob)
	return v, blob[16:], nil
}

// PutString writes a 16-bit big-endian length prefix followed by the
// raw UTF-8 bytes. Strings longer than MaxStringLen must be rejected
// before they reach the codec.
func PutString(blob []byte, position int, v string) int {
	position = PutUint16(blob, position, uint16(len(v)))
	copy(blob[position:], v)
	return position + len(v)
}

func DecodeString(blob []byte) (string, []byte, error) {
	length, rest, err := DecodeUint16(blob)
	if err != nil {
		return "", nil, err
	}
	if len(rest) < int(length) {
		return "", nil, decodeErrorf(
			"expected %d bytes of string data, found %d", length, len(rest),
		)
	}
	raw := rest[:length]
	if !utf8.Valid(raw) {
		return "", nil, decodeErrorf("string data is not valid UTF-8")
	}
	return string(raw), rest[length:], nil
}

// StringSize is the encoded size of a string value.
func StringSize(v string) int { return 2 + len(v) }

// ── Values (schema-assumed) ────────────────────────────────────────────────

// PutValue writes a raw value at position, returning the advanced
// position.
func PutValue(blob []byte, position int, v schema.Value) int {
	switch v.Kind {
	case schema.TypeUInt8:
		return PutUint8(blob, position, uint8(v.U64))
	case schema.TypeUInt16:
		return PutUint16(blob, position, uint16(v.U64))
	case schema.TypeUInt32:
		return PutUint32(blob, position, uint32(v.U64))
	case schema.TypeUInt64:
		return PutUint64(blob, position, v.U64)
	case schema.TypeUInt128:
		return PutUint128(blob, position, v.U128)
	case schema.TypeBool:
		return PutBool(blob, position, v.B)
	case schema.TypeTimestamp:
		return PutTimestamp(blob, position, v.TS)
	case schema.TypeUUID:
		return PutUUID(blob, position, v.UUID)
	case schema.TypeString:
		return PutString(blob, position, v.S)
	default:
		panic(fmt.Sprintf("unknown value kind %d", uint8(v.Kind)))
	}
}

// ValueSize is the exact number of bytes PutValue writes.
func ValueSize(v schema.Value) int {
	switch v.Kind {
	case schema.TypeUInt8, schema.TypeBool:
		return 1
	case schema.TypeUInt16:
		return 2
	case schema.TypeUInt32:
		return 4
	case schema.TypeUInt64, schema.TypeTimestamp:
		return 8
	case schema.TypeUInt128, schema.TypeUUID:
		return 16
	case schema.TypeString:
		return StringSize(v.S)
	default:
		panic(fmt.Sprintf("unknown value kind %d", uint8(v.Kind)))
	}
}

// DecodeValue decodes a raw value assuming the given type. This is
// the schema-assumed counterpart of the DecodeX primitives - raw
// values do not discriminate themselves on disk.
func DecodeValue(blob []byte, assumption schema.DataTypeRaw) (schema.Value, []byte, error) {
	switch assumption {
	case schema.TypeUInt8:
		v, rest, err := DecodeUint8(blob)
		return schema.NewUInt8(v), rest, err
	case schema.TypeUInt16:
		v, rest, err := DecodeUint16(blob)
		return schema.NewUInt16(v), rest, err
	case schema.TypeUInt32:
		v, rest, err := DecodeUint32(blob)
		return schema.NewUInt32(v), rest, err
	case schema.TypeUInt64:
		v, rest, err := DecodeUint64(blob)
		return schema.NewUInt64(v), rest, err
	case schema.TypeUInt128:
		v, rest, err := DecodeUint128(blob)
		return schema.NewUInt128(v), rest, err
	case schema.TypeBool:
		v, rest, err := DecodeBool(blob)
		return schema.NewBool(v), rest, err
	case schema.TypeTimestamp:
		v, rest, err := DecodeTimestamp(blob)
		return schema.NewTimestamp(v), rest, err
	case schema.TypeUUID:
		v, rest, err := DecodeUUID(blob)
		return schema.NewUUID(v), rest, err
	case schema.TypeString:
		v, rest, err := DecodeString(blob)
		return schema.NewString(v), rest, err
	default:
		return schema.Value{}, nil, decodeErrorf(
			"unknown data type %d", uint8(assumption),
		)
	}
}

// ── Instances ──────────────────────────────────────────────────────────────
//
// Instances in nullable columns carry a one-byte discriminator:
// 1 means NULL with no payload, 0 means a payload of the raw type
// follows. Non-nullable columns write no discriminator.

func PutInstance(blob []byte, position int, inst schema.Instance) int {
	switch {
	case inst.Null:
		return PutBool(blob, position, true)
	case inst.Nullable:
		position = PutBool(blob, position, false)
		return PutValue(blob, position, inst.Value)
	default:
		return PutValue(blob, position, inst.Value)
	}
}

// InstanceSize is the exact number of bytes PutInstance writes.
func InstanceSize(inst schema.Instance) int {
	switch {
	case inst.Null:
		return 1
	case inst.Nullable:
		return 1 + ValueSize(inst.Value)
	default:
		return ValueSize(inst.Value)
	}
}

// DecodeInstance decodes an instance assuming the given column type.
func DecodeInstance(blob []byte, assumption schema.DataType) (schema.Instance, []byte, error) {
	if assumption.Nullable {
		nullMarker, rest, err := DecodeBool(blob)
		if err != nil {
			return schema.Instance{}, nil, err
		}
		if nullMarker {
			return schema.Null(), rest, nil
		}
		value, rest, err := DecodeValue(rest, assumption.Raw)
		if err != nil {
			return schema.Instance{}, nil, err
		}
		return schema.NullableValue(value), rest, nil
	}
	value, rest, err := DecodeValue(blob, assumption.Raw)
	if err != nil {
		return schema.Instance{}, nil, err
	}
	return schema.Direct(value), rest, nil
}

// ── Rows ───────────────────────────────────────────────────────────────────
//
// A row is the concatenation of its instances in column order, with no
// header of its own.

func PutRow(blob []byte, position int, row schema.Row) int {
	for _, inst := range row {
		position = PutInstance(blob, position, inst)
	}
	return position
}

// PutRowBack writes the row so that it ends exactly at endPosition,
// returning the new end position (the row's first byte). B+ tree
// leaves use this to grow row bodies from the back of the page.
func PutRowBack(blob []byte, endPosition int, row schema.Row) int {
	retreated := endPosition - RowSize(row)
	PutRow(blob, retreated, row)
	return retreated
}

// RowSize is the exact number of bytes PutRow writes.
func RowSize(row schema.Row) int {
	size := 0
	for _, inst := range row {
		size += InstanceSize(inst)
	}
	return size
}

// DecodeRow decodes a row assuming the given column types.
func DecodeRow(blob []byte, assumption []schema.DataType) (schema.Row, []byte, error) {
	row := make(schema.Row, 0, len(assumption))
	for _, dataType := range assumption {
		inst, rest, err := DecodeInstance(blob, dataType)
		if err != nil {
			return nil, nil, err
		}
		row = append(row, inst)
		blob = rest
	}
	return row, blob, nil
}
