// Package schema defines emdrive's data model: the primitive column
// types, typed values, rows, table definitions, column defaults, and
// the statement tree produced by the SQL parser.
//
// Everything in this package is plain data. Encoding values to their
// on-disk form lives in internal/storage/codec; interpreting them as
// SQL lives in internal/sql.
package schema

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// DataTypeRaw identifies one of the supported primitive column types.
type DataTypeRaw uint8

const (
	TypeUInt8 DataTypeRaw = iota
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeUInt128
	TypeBool
	TypeTimestamp
	TypeUUID
	TypeString
)

// ParseDataTypeRaw recognizes a type name case-insensitively.
func ParseDataTypeRaw(candidate string) (DataTypeRaw, error) {
	switch strings.ToLower(candidate) {
	case "uint8":
		return TypeUInt8, nil
	case "uint16":
		return TypeUInt16, nil
	case "uint32":
		return TypeUInt32, nil
	case "uint64":
		return TypeUInt64, nil
	case "uint128":
		return TypeUInt128, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "uuid":
		return TypeUUID, nil
	case "string":
		return TypeString, nil
	default:
		return 0, fmt.Errorf("`%s` does not refer to a supported type", candidate)
	}
}

// String returns the canonical upper-case SQL spelling of the type.
func (t DataTypeRaw) String() string {
	switch t {
	case TypeUInt8:
		return "UINT8"
	case TypeUInt16:
		return "UINT16"
	case TypeUInt32:
		return "UINT32"
	case TypeUInt64:
		return "UINT64"
	case TypeUInt128:
		return "UINT128"
	case TypeBool:
		return "BOOL"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeUUID:
		return "UUID"
	case TypeString:
		return "STRING"
	default:
		return fmt.Sprintf("DataTypeRaw(%d)", uint8(t))
	}
}

// DataType is a primitive type plus a nullability flag.
type DataType struct {
	Raw      DataTypeRaw
	Nullable bool
}

func (t DataType) String() string {
	if t.Nullable {
		return fmt.Sprintf("NULLABLE(%s)", t.Raw)
	}
	return t.Raw.String()
}

// Uint128 is an unsigned 128-bit integer, stored big-endian on disk.
// Go has no native 128-bit integer, so it is carried as two halves.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Uint128From64 widens a 64-bit value.
func Uint128From64(v uint64) Uint128 { return Uint128{Lo: v} }

// Uint128FromBytes reads a big-endian 16-byte representation.
func Uint128FromBytes(b [16]byte) Uint128 {
	var v Uint128
	for i := 0; i < 8; i++ {
		v.Hi = v.Hi<<8 | uint64(b[i])
		v.Lo = v.Lo<<8 | uint64(b[i+8])
	}
	return v
}

// Bytes returns the big-endian 16-byte representation.
func (v Uint128) Bytes() [16]byte {
	var b [16]byte
	hi, lo := v.Hi, v.Lo
	for i := 7; i >= 0; i-- {
		b[i] = byte(hi)
		b[i+8] = byte(lo)
		hi >>= 8
		lo >>= 8
	}
	return b
}

// Cmp compares two values, returning -1, 0 or 1.
func (v Uint128) Cmp(other Uint128) int {
	switch {
	case v.Hi < other.Hi:
		return -1
	case v.Hi > other.Hi:
		return 1
	case v.Lo < other.Lo:
		return -1
	case v.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

// String formats the value in decimal.
func (v Uint128) String() string {
	n := new(big.Int).SetUint64(v.Hi)
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(v.Lo))
	return n.String()
}

// ParseUint128 parses a decimal string.
func ParseUint128(s string) (Uint128, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return Uint128{}, fmt.Errorf("`%s` is not a valid UINT128 value", s)
	}
	var b [16]byte
	n.FillBytes(b[:])
	return Uint128FromBytes(b), nil
}

// Value is a single typed primitive value (the payload of an
// instance). Kind selects which field is meaningful:
//
//	TypeUInt8..TypeUInt64  → U64
//	TypeUInt128            → U128
//	TypeBool               → B
//	TypeTimestamp          → TS (seconds since the Unix epoch, UTC)
//	TypeUUID               → UUID
//	TypeString             → S
type Value struct {
	Kind DataTypeRaw
	U64  uint64
	U128 Uint128
	B    bool
	TS   int64
	UUID uuid.UUID
	S    string
}

func NewUInt8(v uint8) Value   { return Value{Kind: TypeUInt8, U64: uint64(v)} }
func NewUInt16(v uint16) Value { return Value{Kind: TypeUInt16, U64: uint64(v)} }
func NewUInt32(v uint32) Value { return Value{Kind: TypeUInt32, U64: uint64(v)} }
func NewUInt64(v uint64) Value { return Value{Kind: TypeUInt64, U64: v} }
func NewUInt128(v Uint128) Value {
	return Value{Kind: TypeUInt128, U128: v}
}
func NewBool(v bool) Value { return Value{Kind: TypeBool, B: v} }

// NewTimestamp wraps seconds since the Unix epoch.
func NewTimestamp(unixSeconds int64) Value {
	return Value{Kind: TypeTimestamp, TS: unixSeconds}
}
func NewUUID(v uuid.UUID) Value { return Value{Kind: TypeUUID, UUID: v} }
func NewString(v string) Value  { return Value{Kind: TypeString, S: v} }

// CompareValues totally orders two values of the same kind: numeric
// types by value, timestamps by epoch seconds, UUIDs by big-endian
// byte order, strings lexicographically by byte. Comparing values of
// different kinds panics - callers align kinds first.
func CompareValues(a, b Value) int {
	if a.Kind != b.Kind {
		panic(fmt.Sprintf("cannot compare %s against %s", a.Kind, b.Kind))
	}
	switch a.Kind {
	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64:
		switch {
		case a.U64 < b.U64:
			return -1
		case a.U64 > b.U64:
			return 1
		}
		return 0
	case TypeUInt128:
		return a.U128.Cmp(b.U128)
	case TypeBool:
		switch {
		case !a.B && b.B:
			return -1
		case a.B && !b.B:
			return 1
		}
		return 0
	case TypeTimestamp:
		switch {
		case a.TS < b.TS:
			return -1
		case a.TS > b.TS:
			return 1
		}
		return 0
	case TypeUUID:
		ab, bb := a.UUID, b.UUID
		for i := range ab {
			if ab[i] != bb[i] {
				if ab[i] < bb[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	case TypeString:
		return strings.Compare(a.S, b.S)
	default:
		panic(fmt.Sprintf("unknown value kind %d", uint8(a.Kind)))
	}
}

// Instance is a cell of a row: a direct value for a non-nullable
// column, or a present-or-NULL value for a nullable column. The
// distinction matters on disk - nullable columns carry a one-byte
// discriminator, direct ones do not.
type Instance struct {
	// Null marks SQL NULL. Only valid for nullable columns.
	Null bool
	// Nullable marks a present value stored in a nullable column.
	Nullable bool
	Value    Value
}

// Direct wraps a value for a non-nullable column.
func Direct(v Value) Instance { return Instance{Value: v} }

// NullableValue wraps a present value for a nullable column.
func NullableValue(v Value) Instance { return Instance{Nullable: true, Value: v} }

// Null is the SQL NULL instance.
func Null() Instance { return Instance{Null: true} }

// Row is an ordered vector of instances, positionally aligned with the
// owning table's column list.
type Row []Instance
