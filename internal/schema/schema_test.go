package schema

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataTypeRaw(t *testing.T) {
	tests := []struct {
		input string
		want  DataTypeRaw
	}{
		{"uint8", TypeUInt8},
		{"UINT64", TypeUInt64},
		{"Uint128", TypeUInt128},
		{"bool", TypeBool},
		{"TIMESTAMP", TypeTimestamp},
		{"uuid", TypeUUID},
		{"String", TypeString},
	}
	for _, tt := range tests {
		got, err := ParseDataTypeRaw(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseDataTypeRaw("varchar")
	assert.EqualError(t, err, "`varchar` does not refer to a supported type")
}

func TestUint128RoundTrip(t *testing.T) {
	values := []Uint128{
		{},
		{Lo: 1},
		{Lo: 9798799999999},
		{Hi: 1, Lo: 0},
		{Hi: ^uint64(0), Lo: ^uint64(0)},
	}
	for _, v := range values {
		assert.Equal(t, v, Uint128FromBytes(v.Bytes()))
	}
}

func TestUint128String(t *testing.T) {
	assert.Equal(t, "0", Uint128{}.String())
	assert.Equal(t, "340282366920938463463374607431768211455",
		Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}.String())
	assert.Equal(t, "18446744073709551616", Uint128{Hi: 1}.String())
}

func TestParseUint128(t *testing.T) {
	v, err := ParseUint128("18446744073709551616")
	require.NoError(t, err)
	assert.Equal(t, Uint128{Hi: 1}, v)

	_, err = ParseUint128("-1")
	assert.Error(t, err)
	_, err = ParseUint128("not a number")
	assert.Error(t, err)
	_, err = ParseUint128("340282366920938463463374607431768211456") // 2^128
	assert.Error(t, err)
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, CompareValues(NewUInt32(1), NewUInt32(2)))
	assert.Equal(t, 0, CompareValues(NewUInt32(7), NewUInt32(7)))
	assert.Equal(t, 1, CompareValues(NewUInt64(9), NewUInt64(3)))
	assert.Equal(t, -1, CompareValues(NewTimestamp(-5), NewTimestamp(5)))
	assert.Equal(t, -1, CompareValues(NewString("abc"), NewString("abd")))
	assert.Equal(t, 1, CompareValues(
		NewUInt128(Uint128{Hi: 1}), NewUInt128(Uint128{Lo: ^uint64(0)}),
	))

	low := NewUUID(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	high := NewUUID(uuid.MustParse("10000000-0000-0000-0000-000000000000"))
	assert.Equal(t, -1, CompareValues(low, high))
	assert.Equal(t, 0, CompareValues(low, low))

	assert.Panics(t, func() { CompareValues(NewUInt32(1), NewString("1")) })
}

func TestTableDefinitionValidate(t *testing.T) {
	valid := TableDefinition{
		Name: "test",
		Columns: []ColumnDefinition{
			{Name: "id", DataType: DataType{Raw: TypeUUID}, PrimaryKey: true},
			{Name: "name", DataType: DataType{Raw: TypeString}},
		},
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, 0, valid.PrimaryKeyIndex())
	assert.Equal(t, 1, valid.ColumnIndex("name"))
	assert.Equal(t, -1, valid.ColumnIndex("missing"))

	noName := TableDefinition{Columns: valid.Columns}
	assert.EqualError(t, noName.Validate(), "a table must have a name")

	noColumns := TableDefinition{Name: "test"}
	assert.EqualError(t, noColumns.Validate(), "a table must have at least one column")

	noPrimaryKey := TableDefinition{
		Name: "t",
		Columns: []ColumnDefinition{
			{Name: "a", DataType: DataType{Raw: TypeUInt8}},
			{Name: "b", DataType: DataType{Raw: TypeUInt8}},
		},
	}
	assert.EqualError(t, noPrimaryKey.Validate(),
		"a table must have exactly 1 PRIMARY KEY column, not 0")

	twoPrimaryKeys := TableDefinition{
		Name: "t",
		Columns: []ColumnDefinition{
			{Name: "a", DataType: DataType{Raw: TypeUInt8}, PrimaryKey: true},
			{Name: "b", DataType: DataType{Raw: TypeUInt8}, PrimaryKey: true},
		},
	}
	assert.EqualError(t, twoPrimaryKeys.Validate(),
		"a table must have exactly 1 PRIMARY KEY column, not 2")

	duplicateNames := TableDefinition{
		Name: "t",
		Columns: []ColumnDefinition{
			{Name: "a", DataType: DataType{Raw: TypeUInt8}, PrimaryKey: true},
			{Name: "a", DataType: DataType{Raw: TypeUInt8}},
		},
	}
	assert.EqualError(t, duplicateNames.Validate(),
		"there is more than one column with name `a` in table definition")

	unnamedColumn := TableDefinition{
		Name: "t",
		Columns: []ColumnDefinition{
			{Name: "a", DataType: DataType{Raw: TypeUInt8}, PrimaryKey: true},
			{Name: "", DataType: DataType{Raw: TypeUInt8}},
		},
	}
	assert.EqualError(t, unnamedColumn.Validate(),
		"problem at column 2: a column must have a name")
}

func TestFunctions(t *testing.T) {
	now, err := ParseFunction("NOW")
	require.NoError(t, err)
	assert.Equal(t, FunctionNow, now)
	ulidFn, err := ParseFunction("ulid")
	require.NoError(t, err)
	assert.Equal(t, FunctionUlid, ulidFn)
	_, err = ParseFunction("rand")
	assert.Error(t, err)

	nowValue := FunctionNow.Call()
	assert.Equal(t, TypeTimestamp, nowValue.Kind)
	assert.NotZero(t, nowValue.TS)

	first := FunctionUlid.Call()
	second := FunctionUlid.Call()
	assert.Equal(t, TypeUUID, first.Kind)
	assert.NotEqual(t, first.UUID, second.UUID)
}

func TestInsertStatementValidate(t *testing.T) {
	valid := InsertStatement{
		TableName:   "xyz",
		ColumnNames: []string{"foo", "bar"},
		Values: []Row{
			{Direct(NewUInt32(1815)), Direct(NewString("Waterloo"))},
		},
	}
	require.NoError(t, valid.Validate())

	mismatched := InsertStatement{
		TableName:   "xyz",
		ColumnNames: []string{"foo"},
		Values:      []Row{{Direct(NewUInt32(1)), Direct(NewUInt32(2))}},
	}
	assert.EqualError(t, mismatched.Validate(),
		"expected 1 values per row, instead found 2")

	duplicated := InsertStatement{
		TableName:   "xyz",
		ColumnNames: []string{"foo", "foo"},
		Values:      []Row{{Direct(NewUInt32(1)), Direct(NewUInt32(2))}},
	}
	assert.EqualError(t, duplicated.Validate(), "column `foo` is named more than once")
}
