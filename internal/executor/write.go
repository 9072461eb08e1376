package executor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/emdrive/emdrive/internal/logging"
	"github.com/emdrive/emdrive/internal/schema"
	"github.com/emdrive/emdrive/internal/sql"
	"github.com/emdrive/emdrive/internal/storage/codec"
	"github.com/emdrive/emdrive/internal/storage/paging"
	"github.com/emdrive/emdrive/internal/storage/system"
)

func (e *Executor) createBlankTableFile(schemaName, tableName string) error {
	return e.store.CreateTableFile(schemaName, tableName, paging.ConstructBlankTable())
}

// executeCreateTable materializes a new user table: a blank data
// file, one row in system.tables, one row per column in
// system.columns, and an entry in the in-memory catalog.
func (e *Executor) executeCreateTable(statement *schema.CreateTableStatement) (*QueryResult, error) {
	name := statement.Table.Name
	if _, _, err := e.lookupTable(name); err == nil {
		if statement.IfNotExists {
			return &QueryResult{}, nil
		}
		return nil, &sql.ValidationError{
			Message: fmt.Sprintf("Table `%s` already exists.", name),
		}
	}

	// A data file left over from a previous run keeps its rows and its
	// catalog entries; the definition only needs reinstalling in
	// memory.
	if !e.store.Exists(system.DefaultSchemaName, name) {
		if err := e.createBlankTableFile(system.DefaultSchemaName, name); err != nil {
			return nil, err
		}

		tableID := uuid.New()
		tablesDefinition := system.Tables()
		tablesTree := e.tree(system.SchemaName, &tablesDefinition)
		err := tablesTree.Insert(schema.Row{
			schema.Direct(schema.NewUUID(tableID)),
			schema.Direct(schema.NewString(name)),
		})
		if err != nil {
			return nil, asRequestError(err)
		}

		columnsDefinition := system.Columns()
		columnsTree := e.tree(system.SchemaName, &columnsDefinition)
		for _, column := range statement.Table.Columns {
			err := columnsTree.Insert(schema.Row{
				schema.Direct(schema.NewUUID(uuid.New())),
				schema.Direct(schema.NewString(tableID.String())),
				schema.Direct(schema.NewString(column.DataType.Raw.String())),
				schema.Direct(schema.NewBool(column.DataType.Nullable)),
			})
			if err != nil {
				return nil, asRequestError(err)
			}
		}
	}

	installed := statement.Table
	e.catalog = append(e.catalog, &installed)
	logging.Info("created table", "table", name, "columns", len(installed.Columns))
	return &QueryResult{}, nil
}

// executeInsert aligns each VALUES tuple with the table definition,
// fills omitted columns from their defaults, checks assignability,
// and inserts the rows one by one.
func (e *Executor) executeInsert(statement *schema.InsertStatement) (*QueryResult, error) {
	schemaName, table, err := e.lookupTable(statement.TableName)
	if err != nil {
		return nil, err
	}
	for _, name := range statement.ColumnNames {
		if table.ColumnIndex(name) < 0 {
			return nil, &sql.ValidationError{
				Message: fmt.Sprintf(
					"Table `%s` has no column `%s`.", table.Name, name,
				),
			}
		}
	}

	tree := e.tree(schemaName, table)
	for _, tuple := range statement.Values {
		row, err := e.buildRow(table, statement.ColumnNames, tuple)
		if err != nil {
			return nil, err
		}
		if err := tree.Insert(row); err != nil {
			return nil, asRequestError(err)
		}
	}
	logging.Debug("inserted rows", "table", table.Name, "count", len(statement.Values))
	return &QueryResult{}, nil
}

// buildRow produces a full row in column order from a named tuple.
func (e *Executor) buildRow(
	table *schema.TableDefinition, columnNames []string, tuple schema.Row,
) (schema.Row, error) {
	row := make(schema.Row, len(table.Columns))
	filled := make([]bool, len(table.Columns))
	for position, name := range columnNames {
		index := table.ColumnIndex(name)
		instance, err := coerceInstance(tuple[position], &table.Columns[index])
		if err != nil {
			return nil, err
		}
		row[index] = instance
		filled[index] = true
	}
	for index := range table.Columns {
		if filled[index] {
			continue
		}
		column := &table.Columns[index]
		instance, err := e.defaultInstance(table, column, row, filled)
		if err != nil {
			return nil, err
		}
		row[index] = instance
	}
	return row, nil
}

// defaultInstance produces the value of a column an INSERT omitted.
func (e *Executor) defaultInstance(
	table *schema.TableDefinition,
	column *schema.ColumnDefinition,
	row schema.Row,
	filled []bool,
) (schema.Instance, error) {
	switch definition := column.Default.(type) {
	case schema.ConstDefinition:
		return coerceInstance(definition.Value, column)
	case schema.FunctionCall:
		value := definition.Fn.Call()
		return coerceInstance(schema.Direct(value), column)
	case schema.IdentifierRef:
		index := table.ColumnIndex(definition.Name)
		if index < 0 || !filled[index] {
			return schema.Instance{}, &sql.ValidationError{
				Message: fmt.Sprintf(
					"Default for column `%s` refers to column `%s`, which has no value in this INSERT.",
					column.Name, definition.Name,
				),
			}
		}
		return coerceInstance(row[index], column)
	case nil:
		if column.DataType.Nullable {
			return schema.Null(), nil
		}
		return schema.Instance{}, &sql.ValidationError{
			Message: fmt.Sprintf(
				"Column `%s` is not nullable and has no default, so it requires a value.",
				column.Name,
			),
		}
	default:
		return schema.Instance{}, fmt.Errorf("unknown default definition %T", column.Default)
	}
}

// coerceInstance checks that a parsed value is assignable to the
// column and normalizes its type. Integer literals arrive as UINT32
// and widen or range-check to the column's width; numbers assign to
// TIMESTAMP as epoch seconds; strings assign to UUID by parsing the
// canonical form.
func coerceInstance(instance schema.Instance, column *schema.ColumnDefinition) (schema.Instance, error) {
	if instance.Null {
		if !column.DataType.Nullable {
			return schema.Instance{}, &sql.ValidationError{
				Message: fmt.Sprintf("Column `%s` is not nullable.", column.Name),
			}
		}
		return schema.Null(), nil
	}
	value, err := coerceValue(instance.Value, column)
	if err != nil {
		return schema.Instance{}, err
	}
	if column.DataType.Nullable {
		return schema.NullableValue(value), nil
	}
	return schema.Direct(value), nil
}

func coerceValue(value schema.Value, column *schema.ColumnDefinition) (schema.Value, error) {
	target := column.DataType.Raw
	if value.Kind == target {
		if target == schema.TypeString && len(value.S) > codec.MaxStringLen {
			return schema.Value{}, &sql.ValidationError{
				Message: fmt.Sprintf(
					"String value for column `%s` is %d bytes long, over the %d-byte maximum.",
					column.Name, len(value.S), codec.MaxStringLen,
				),
			}
		}
		return value, nil
	}

	mismatch := func() error {
		return &sql.ValidationError{
			Message: fmt.Sprintf(
				"Value of type %s is not assignable to column `%s` of type %s.",
				value.Kind, column.Name, target,
			),
		}
	}

	// Numeric literals default to UINT32 in the parser and adapt to
	// the column here.
	if value.Kind >= schema.TypeUInt8 && value.Kind <= schema.TypeUInt64 {
		switch target {
		case schema.TypeUInt8:
			if value.U64 > 0xff {
				return schema.Value{}, rangeError(value.U64, column)
			}
			return schema.NewUInt8(uint8(value.U64)), nil
		case schema.TypeUInt16:
			if value.U64 > 0xffff {
				return schema.Value{}, rangeError(value.U64, column)
			}
			return schema.NewUInt16(uint16(value.U64)), nil
		case schema.TypeUInt32:
			if value.U64 > 0xffffffff {
				return schema.Value{}, rangeError(value.U64, column)
			}
			return schema.NewUInt32(uint32(value.U64)), nil
		case schema.TypeUInt64:
			return schema.NewUInt64(value.U64), nil
		case schema.TypeUInt128:
			return schema.NewUInt128(schema.Uint128From64(value.U64)), nil
		case schema.TypeTimestamp:
			return schema.NewTimestamp(int64(value.U64)), nil
		case schema.TypeBool:
			// 0 and 1 are the only boolean literals the grammar has.
			if value.U64 > 1 {
				return schema.Value{}, rangeError(value.U64, column)
			}
			return schema.NewBool(value.U64 == 1), nil
		}
		return schema.Value{}, mismatch()
	}

	if value.Kind == schema.TypeString {
		switch target {
		case schema.TypeUUID:
			parsed, err := uuid.Parse(value.S)
			if err != nil {
				return schema.Value{}, &sql.ValidationError{
					Message: fmt.Sprintf(
						"`%s` is not a valid UUID for column `%s`.", value.S, column.Name,
					),
				}
			}
			return schema.NewUUID(parsed), nil
		case schema.TypeUInt128:
			parsed, err := schema.ParseUint128(value.S)
			if err != nil {
				return schema.Value{}, &sql.ValidationError{Message: err.Error()}
			}
			return schema.NewUInt128(parsed), nil
		}
		return schema.Value{}, mismatch()
	}

	return schema.Value{}, mismatch()
}

func rangeError(v uint64, column *schema.ColumnDefinition) error {
	return &sql.ValidationError{
		Message: fmt.Sprintf(
			"Value %d is out of range for column `%s` of type %s.",
			v, column.Name, column.DataType.Raw,
		),
	}
}
