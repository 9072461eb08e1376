package executor

import (
	"fmt"

	"github.com/emdrive/emdrive/internal/schema"
	"github.com/emdrive/emdrive/internal/sql"
)

// executeSelect scans the source table, filters by the WHERE clause,
// and projects onto the requested columns. `*` expands to every
// column in definition order.
func (e *Executor) executeSelect(statement *schema.SelectStatement) (*QueryResult, error) {
	schemaName, table, err := e.lookupTable(statement.Source)
	if err != nil {
		return nil, err
	}

	// Resolve the projection up front so bad column names fail before
	// any I/O happens.
	var columnNames []string
	var columnIndexes []int
	for _, column := range statement.Columns {
		if column.All {
			for index := range table.Columns {
				columnNames = append(columnNames, table.Columns[index].Name)
				columnIndexes = append(columnIndexes, index)
			}
			continue
		}
		index := table.ColumnIndex(column.Name)
		if index < 0 {
			return nil, &sql.ValidationError{
				Message: fmt.Sprintf(
					"Table `%s` has no column `%s`.", table.Name, column.Name,
				),
			}
		}
		columnNames = append(columnNames, column.Name)
		columnIndexes = append(columnIndexes, index)
	}

	var rows []schema.Row
	var filterErr error
	scanErr := e.tree(schemaName, table).ScanAll(func(row schema.Row) bool {
		if statement.Where != nil {
			matched, err := rowMatches(statement.Where, table, row)
			if err != nil {
				filterErr = err
				return false
			}
			if !matched {
				return true
			}
		}
		projected := make(schema.Row, len(columnIndexes))
		for position, index := range columnIndexes {
			projected[position] = row[index]
		}
		rows = append(rows, projected)
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if filterErr != nil {
		return nil, filterErr
	}
	return &QueryResult{ColumnNames: columnNames, Rows: rows}, nil
}

// rowMatches evaluates a WHERE expression against one row.
func rowMatches(expression schema.Expression, table *schema.TableDefinition, row schema.Row) (bool, error) {
	switch expr := expression.(type) {
	case schema.Equal:
		left, err := evaluateAtom(expr.Left, table, row)
		if err != nil {
			return false, err
		}
		right, err := evaluateAtom(expr.Right, table, row)
		if err != nil {
			return false, err
		}
		// NULL equals nothing, not even NULL.
		if left.Null || right.Null {
			return false, nil
		}
		return valuesEqual(left.Value, right.Value), nil
	case schema.Atom:
		instance, err := evaluateAtom(expr, table, row)
		if err != nil {
			return false, err
		}
		return !instance.Null &&
			instance.Value.Kind == schema.TypeBool && instance.Value.B, nil
	default:
		return false, fmt.Errorf("unsupported expression type %T", expression)
	}
}

// valuesEqual compares two values, letting integer literals (which
// parse as UINT32) match columns of any integer width.
func valuesEqual(a, b schema.Value) bool {
	if a.Kind == b.Kind {
		return schema.CompareValues(a, b) == 0
	}
	if isInteger(a.Kind) && isInteger(b.Kind) {
		return widen(a).Cmp(widen(b)) == 0
	}
	return false
}

func isInteger(kind schema.DataTypeRaw) bool {
	return kind >= schema.TypeUInt8 && kind <= schema.TypeUInt128
}

func widen(v schema.Value) schema.Uint128 {
	if v.Kind == schema.TypeUInt128 {
		return v.U128
	}
	return schema.Uint128From64(v.U64)
}

func evaluateAtom(expression schema.Expression, table *schema.TableDefinition, row schema.Row) (schema.Instance, error) {
	atom, ok := expression.(schema.Atom)
	if !ok {
		return schema.Instance{}, fmt.Errorf("nested expressions are not supported in WHERE")
	}
	switch definition := atom.Def.(type) {
	case schema.ConstDefinition:
		return definition.Value, nil
	case schema.FunctionCall:
		return schema.Direct(definition.Fn.Call()), nil
	case schema.IdentifierRef:
		index := table.ColumnIndex(definition.Name)
		if index < 0 {
			return schema.Instance{}, &sql.ValidationError{
				Message: fmt.Sprintf(
					"Table `%s` has no column `%s`.", table.Name, definition.Name,
				),
			}
		}
		return row[index], nil
	default:
		return schema.Instance{}, fmt.Errorf("unknown data definition %T", atom.Def)
	}
}
