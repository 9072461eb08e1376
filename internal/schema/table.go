package schema

import "fmt"

// DataDefinition describes how a value comes to be: a constant, a
// function call, or a reference to another column by name.
type DataDefinition interface {
	isDataDefinition()
}

// ConstDefinition is a constant value.
type ConstDefinition struct {
	Value Instance
}

// FunctionCall is a zero-argument function invocation, evaluated at
// insertion time.
type FunctionCall struct {
	Fn Function
}

// IdentifierRef names a column whose value should be used.
type IdentifierRef struct {
	Name string
}

func (ConstDefinition) isDataDefinition() {}
func (FunctionCall) isDataDefinition()    {}
func (IdentifierRef) isDataDefinition()   {}

// ColumnDefinition describes one column of a table.
type ColumnDefinition struct {
	Name       string
	DataType   DataType
	PrimaryKey bool
	// Default supplies the value for the column when an INSERT omits
	// it. Nil means no default.
	Default DataDefinition
}

// Validate makes sure this column definition actually makes sense.
func (c *ColumnDefinition) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("a column must have a name")
	}
	return nil
}

// TableDefinition describes a table: its name and ordered columns.
// Column order is the on-disk row order. Definitions are immutable
// once installed in the catalog.
type TableDefinition struct {
	Name    string
	Columns []ColumnDefinition
}

// PrimaryKeyIndex returns the position of the primary key column.
// Valid table definitions have exactly one; when there are several,
// the first is returned, and when there is none, this panics.
func (t *TableDefinition) PrimaryKeyIndex() int {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return i
		}
	}
	panic(fmt.Sprintf("table `%s` has no PRIMARY KEY column", t.Name))
}

// PrimaryKey returns the primary key column definition.
func (t *TableDefinition) PrimaryKey() *ColumnDefinition {
	return &t.Columns[t.PrimaryKeyIndex()]
}

// ColumnIndex returns the position of the named column, or -1.
func (t *TableDefinition) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// DataTypes returns the column data types in column order, which is
// the decoding assumption for rows of this table.
func (t *TableDefinition) DataTypes() []DataType {
	types := make([]DataType, len(t.Columns))
	for i := range t.Columns {
		types[i] = t.Columns[i].DataType
	}
	return types
}

// Validate checks the table-level invariants: a non-empty name, at
// least one column, unique column names, and exactly one PRIMARY KEY.
func (t *TableDefinition) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("a table must have a name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("a table must have at least one column")
	}
	primaryKeyCount := 0
	seen := make(map[string]struct{}, len(t.Columns))
	for i := range t.Columns {
		column := &t.Columns[i]
		if _, ok := seen[column.Name]; ok {
			return fmt.Errorf(
				"there is more than one column with name `%s` in table definition", column.Name,
			)
		}
		seen[column.Name] = struct{}{}
		if column.PrimaryKey {
			primaryKeyCount++
		}
		if err := column.Validate(); err != nil {
			return fmt.Errorf("problem at column %d: %w", i+1, err)
		}
	}
	if primaryKeyCount != 1 {
		return fmt.Errorf(
			"a table must have exactly 1 PRIMARY KEY column, not %d", primaryKeyCount,
		)
	}
	return nil
}
