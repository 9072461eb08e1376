package schema

import "fmt"

// Statement is a parsed SQL command, ready for validation and
// execution.
type Statement interface {
	// Validate checks the statement's internal invariants. Checks that
	// need the catalog (does the table exist, do the value types fit)
	// happen in the executor.
	Validate() error
	isStatement()
}

// CreateTableStatement creates a new table.
type CreateTableStatement struct {
	Table       TableDefinition
	IfNotExists bool
}

func (CreateTableStatement) isStatement() {}

func (s *CreateTableStatement) Validate() error {
	return s.Table.Validate()
}

// InsertStatement inserts one or more rows into a table. Values are
// positionally aligned with ColumnNames.
type InsertStatement struct {
	TableName   string
	ColumnNames []string
	Values      []Row
}

func (InsertStatement) isStatement() {}

func (s *InsertStatement) Validate() error {
	if s.TableName == "" {
		return fmt.Errorf("INSERT must name a table")
	}
	if len(s.ColumnNames) == 0 {
		return fmt.Errorf("INSERT must name at least one column")
	}
	seen := make(map[string]struct{}, len(s.ColumnNames))
	for _, name := range s.ColumnNames {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("column `%s` is named more than once", name)
		}
		seen[name] = struct{}{}
	}
	for _, row := range s.Values {
		if len(row) != len(s.ColumnNames) {
			return fmt.Errorf(
				"expected %d values per row, instead found %d",
				len(s.ColumnNames), len(row),
			)
		}
	}
	return nil
}

// SelectColumn is one projected column: `*` or an identifier.
type SelectColumn struct {
	All  bool
	Name string
}

// SelectStatement reads rows from a table.
type SelectStatement struct {
	Columns []SelectColumn
	Source  string
	// Where is nil when the statement has no WHERE clause.
	Where Expression
}

func (SelectStatement) isStatement() {}

func (s *SelectStatement) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("SELECT must name a source table")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("SELECT must name at least one column")
	}
	return nil
}

// Expression is a WHERE-clause expression tree.
type Expression interface {
	isExpression()
}

// Atom is a leaf expression wrapping a data definition.
type Atom struct {
	Def DataDefinition
}

// Equal compares two subexpressions for equality.
type Equal struct {
	Left  Expression
	Right Expression
}

func (Atom) isExpression()  {}
func (Equal) isExpression() {}
