// Package system declares the built-in catalog tables that describe
// user schemas. They live in the reserved `system` schema and are
// ordinary B+ tree tables in every other respect.
package system

import "github.com/emdrive/emdrive/internal/schema"

// SchemaName is the reserved schema holding the catalog.
const SchemaName = "system"

// DefaultSchemaName is the schema user tables are created in.
const DefaultSchemaName = "public"

// Tables returns the definition of `system.tables`: one row per user
// table.
func Tables() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "tables",
		Columns: []schema.ColumnDefinition{
			{
				Name:       "id",
				DataType:   schema.DataType{Raw: schema.TypeUUID},
				PrimaryKey: true,
			},
			{
				Name:     "table_name",
				DataType: schema.DataType{Raw: schema.TypeString},
			},
		},
	}
}

// Columns returns the definition of `system.columns`: one row per
// column of every user table.
func Columns() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "columns",
		Columns: []schema.ColumnDefinition{
			{
				Name:       "id",
				DataType:   schema.DataType{Raw: schema.TypeUUID},
				PrimaryKey: true,
			},
			{
				Name:     "table_id",
				DataType: schema.DataType{Raw: schema.TypeString},
			},
			{
				Name:     "raw_type",
				DataType: schema.DataType{Raw: schema.TypeString},
			},
			{
				Name:     "is_nullable",
				DataType: schema.DataType{Raw: schema.TypeBool},
			},
		},
	}
}

// All returns every system table definition.
func All() []schema.TableDefinition {
	return []schema.TableDefinition{Tables(), Columns()}
}
