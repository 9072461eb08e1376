package sql

import "github.com/emdrive/emdrive/internal/schema"

// expectColumnDefinition parses
// `name data_type [PRIMARY KEY] [DEFAULT data_definition]`.
func expectColumnDefinition(tokens []Token) (ExpectOk[schema.ColumnDefinition], error) {
	name, err := expectIdentifier(tokens)
	if err != nil {
		return ExpectOk[schema.ColumnDefinition]{}, err
	}
	dataType, err := expectDataType(name.Rest)
	if err != nil {
		return ExpectOk[schema.ColumnDefinition]{}, err
	}
	rest := dataType.Rest
	consumed := name.Consumed + dataType.Consumed

	primaryKey := false
	if primary, err := expectTokenValue(rest, KeywordToken(KeywordPrimary)); err == nil {
		// PRIMARY must be followed by KEY.
		key, err := expectTokenValue(primary.Rest, KeywordToken(KeywordKey))
		if err != nil {
			return ExpectOk[schema.ColumnDefinition]{}, err
		}
		primaryKey = true
		rest = key.Rest
		consumed += 2
	}

	defaultClause, err := detect(
		rest,
		func(rest []Token) (ExpectOk[struct{}], error) {
			return expectTokenValue(rest, KeywordToken(KeywordDefault))
		},
		expectDataDefinition,
	)
	if err != nil {
		return ExpectOk[schema.ColumnDefinition]{}, err
	}
	var defaultDefinition schema.DataDefinition
	if defaultClause.Outcome != nil {
		defaultDefinition = defaultClause.Outcome.payload
	}

	return ExpectOk[schema.ColumnDefinition]{
		Rest:     defaultClause.Rest,
		Consumed: consumed + defaultClause.Consumed,
		Outcome: schema.ColumnDefinition{
			Name:       name.Outcome,
			DataType:   dataType.Outcome,
			PrimaryKey: primaryKey,
			Default:    defaultDefinition,
		},
	}, nil
}

// expectTableDefinition parses `name ( column_def, column_def, ... )`.
func expectTableDefinition(tokens []Token) (ExpectOk[schema.TableDefinition], error) {
	name, err := expectIdentifier(tokens)
	if err != nil {
		return ExpectOk[schema.TableDefinition]{}, err
	}
	columns, err := expectEnclosedCommaSeparated(name.Rest, expectColumnDefinition)
	if err != nil {
		return ExpectOk[schema.TableDefinition]{}, err
	}
	return ExpectOk[schema.TableDefinition]{
		Rest:     columns.Rest,
		Consumed: name.Consumed + columns.Consumed,
		Outcome:  schema.TableDefinition{Name: name.Outcome, Columns: columns.Outcome},
	}, nil
}

// expectCreateTable parses the tokens following CREATE TABLE.
func expectCreateTable(tokens []Token) (ExpectOk[*schema.CreateTableStatement], error) {
	ifNotExists := false
	rest := tokens
	consumed := 0
	if sequence, err := expectTokenValuesSequence(tokens, []TokenValue{
		KeywordToken(KeywordIf),
		KeywordToken(KeywordNot),
		KeywordToken(KeywordExists),
	}); err == nil {
		ifNotExists = true
		rest = sequence.Rest
		consumed = sequence.Consumed
	}
	table, err := expectTableDefinition(rest)
	if err != nil {
		return ExpectOk[*schema.CreateTableStatement]{}, err
	}
	return ExpectOk[*schema.CreateTableStatement]{
		Rest:     table.Rest,
		Consumed: consumed + table.Consumed,
		Outcome: &schema.CreateTableStatement{
			Table:       table.Outcome,
			IfNotExists: ifNotExists,
		},
	}, nil
}
