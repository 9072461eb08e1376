package sql

import "github.com/emdrive/emdrive/internal/schema"

// expectRowTuple parses one `( value, value, ... )` tuple.
func expectRowTuple(tokens []Token) (ExpectOk[schema.Row], error) {
	values, err := expectEnclosedCommaSeparated(tokens, expectDataInstance)
	if err != nil {
		return ExpectOk[schema.Row]{}, err
	}
	return ExpectOk[schema.Row]{
		Rest:     values.Rest,
		Consumed: values.Consumed,
		Outcome:  schema.Row(values.Outcome),
	}, nil
}

// expectInsert parses the tokens following INSERT:
// `INTO table ( column, ... ) VALUES ( value, ... ) [, ( value, ... )]*`.
func expectInsert(tokens []Token) (ExpectOk[*schema.InsertStatement], error) {
	into, err := expectTokenValue(tokens, KeywordToken(KeywordInto))
	if err != nil {
		return ExpectOk[*schema.InsertStatement]{}, err
	}
	tableName, err := expectIdentifier(into.Rest)
	if err != nil {
		return ExpectOk[*schema.InsertStatement]{}, err
	}
	columnNames, err := expectEnclosedCommaSeparated(tableName.Rest, expectIdentifier)
	if err != nil {
		return ExpectOk[*schema.InsertStatement]{}, err
	}
	values, err := expectTokenValue(columnNames.Rest, KeywordToken(KeywordValues))
	if err != nil {
		return ExpectOk[*schema.InsertStatement]{}, err
	}
	rows, err := expectCommaSeparated(values.Rest, expectRowTuple)
	if err != nil {
		return ExpectOk[*schema.InsertStatement]{}, err
	}
	return ExpectOk[*schema.InsertStatement]{
		Rest: rows.Rest,
		Consumed: 2 + // account for INTO and VALUES
			tableName.Consumed + columnNames.Consumed + rows.Consumed,
		Outcome: &schema.InsertStatement{
			TableName:   tableName.Outcome,
			ColumnNames: columnNames.Outcome,
			Values:      rows.Outcome,
		},
	}, nil
}
