package sql

import "github.com/emdrive/emdrive/internal/schema"

// expectSelectColumn parses one projected column: `*` or an
// identifier.
func expectSelectColumn(tokens []Token) (ExpectOk[schema.SelectColumn], error) {
	found, err := expectNextToken(tokens, "a SELECT column")
	if err != nil {
		return ExpectOk[schema.SelectColumn]{}, err
	}
	switch value := found.Outcome.Value.(type) {
	case ArbitraryToken:
		return ExpectOk[schema.SelectColumn]{
			Rest:     tokens[1:],
			Consumed: 1,
			Outcome:  schema.SelectColumn{Name: string(value)},
		}, nil
	case KeywordToken:
		if Keyword(value) == KeywordAsterisk {
			return ExpectOk[schema.SelectColumn]{
				Rest:     tokens[1:],
				Consumed: 1,
				Outcome:  schema.SelectColumn{All: true},
			}, nil
		}
	}
	return ExpectOk[schema.SelectColumn]{}, syntaxErrorf(found.Outcome.Line,
		"Expected a SELECT column, instead found %s.", found.Outcome)
}

// expectSelect parses the tokens following SELECT:
// `column, ... FROM table [WHERE expression]`.
func expectSelect(tokens []Token) (ExpectOk[*schema.SelectStatement], error) {
	columns, err := expectCommaSeparated(tokens, expectSelectColumn)
	if err != nil {
		return ExpectOk[*schema.SelectStatement]{}, err
	}
	from, err := expectTokenValue(columns.Rest, KeywordToken(KeywordFrom))
	if err != nil {
		return ExpectOk[*schema.SelectStatement]{}, err
	}
	tableName, err := expectIdentifier(from.Rest)
	if err != nil {
		return ExpectOk[*schema.SelectStatement]{}, err
	}
	whereClause, err := detect(
		tableName.Rest,
		func(rest []Token) (ExpectOk[struct{}], error) {
			return expectTokenValue(rest, KeywordToken(KeywordWhere))
		},
		expectExpression,
	)
	if err != nil {
		return ExpectOk[*schema.SelectStatement]{}, err
	}
	var where schema.Expression
	if whereClause.Outcome != nil {
		where = whereClause.Outcome.payload
	}
	return ExpectOk[*schema.SelectStatement]{
		Rest: whereClause.Rest,
		Consumed: 1 + // account for FROM
			columns.Consumed + tableName.Consumed + whereClause.Consumed,
		Outcome: &schema.SelectStatement{
			Columns: columns.Outcome,
			Source:  tableName.Outcome,
			Where:   where,
		},
	}, nil
}
