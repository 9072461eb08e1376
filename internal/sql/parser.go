package sql

import "github.com/emdrive/emdrive/internal/schema"

// ParseStatement tokenizes and parses one SQL statement, then checks
// its internal invariants. The result is ready to hand to the
// executor, which performs the catalog-dependent checks.
func ParseStatement(input string) (schema.Statement, error) {
	tokens := Tokenize(input)
	first, err := expectNextToken(tokens, "CREATE, INSERT or SELECT")
	if err != nil {
		return nil, err
	}

	var statement schema.Statement
	switch value := first.Outcome.Value.(type) {
	case KeywordToken:
		switch Keyword(value) {
		case KeywordCreate:
			second, err := expectNextToken(first.Rest, Keyword(KeywordTable).String())
			if err != nil {
				return nil, err
			}
			if second.Outcome.Value != KeywordToken(KeywordTable) {
				return nil, syntaxErrorf(second.Outcome.Line,
					"Expected %s, instead found %s.", Keyword(KeywordTable), second.Outcome)
			}
			statement, err = consumeAll(second.Rest, expectCreateTable)
			if err != nil {
				return nil, err
			}
		case KeywordInsert:
			statement, err = consumeAll(first.Rest, expectInsert)
			if err != nil {
				return nil, err
			}
		case KeywordSelect:
			statement, err = consumeAll(first.Rest, expectSelect)
			if err != nil {
				return nil, err
			}
		}
	}
	if statement == nil {
		return nil, syntaxErrorf(first.Outcome.Line,
			"Expected CREATE, INSERT or SELECT, instead found %s.", first.Outcome)
	}

	if err := statement.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return statement, nil
}

// IsReadOnly reports whether the statement only reads data, which is
// all the GET transport surface may execute.
func IsReadOnly(statement schema.Statement) bool {
	_, ok := statement.(*schema.SelectStatement)
	return ok
}
