package sql

import (
	"strconv"

	"github.com/emdrive/emdrive/internal/schema"
)

// Semantic combinators: expectations over token meaning rather than
// token shape.

// expectIdentifier consumes an arbitrary token as an identifier.
func expectIdentifier(tokens []Token) (ExpectOk[string], error) {
	found, err := expectNextToken(tokens, "an identifier")
	if err != nil {
		return ExpectOk[string]{}, err
	}
	value, ok := found.Outcome.Value.(ArbitraryToken)
	if !ok {
		return ExpectOk[string]{}, syntaxErrorf(found.Outcome.Line,
			"Expected an identifier, instead found %s.", found.Outcome)
	}
	return ExpectOk[string]{Rest: tokens[1:], Consumed: 1, Outcome: string(value)}, nil
}

// expectDataTypeRaw consumes a type token.
func expectDataTypeRaw(tokens []Token) (ExpectOk[schema.DataTypeRaw], error) {
	found, err := expectNextToken(tokens, "a data type")
	if err != nil {
		return ExpectOk[schema.DataTypeRaw]{}, err
	}
	value, ok := found.Outcome.Value.(TypeToken)
	if !ok {
		return ExpectOk[schema.DataTypeRaw]{}, syntaxErrorf(found.Outcome.Line,
			"Expected a data type, instead found %s.", found.Outcome)
	}
	return ExpectOk[schema.DataTypeRaw]{
		Rest: tokens[1:], Consumed: 1, Outcome: schema.DataTypeRaw(value),
	}, nil
}

// expectDataType consumes either a bare type or NULLABLE(type).
func expectDataType(tokens []Token) (ExpectOk[schema.DataType], error) {
	_, nullableErr := expectTokenValue(tokens, KeywordToken(KeywordNullable))
	isNullable := nullableErr == nil
	var inner ExpectOk[schema.DataTypeRaw]
	var err error
	if isNullable {
		inner, err = expectEnclosed(
			tokens[1:], expectDataTypeRaw,
			DelimiterParenthesisOpening, DelimiterParenthesisClosing,
		)
	} else {
		inner, err = expectDataTypeRaw(tokens)
	}
	if err != nil {
		return ExpectOk[schema.DataType]{}, err
	}
	consumed := inner.Consumed
	if isNullable {
		consumed++
	}
	return ExpectOk[schema.DataType]{
		Rest:     inner.Rest,
		Consumed: consumed,
		Outcome:  schema.DataType{Raw: inner.Outcome, Nullable: isNullable},
	}, nil
}

// expectDataInstance consumes a literal value: NULL, a string, or a
// number. Integer literals come out as UINT32, the default integer
// type.
func expectDataInstance(tokens []Token) (ExpectOk[schema.Instance], error) {
	found, err := expectNextToken(tokens, "a value")
	if err != nil {
		return ExpectOk[schema.Instance]{}, err
	}
	token := found.Outcome
	switch value := token.Value.(type) {
	case KeywordToken:
		if Keyword(value) == KeywordNull {
			return ExpectOk[schema.Instance]{
				Rest: found.Rest, Consumed: found.Consumed, Outcome: schema.Null(),
			}, nil
		}
	case StringToken:
		return ExpectOk[schema.Instance]{
			Rest:     found.Rest,
			Consumed: found.Consumed,
			Outcome:  schema.Direct(schema.NewString(string(value))),
		}, nil
	case ArbitraryToken:
		number, parseErr := strconv.ParseUint(string(value), 10, 32)
		if parseErr != nil {
			return ExpectOk[schema.Instance]{}, syntaxErrorf(token.Line,
				"Expected a value, instead found %s.", token)
		}
		return ExpectOk[schema.Instance]{
			Rest:     found.Rest,
			Consumed: found.Consumed,
			Outcome:  schema.Direct(schema.NewUInt32(uint32(number))),
		}, nil
	}
	return ExpectOk[schema.Instance]{}, syntaxErrorf(token.Line,
		"Expected a value, instead found %s.", token)
}

// expectFunctionCall consumes `FUNCTION()`.
func expectFunctionCall(tokens []Token) (ExpectOk[schema.Function], error) {
	found, err := expectNextToken(tokens, "a function name")
	if err != nil {
		return ExpectOk[schema.Function]{}, err
	}
	value, ok := found.Outcome.Value.(FunctionToken)
	if !ok {
		return ExpectOk[schema.Function]{}, syntaxErrorf(found.Outcome.Line,
			"Expected a function name, instead found %s.", found.Outcome)
	}
	parentheses, err := expectTokenValuesSequence(found.Rest, []TokenValue{
		DelimiterToken(DelimiterParenthesisOpening),
		DelimiterToken(DelimiterParenthesisClosing),
	})
	if err != nil {
		return ExpectOk[schema.Function]{}, err
	}
	return ExpectOk[schema.Function]{
		Rest:     parentheses.Rest,
		Consumed: found.Consumed + parentheses.Consumed,
		Outcome:  schema.Function(value),
	}, nil
}

// expectDataDefinition consumes a function call, a constant value, or
// a column identifier - the three ways a value can be defined.
func expectDataDefinition(tokens []Token) (ExpectOk[schema.DataDefinition], error) {
	if fn, err := expectFunctionCall(tokens); err == nil {
		return ExpectOk[schema.DataDefinition]{
			Rest:     fn.Rest,
			Consumed: fn.Consumed,
			Outcome:  schema.FunctionCall{Fn: fn.Outcome},
		}, nil
	}
	if inst, err := expectDataInstance(tokens); err == nil {
		return ExpectOk[schema.DataDefinition]{
			Rest:     inst.Rest,
			Consumed: inst.Consumed,
			Outcome:  schema.ConstDefinition{Value: inst.Outcome},
		}, nil
	}
	if identifier, err := expectIdentifier(tokens); err == nil {
		return ExpectOk[schema.DataDefinition]{
			Rest:     identifier.Rest,
			Consumed: identifier.Consumed,
			Outcome:  schema.IdentifierRef{Name: identifier.Outcome},
		}, nil
	}
	line := 0
	description := "end of statement"
	if len(tokens) > 0 {
		line = tokens[0].Line
		description = tokens[0].String()
	}
	return ExpectOk[schema.DataDefinition]{}, syntaxErrorf(line,
		"Expected a function call, a constant value or an identifier, instead found %s.",
		description)
}

// expectExpression consumes a data definition, optionally followed by
// `= data_definition`, producing an expression tree.
func expectExpression(tokens []Token) (ExpectOk[schema.Expression], error) {
	lhs, err := expectDataDefinition(tokens)
	if err != nil {
		return ExpectOk[schema.Expression]{}, err
	}
	operatorAndRhs, err := detect(
		lhs.Rest,
		func(rest []Token) (ExpectOk[Token], error) {
			return expectNextToken(rest, "an operator")
		},
		expectDataDefinition,
	)
	if err != nil {
		return ExpectOk[schema.Expression]{}, err
	}
	atom := schema.Atom{Def: lhs.Outcome}
	if operatorAndRhs.Outcome == nil {
		return ExpectOk[schema.Expression]{
			Rest: lhs.Rest, Consumed: lhs.Consumed, Outcome: atom,
		}, nil
	}
	operator := operatorAndRhs.Outcome.probe
	if operator.Value != DelimiterToken(DelimiterEqual) {
		return ExpectOk[schema.Expression]{}, syntaxErrorf(operator.Line,
			"Expected %s, instead found %s.", DelimiterEqual, operator)
	}
	return ExpectOk[schema.Expression]{
		Rest:     operatorAndRhs.Rest,
		Consumed: lhs.Consumed + operatorAndRhs.Consumed,
		Outcome: schema.Equal{
			Left:  atom,
			Right: schema.Atom{Def: operatorAndRhs.Outcome.payload},
		},
	}, nil
}
