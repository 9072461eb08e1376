package sql

// The parser is built from "expect" combinators. Each one consumes a
// prefix of the token stream and returns the rest, the number of
// tokens consumed, and a typed outcome - or a SyntaxError carrying
// the offending token's line.

// ExpectOk is the successful result of a combinator.
type ExpectOk[O any] struct {
	Rest     []Token
	Consumed int
	Outcome  O
}

// expectFn is the shape shared by all combinators.
type expectFn[O any] func(tokens []Token) (ExpectOk[O], error)

// expectNextToken consumes one token of any kind. The description
// names what was expected when the statement ends instead.
func expectNextToken(tokens []Token, expectationDescription string) (ExpectOk[Token], error) {
	if len(tokens) == 0 {
		return ExpectOk[Token]{}, syntaxErrorf(0,
			"Expected %s, instead found end of statement.", expectationDescription)
	}
	return ExpectOk[Token]{Rest: tokens[1:], Consumed: 1, Outcome: tokens[0]}, nil
}

// expectTokenValue consumes exactly the wanted token value.
func expectTokenValue(tokens []Token, want TokenValue) (ExpectOk[struct{}], error) {
	found, err := expectNextToken(tokens, want.String())
	if err != nil {
		return ExpectOk[struct{}]{}, err
	}
	if found.Outcome.Value != want {
		return ExpectOk[struct{}]{}, syntaxErrorf(found.Outcome.Line,
			"Expected %s, instead found %s.", want, found.Outcome)
	}
	return ExpectOk[struct{}]{Rest: tokens[1:], Consumed: 1}, nil
}

// expectTokenValuesSequence consumes the wanted token values in order.
func expectTokenValuesSequence(tokens []Token, want []TokenValue) (ExpectOk[struct{}], error) {
	for i, wantValue := range want {
		if _, err := expectTokenValue(tokens[i:], wantValue); err != nil {
			return ExpectOk[struct{}]{}, err
		}
	}
	return ExpectOk[struct{}]{Rest: tokens[len(want):], Consumed: len(want)}, nil
}

// expectEndOfStatement succeeds only when no tokens remain.
func expectEndOfStatement(tokens []Token) (ExpectOk[struct{}], error) {
	if len(tokens) > 0 {
		return ExpectOk[struct{}]{}, syntaxErrorf(tokens[0].Line,
			"Expected end of statement, instead found %s.", tokens[0])
	}
	return ExpectOk[struct{}]{Rest: tokens}, nil
}

// expectEnclosed runs the inner combinator between opener and closer
// delimiters.
func expectEnclosed[O any](
	tokens []Token, inner expectFn[O], opener, closer Delimiter,
) (ExpectOk[O], error) {
	opened, err := expectTokenValue(tokens, DelimiterToken(opener))
	if err != nil {
		return ExpectOk[O]{}, err
	}
	inside, err := inner(opened.Rest)
	if err != nil {
		return ExpectOk[O]{}, err
	}
	closed, err := expectTokenValue(inside.Rest, DelimiterToken(closer))
	if err != nil {
		return ExpectOk[O]{}, err
	}
	return ExpectOk[O]{
		Rest:     closed.Rest,
		Consumed: inside.Consumed + 2, // account for the delimiters
		Outcome:  inside.Outcome,
	}, nil
}

// expectCommaSeparated runs the element combinator one or more times,
// separated by commas. A trailing comma is a syntax error, because
// the element expected after it will fail.
func expectCommaSeparated[O any](tokens []Token, element expectFn[O]) (ExpectOk[[]O], error) {
	consumed := 0
	var outcomes []O
	for {
		next, err := element(tokens[consumed:])
		if err != nil {
			return ExpectOk[[]O]{}, err
		}
		consumed += next.Consumed
		outcomes = append(outcomes, next.Outcome)
		if _, err := expectTokenValue(tokens[consumed:], DelimiterToken(DelimiterComma)); err != nil {
			break // no comma after this element - the list is complete
		}
		consumed++
	}
	return ExpectOk[[]O]{Rest: tokens[consumed:], Consumed: consumed, Outcome: outcomes}, nil
}

// expectEnclosedCommaSeparated parses `( element, element, ... )`.
func expectEnclosedCommaSeparated[O any](tokens []Token, element expectFn[O]) (ExpectOk[[]O], error) {
	return expectEnclosed(
		tokens,
		func(enclosed []Token) (ExpectOk[[]O], error) {
			return expectCommaSeparated(enclosed, element)
		},
		DelimiterParenthesisOpening,
		DelimiterParenthesisClosing,
	)
}

// detection carries both outcomes of a successful detect.
type detection[P, O any] struct {
	probe   P
	payload O
}

// detect makes a prefix optional: when the probe does not match, the
// outcome is nil and nothing is consumed; when it matches, the
// payload must follow.
func detect[P, O any](
	tokens []Token, probe expectFn[P], payload expectFn[O],
) (ExpectOk[*detection[P, O]], error) {
	probed, err := probe(tokens)
	if err != nil {
		return ExpectOk[*detection[P, O]]{Rest: tokens}, nil
	}
	loaded, err := payload(probed.Rest)
	if err != nil {
		return ExpectOk[*detection[P, O]]{}, err
	}
	return ExpectOk[*detection[P, O]]{
		Rest:     loaded.Rest,
		Consumed: probed.Consumed + loaded.Consumed,
		Outcome:  &detection[P, O]{probe: probed.Outcome, payload: loaded.Outcome},
	}, nil
}

// consumeAll runs the inner combinator and requires it to consume
// every remaining token.
func consumeAll[O any](tokens []Token, inner expectFn[O]) (O, error) {
	parsed, err := inner(tokens)
	if err != nil {
		var zero O
		return zero, err
	}
	if _, err := expectEndOfStatement(parsed.Rest); err != nil {
		var zero O
		return zero, err
	}
	return parsed.Outcome, nil
}
