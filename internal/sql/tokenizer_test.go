package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emdrive/emdrive/internal/schema"
)

func values(tokens []Token) []TokenValue {
	out := make([]TokenValue, len(tokens))
	for i, token := range tokens {
		out[i] = token.Value
	}
	return out
}

func TestTokenizeCreateTableSingleLine(t *testing.T) {
	tokens := Tokenize(
		"CREATE TABLE IF NOT EXISTS test (server_id NULLABLE(UINT64), hash UINT128, sent_at TIMESTAMP);",
	)
	require.Len(t, tokens, 19)
	assert.Equal(t, []TokenValue{
		KeywordToken(KeywordCreate),
		KeywordToken(KeywordTable),
		KeywordToken(KeywordIf),
		KeywordToken(KeywordNot),
		KeywordToken(KeywordExists),
		ArbitraryToken("test"),
		DelimiterToken(DelimiterParenthesisOpening),
		ArbitraryToken("server_id"),
		KeywordToken(KeywordNullable),
		DelimiterToken(DelimiterParenthesisOpening),
		TypeToken(schema.TypeUInt64),
		DelimiterToken(DelimiterParenthesisClosing),
		DelimiterToken(DelimiterComma),
		ArbitraryToken("hash"),
		TypeToken(schema.TypeUInt128),
		DelimiterToken(DelimiterComma),
		ArbitraryToken("sent_at"),
		TypeToken(schema.TypeTimestamp),
		DelimiterToken(DelimiterParenthesisClosing),
	}, values(tokens))
	for _, token := range tokens {
		assert.Equal(t, 1, token.Line)
	}
}

func TestTokenizeTracksLineNumbers(t *testing.T) {
	tokens := Tokenize("CREATE TABLE IF NOT EXISTS test (\n" +
		"    server_id NULLABLE(UINT64),\n" +
		"    hash UINT128 METRIC KEY,\n" +
		"    sent_at TIMESTAMP\n" +
		");")
	var lines []int
	for _, token := range tokens {
		lines = append(lines, token.Line)
	}
	assert.Equal(t, []int{
		1, 1, 1, 1, 1, 1, 1,
		2, 2, 2, 2, 2, 2,
		3, 3, 3, 3, 3,
		4, 4,
		5,
	}, lines)
	assert.Equal(t, KeywordToken(KeywordMetric), tokens[15].Value)
	assert.Equal(t, KeywordToken(KeywordKey), tokens[16].Value)
}

func TestTokenizeCaseSensitivity(t *testing.T) {
	tokens := Tokenize("CREATE table If nOT exists TEST (serverId nullable(Uint64))")
	assert.Equal(t, []TokenValue{
		KeywordToken(KeywordCreate),
		KeywordToken(KeywordTable),
		KeywordToken(KeywordIf),
		KeywordToken(KeywordNot),
		KeywordToken(KeywordExists),
		// Identifiers keep their case.
		ArbitraryToken("TEST"),
		DelimiterToken(DelimiterParenthesisOpening),
		ArbitraryToken("serverId"),
		KeywordToken(KeywordNullable),
		DelimiterToken(DelimiterParenthesisOpening),
		TypeToken(schema.TypeUInt64),
		DelimiterToken(DelimiterParenthesisClosing),
		DelimiterToken(DelimiterParenthesisClosing),
	}, values(tokens))
}

func TestTokenizeStrings(t *testing.T) {
	tokens := Tokenize(`INSERT INTO test (foo, bar, baz) VALUES ('123', '   x ', 'The \'Moon\'')`)
	assert.Equal(t, []TokenValue{
		KeywordToken(KeywordInsert),
		KeywordToken(KeywordInto),
		ArbitraryToken("test"),
		DelimiterToken(DelimiterParenthesisOpening),
		ArbitraryToken("foo"),
		DelimiterToken(DelimiterComma),
		ArbitraryToken("bar"),
		DelimiterToken(DelimiterComma),
		ArbitraryToken("baz"),
		DelimiterToken(DelimiterParenthesisClosing),
		KeywordToken(KeywordValues),
		DelimiterToken(DelimiterParenthesisOpening),
		StringToken("123"),
		DelimiterToken(DelimiterComma),
		StringToken("   x "),
		DelimiterToken(DelimiterComma),
		StringToken("The 'Moon'"),
		DelimiterToken(DelimiterParenthesisClosing),
	}, values(tokens))
}

func TestTokenizeSemicolonTerminates(t *testing.T) {
	tokens := Tokenize("SELECT * FROM x; this is ignored\nand so is this")
	assert.Equal(t, []TokenValue{
		KeywordToken(KeywordSelect),
		KeywordToken(KeywordAsterisk),
		KeywordToken(KeywordFrom),
		ArbitraryToken("x"),
	}, values(tokens))
}

func TestTokenizeSelectDelimiters(t *testing.T) {
	// Delimiters need no surrounding whitespace.
	tokens := Tokenize("SELECT *,foo FROM xyz WHERE foo='bar'")
	assert.Equal(t, []TokenValue{
		KeywordToken(KeywordSelect),
		KeywordToken(KeywordAsterisk),
		DelimiterToken(DelimiterComma),
		ArbitraryToken("foo"),
		KeywordToken(KeywordFrom),
		ArbitraryToken("xyz"),
		KeywordToken(KeywordWhere),
		ArbitraryToken("foo"),
		DelimiterToken(DelimiterEqual),
		StringToken("bar"),
	}, values(tokens))
}

func TestTokenizeFunctionsAndDefaults(t *testing.T) {
	tokens := Tokenize("sent_at TIMESTAMP DEFAULT NOW()")
	assert.Equal(t, []TokenValue{
		ArbitraryToken("sent_at"),
		TypeToken(schema.TypeTimestamp),
		KeywordToken(KeywordDefault),
		FunctionToken(schema.FunctionNow),
		DelimiterToken(DelimiterParenthesisOpening),
		DelimiterToken(DelimiterParenthesisClosing),
	}, values(tokens))
}

func TestTokenDisplay(t *testing.T) {
	assert.Equal(t, "keyword `CREATE` at line 1",
		Token{Value: KeywordToken(KeywordCreate), Line: 1}.String())
	assert.Equal(t, "arbitrary `xyz` at line 3",
		Token{Value: ArbitraryToken("xyz"), Line: 3}.String())
	assert.Equal(t, "comma `,` at line 2",
		Token{Value: DelimiterToken(DelimiterComma), Line: 2}.String())
	assert.Equal(t, "type `UINT64` at line 1",
		Token{Value: TypeToken(schema.TypeUInt64), Line: 1}.String())
}
