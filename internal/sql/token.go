// Package sql turns statement text into a validated statement tree:
// a line-tracked tokenizer feeding a recursive-descent, combinator
// style parser with positional diagnostics.
package sql

import (
	"fmt"
	"strings"

	"github.com/emdrive/emdrive/internal/schema"
)

// Delimiter is a meaningful single-character token.
type Delimiter uint8

const (
	DelimiterComma Delimiter = iota
	DelimiterParenthesisOpening
	DelimiterParenthesisClosing
	DelimiterEqual
)

func (d Delimiter) String() string {
	switch d {
	case DelimiterComma:
		return "comma `,`"
	case DelimiterParenthesisOpening:
		return "opening parenthesis `(`"
	case DelimiterParenthesisClosing:
		return "closing parenthesis `)`"
	case DelimiterEqual:
		return "equals sign `=`"
	default:
		return fmt.Sprintf("Delimiter(%d)", uint8(d))
	}
}

// Keyword is a reserved word, recognized case-insensitively.
type Keyword uint8

const (
	KeywordCreate Keyword = iota
	KeywordInsert
	KeywordInto
	KeywordValues
	KeywordTable
	KeywordIf
	KeywordNot
	KeywordExists
	KeywordNullable
	KeywordNull
	KeywordPrimary
	KeywordKey
	KeywordMetric
	KeywordDefault
	KeywordSelect
	KeywordFrom
	KeywordWhere
	KeywordAsterisk
)

func (k Keyword) word() string {
	switch k {
	case KeywordCreate:
		return "CREATE"
	case KeywordInsert:
		return "INSERT"
	case KeywordInto:
		return "INTO"
	case KeywordValues:
		return "VALUES"
	case KeywordTable:
		return "TABLE"
	case KeywordIf:
		return "IF"
	case KeywordNot:
		return "NOT"
	case KeywordExists:
		return "EXISTS"
	case KeywordNullable:
		return "NULLABLE"
	case KeywordNull:
		return "NULL"
	case KeywordPrimary:
		return "PRIMARY"
	case KeywordKey:
		return "KEY"
	case KeywordMetric:
		return "METRIC"
	case KeywordDefault:
		return "DEFAULT"
	case KeywordSelect:
		return "SELECT"
	case KeywordFrom:
		return "FROM"
	case KeywordWhere:
		return "WHERE"
	case KeywordAsterisk:
		return "*"
	default:
		return fmt.Sprintf("Keyword(%d)", uint8(k))
	}
}

func (k Keyword) String() string {
	return fmt.Sprintf("keyword `%s`", k.word())
}

func parseKeyword(candidate string) (Keyword, bool) {
	switch strings.ToLower(candidate) {
	case "create":
		return KeywordCreate, true
	case "insert":
		return KeywordInsert, true
	case "into":
		return KeywordInto, true
	case "values":
		return KeywordValues, true
	case "table":
		return KeywordTable, true
	case "if":
		return KeywordIf, true
	case "not":
		return KeywordNot, true
	case "exists":
		return KeywordExists, true
	case "nullable":
		return KeywordNullable, true
	case "null":
		return KeywordNull, true
	case "primary":
		return KeywordPrimary, true
	case "key":
		return KeywordKey, true
	case "metric":
		return KeywordMetric, true
	case "default":
		return KeywordDefault, true
	case "select":
		return KeywordSelect, true
	case "from":
		return KeywordFrom, true
	case "where":
		return KeywordWhere, true
	case "*":
		return KeywordAsterisk, true
	default:
		return 0, false
	}
}

// TokenValue is the typed payload of a token. The concrete types are
// all comparable, so expected values can be matched with ==.
type TokenValue interface {
	fmt.Stringer
	isTokenValue()
}

// DelimiterToken is a meaningful delimiter.
type DelimiterToken Delimiter

// KeywordToken is a recognized keyword.
type KeywordToken Keyword

// TypeToken is a recognized data type name.
type TypeToken schema.DataTypeRaw

// FunctionToken is a recognized function name.
type FunctionToken schema.Function

// StringToken is a single-quoted string literal, without the quotes.
type StringToken string

// ArbitraryToken is anything else: an identifier or a number, to be
// classified by the parser from context.
type ArbitraryToken string

func (DelimiterToken) isTokenValue() {}
func (KeywordToken) isTokenValue()   {}
func (TypeToken) isTokenValue()      {}
func (FunctionToken) isTokenValue()  {}
func (StringToken) isTokenValue()    {}
func (ArbitraryToken) isTokenValue() {}

func (v DelimiterToken) String() string { return Delimiter(v).String() }
func (v KeywordToken) String() string   { return Keyword(v).String() }
func (v TypeToken) String() string {
	return fmt.Sprintf("type `%s`", schema.DataTypeRaw(v))
}
func (v FunctionToken) String() string {
	return fmt.Sprintf("function `%s`", schema.Function(v))
}
func (v StringToken) String() string {
	return fmt.Sprintf("string `%q`", string(v))
}
func (v ArbitraryToken) String() string {
	return fmt.Sprintf("arbitrary `%s`", string(v))
}

// Token is a token value tagged with the 1-based line number of its
// first character.
type Token struct {
	Value TokenValue
	Line  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s at line %d", t.Value, t.Line)
}
