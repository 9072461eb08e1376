package sql

import (
	"strings"

	"github.com/emdrive/emdrive/internal/schema"
)

const (
	statementSeparator = ';'
	stringMarker       = '\''
	escapeCharacter    = '\\'
)

// meaningfulChars are single characters that form tokens of their
// own and need no surrounding whitespace.
const meaningfulChars = ",()=*"

// Tokenize splits one statement into tokens, each tagged with its
// 1-based source line. Keywords, type names and function names are
// recognized case-insensitively; identifiers and numbers come out as
// arbitrary tokens for the parser to classify. Single-quoted strings
// may contain backslash-escaped characters (notably \' for a literal
// quote). A semicolon ends tokenization; anything after it is
// ignored.
func Tokenize(input string) []Token {
	var tokens []Token
	for lineIndex, line := range strings.Split(input, "\n") {
		lineNumber := lineIndex + 1
		var candidates []string
		var current strings.Builder
		escaped := false
		insideString := false

		flush := func() {
			if current.Len() > 0 {
				candidates = append(candidates, current.String())
				current.Reset()
			}
		}

		for _, character := range line {
			if escaped {
				// The escape status only shields one character.
				escaped = false
				current.WriteRune(character)
				continue
			}
			if character == escapeCharacter {
				escaped = true
				continue
			}
			if character == stringMarker {
				current.WriteRune(character)
				if insideString {
					flush()
					insideString = false
				} else {
					insideString = true
				}
				continue
			}
			if !insideString {
				if character == statementSeparator {
					flush()
					appendClassified(&tokens, candidates, lineNumber)
					return tokens
				}
				if strings.ContainsRune(meaningfulChars, character) {
					flush()
					candidates = append(candidates, string(character))
					continue
				}
				if character == ' ' || character == '\t' || character == '\r' {
					flush()
					continue
				}
			}
			current.WriteRune(character)
		}
		flush()
		appendClassified(&tokens, candidates, lineNumber)
	}
	return tokens
}

func appendClassified(tokens *[]Token, candidates []string, lineNumber int) {
	for _, candidate := range candidates {
		*tokens = append(*tokens, Token{Value: classify(candidate), Line: lineNumber})
	}
}

// classify assigns the token value for one candidate string:
// delimiters and keywords first, then type and function names, then
// string literals, and arbitrary as the fallback.
func classify(candidate string) TokenValue {
	switch candidate {
	case ",":
		return DelimiterToken(DelimiterComma)
	case "(":
		return DelimiterToken(DelimiterParenthesisOpening)
	case ")":
		return DelimiterToken(DelimiterParenthesisClosing)
	case "=":
		return DelimiterToken(DelimiterEqual)
	}
	if keyword, ok := parseKeyword(candidate); ok {
		return KeywordToken(keyword)
	}
	if dataType, err := schema.ParseDataTypeRaw(candidate); err == nil {
		return TypeToken(dataType)
	}
	if function, err := schema.ParseFunction(candidate); err == nil {
		return FunctionToken(function)
	}
	if len(candidate) >= 2 &&
		candidate[0] == stringMarker && candidate[len(candidate)-1] == stringMarker {
		return StringToken(candidate[1 : len(candidate)-1])
	}
	return ArbitraryToken(candidate)
}
