package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allTokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return toks
}

func TestPunctuationAndOperators(t *testing.T) {
	toks := allTokens(t, "(){},.-+;/*!!====<<=>>=")
	want := []TokenType{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenComma, TokenDot, TokenMinus, TokenPlus, TokenSemicolon,
		TokenSlash, TokenStar, TokenBang, TokenBangEqual, TokenEqualEqual,
		TokenEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual, TokenEOF,
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		require.Equalf(t, w, toks[i].Type, "token %d", i)
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := allTokens(t, "and class else false for fun if nil or print return super this true var while foobar foo1")
	want := []TokenType{
		TokenAnd, TokenClass, TokenElse, TokenFalse, TokenFor, TokenFun, TokenIf,
		TokenNil, TokenOr, TokenPrint, TokenReturn, TokenSuper, TokenThis,
		TokenTrue, TokenVar, TokenWhile, TokenIdentifier, TokenIdentifier, TokenEOF,
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		require.Equalf(t, w, toks[i].Type, "token %d (%q)", i, toks[i].Lexeme)
	}
}

func TestKeywordPrefixIsNotMisclassified(t *testing.T) {
	toks := allTokens(t, "forest forge fortunate")
	for _, tok := range toks {
		if tok.Type == TokenEOF {
			continue
		}
		require.Equal(t, TokenIdentifier, tok.Type)
	}
}

func TestNumberLiterals(t *testing.T) {
	toks := allTokens(t, "123 45.67 1.")
	require.Equal(t, TokenNumber, toks[0].Type)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, TokenNumber, toks[1].Type)
	require.Equal(t, "45.67", toks[1].Lexeme)
	// A trailing '.' with no fractional digit is not consumed.
	require.Equal(t, TokenNumber, toks[2].Type)
	require.Equal(t, "1", toks[2].Lexeme)
	require.Equal(t, TokenDot, toks[3].Type)
}

func TestStringLiteral(t *testing.T) {
	toks := allTokens(t, `"hello world"`)
	require.Equal(t, TokenString, toks[0].Type)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestUnterminatedStringIsErrorToken(t *testing.T) {
	toks := allTokens(t, `"hello`)
	require.Equal(t, TokenError, toks[0].Type)
	require.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestLineCommentsAndWhitespaceAreSkipped(t *testing.T) {
	toks := allTokens(t, "var a = 1; // comment\nvar b = 2;")
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	require.Contains(t, types, TokenVar)
	require.NotContains(t, types, TokenSlash)
}

func TestLineTracking(t *testing.T) {
	toks := allTokens(t, "var a = 1;\nvar b = 2;\n")
	require.Equal(t, 1, toks[0].Line)
	var found bool
	for _, tok := range toks {
		if tok.Type == TokenVar && tok.Line == 2 {
			found = true
		}
	}
	require.True(t, found)
}

func TestUnexpectedCharacterIsErrorToken(t *testing.T) {
	toks := allTokens(t, "@")
	require.Equal(t, TokenError, toks[0].Type)
}
