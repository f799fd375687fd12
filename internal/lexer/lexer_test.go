package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kinds(src string) []TokenType {
	l := New(src)
	var out []TokenType
	for {
		t := l.NextToken()
		if t.Type == EOF {
			return out
		}
		out = append(out, t.Type)
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	assert.Equal(t,
		[]TokenType{FN, IDENT, LPAREN, RPAREN, LBRACE, RBRACE},
		kinds("fn main() {}"))
	// `self` is an ordinary identifier; only `Self` is the type keyword
	assert.Equal(t, []TokenType{IDENT, SELF_TY}, kinds("self Self"))
}

func TestCompoundOperators(t *testing.T) {
	assert.Equal(t,
		[]TokenType{COLONCOLON, EQ, NE, LE, GE, ANDAND, OROR, ARROW, FATARROW},
		kinds(":: == != <= >= && || -> =>"))
	assert.Equal(t, []TokenType{COLON, ASSIGN, LT, GT, BANG, PIPE}, kinds(": = < > ! |"))
}

func TestNumbersAndMemberDots(t *testing.T) {
	l := New("12 3.5 p.0")
	assert.Equal(t, INT, l.NextToken().Type)
	f := l.NextToken()
	assert.Equal(t, FLOAT, f.Type)
	assert.Equal(t, "3.5", f.Literal)
	assert.Equal(t, IDENT, l.NextToken().Type)
	assert.Equal(t, DOT, l.NextToken().Type)
	zero := l.NextToken()
	assert.Equal(t, INT, zero.Type)
	assert.Equal(t, "0", zero.Literal)
}

func TestPositions(t *testing.T) {
	l := New("fn\nmain")
	fn := l.NextToken()
	assert.Equal(t, 1, fn.Line)
	assert.Equal(t, NEWLINE, l.NextToken().Type)
	main := l.NextToken()
	assert.Equal(t, 2, main.Line)
	assert.Equal(t, 1, main.Column)
}

func TestStringsAndChars(t *testing.T) {
	l := New(`"hi" 'x'`)
	s := l.NextToken()
	assert.Equal(t, STRING, s.Type)
	assert.Equal(t, "hi", s.Literal)
	c := l.NextToken()
	assert.Equal(t, CHAR, c.Type)
	assert.Equal(t, "x", c.Literal)
}
