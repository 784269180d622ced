// Package lexer implements the scanner collaborator: it turns source text
// into an ordered sequence of tokens. It is intentionally simple — a
// single left-to-right hand-written scan over a fixed keyword and
// operator set — since the scanner is a collaborator, not part of the
// core three subsystems (grammar table, predictive parser, OPS
// executor).
package lexer

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/shadowCow/oplang-go/internal/token"
)

var keywords = map[string]bool{
	"VAR": true, "ARRAY": true, "IF": true, "THEN": true, "ELSE": true,
	"WHILE": true, "DO": true, "OUTPUT": true, "INPUT": true,
	"AND": true, "OR": true,
}

// twoCharOperators must be tried before their single-character prefixes.
// Note that ":=" is deliberately absent: the grammar treats ':' and '='
// as two separate terminals so the parser's pendingAssignOp action pair
// can fuse them back into an assignment (see internal/parser/actions.go).
var twoCharOperators = []string{"<=", ">=", "==", "!="}

var oneCharOperators = map[byte]bool{
	':': true, '=': true, '<': true, '>': true,
	'+': true, '-': true, '*': true, '/': true,
	'(': true, ')': true, '{': true, '}': true,
	'[': true, ']': true, ';': true, '!': true,
}

// Error reports an unknown character encountered while scanning.
type Error struct {
	Line, Column int
	Char         byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("unknown character %q at line %d, column %d", e.Char, e.Line, e.Column)
}

// Lexer scans source text into tokens.
type Lexer struct {
	source string
	offset int
	line   int
	column int
}

// New creates a Lexer over the given source text.
func New(source string) *Lexer {
	return &Lexer{source: source, line: 1, column: 1}
}

// Tokenize scans the entire source and returns the ordered token
// sequence. If one or more characters cannot be classified, Tokenize
// keeps scanning past them (so every bad character is reported) and
// returns a non-nil *multierror.Error built from all of them.
func Tokenize(source string) ([]token.Token, error) {
	l := New(source)
	var tokens []token.Token
	var errs *multierror.Error

	for {
		tok, err := l.next()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if tok == nil {
			break
		}
		tokens = append(tokens, *tok)
	}

	return tokens, errs.ErrorOrNil()
}

func (l *Lexer) next() (*token.Token, error) {
	l.skipWhitespace()
	if l.offset >= len(l.source) {
		return nil, nil
	}

	startLine, startCol := l.line, l.column
	c := l.source[l.offset]

	switch {
	case isDigit(c):
		return l.scanNumber(startLine, startCol), nil
	case isIdentStart(c):
		return l.scanIdentOrKeyword(startLine, startCol), nil
	default:
		if op, ok := l.scanOperator(); ok {
			return &token.Token{Lexeme: op, Kind: token.Operator, Line: startLine, Column: startCol}, nil
		}
		bad := l.source[l.offset]
		l.advance()
		return nil, &Error{Line: startLine, Column: startCol, Char: bad}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.offset < len(l.source) {
		c := l.source[l.offset]
		if c == '\n' {
			l.advance()
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance()
			continue
		}
		break
	}
}

func (l *Lexer) scanNumber(line, col int) *token.Token {
	start := l.offset
	for l.offset < len(l.source) && isDigit(l.source[l.offset]) {
		l.advance()
	}
	return &token.Token{Lexeme: l.source[start:l.offset], Kind: token.Number, Line: line, Column: col}
}

func (l *Lexer) scanIdentOrKeyword(line, col int) *token.Token {
	start := l.offset
	for l.offset < len(l.source) && isIdentPart(l.source[l.offset]) {
		l.advance()
	}
	lexeme := l.source[start:l.offset]
	if keywords[strings.ToUpper(lexeme)] {
		return &token.Token{Lexeme: lexeme, Kind: token.Keyword, Line: line, Column: col}
	}
	return &token.Token{Lexeme: lexeme, Kind: token.Identifier, Line: line, Column: col}
}

func (l *Lexer) scanOperator() (string, bool) {
	rest := l.source[l.offset:]
	for _, op := range twoCharOperators {
		if strings.HasPrefix(rest, op) {
			l.advance()
			l.advance()
			return op, true
		}
	}
	c := l.source[l.offset]
	if oneCharOperators[c] {
		l.advance()
		return string(c), true
	}
	return "", false
}

func (l *Lexer) advance() {
	if l.source[l.offset] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.offset++
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
