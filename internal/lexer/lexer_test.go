package lexer

import (
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/shadowCow/oplang-go/internal/token"
)

func TestTokenizeBasics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Token
	}{
		{
			name:  "keyword is uppercase-insensitive at the source level",
			input: "var",
			expected: []token.Token{
				{Lexeme: "var", Kind: token.Keyword, Line: 1, Column: 1},
			},
		},
		{
			name:  "identifier is case sensitive",
			input: "Count",
			expected: []token.Token{
				{Lexeme: "Count", Kind: token.Identifier, Line: 1, Column: 1},
			},
		},
		{
			name:  "number",
			input: "4200",
			expected: []token.Token{
				{Lexeme: "4200", Kind: token.Number, Line: 1, Column: 1},
			},
		},
		{
			name:  "two-char operators take priority over their one-char prefix",
			input: "<= < == = != !",
			expected: []token.Token{
				{Lexeme: "<=", Kind: token.Operator, Line: 1, Column: 1},
				{Lexeme: "<", Kind: token.Operator, Line: 1, Column: 4},
				{Lexeme: "==", Kind: token.Operator, Line: 1, Column: 6},
				{Lexeme: "=", Kind: token.Operator, Line: 1, Column: 9},
				{Lexeme: "!=", Kind: token.Operator, Line: 1, Column: 11},
				{Lexeme: "!", Kind: token.Operator, Line: 1, Column: 14},
			},
		},
		{
			name:  "assignment is two separate tokens, not one",
			input: "x := 1",
			expected: []token.Token{
				{Lexeme: "x", Kind: token.Identifier, Line: 1, Column: 1},
				{Lexeme: ":", Kind: token.Operator, Line: 1, Column: 3},
				{Lexeme: "=", Kind: token.Operator, Line: 1, Column: 4},
				{Lexeme: "1", Kind: token.Number, Line: 1, Column: 6},
			},
		},
		{
			name:  "newlines advance line and reset column",
			input: "a\nb",
			expected: []token.Token{
				{Lexeme: "a", Kind: token.Identifier, Line: 1, Column: 1},
				{Lexeme: "b", Kind: token.Identifier, Line: 2, Column: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tokens) != len(tt.expected) {
				t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(tt.expected), tokens)
			}
			for i, want := range tt.expected {
				if tokens[i] != want {
					t.Errorf("token %d = %+v, want %+v", i, tokens[i], want)
				}
			}
		})
	}
}

func TestTokenizeReportsEveryUnknownCharacter(t *testing.T) {
	_, err := Tokenize("a @ b # c")
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("expected *multierror.Error, got %T", err)
	}
	if len(merr.WrappedErrors()) != 2 {
		t.Fatalf("got %d errors, want 2 (one per unknown character)", len(merr.WrappedErrors()))
	}
}

func TestTokenizeKeywordsAreCaseInsensitive(t *testing.T) {
	tokens, err := Tokenize("WHILE while While")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, tok := range tokens {
		if tok.Kind != token.Keyword {
			t.Errorf("token %d: kind = %v, want keyword", i, tok.Kind)
		}
	}
}
