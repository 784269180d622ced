// Package parser implements the predictive (LL(1)-by-ordering) parser
// described in the language reference: for each non-terminal it tries
// the grammar's rules in declaration order, picks the first whose FIRST
// set contains the lookahead (or whose nullable production's FOLLOW set
// contains it), and emits OPS elements through the embedded action
// resolver while it goes.
package parser

import (
	"github.com/sirupsen/logrus"

	"github.com/shadowCow/oplang-go/internal/grammar"
	"github.com/shadowCow/oplang-go/internal/ll1"
	"github.com/shadowCow/oplang-go/internal/ops"
	"github.com/shadowCow/oplang-go/internal/token"
)

// Parser holds all state for a single parse: the token cursor, the
// emitted OPS output, the two back-patch stacks, the pendingAssignOp
// flag, and the most recently matched lexeme/kind that action tags "a"
// and "k" read from.
type Parser struct {
	grammar *grammar.Grammar
	sets    *ll1.Sets
	tokens  []token.Token
	pos     int

	lastLexeme string
	lastKind   token.Kind

	output ops.Program

	exitLabelStack      []int
	loopStartLabelStack []int
	pendingAssignOp     bool
	pendingCmpOp        string

	log *logrus.Logger
}

// New creates a Parser over an already-lexed token stream.
func New(g *grammar.Grammar, sets *ll1.Sets, tokens []token.Token) *Parser {
	return &Parser{grammar: g, sets: sets, tokens: tokens}
}

// SetLogger attaches a logger used to trace rule selection. A nil
// logger (the default) disables tracing entirely.
func (p *Parser) SetLogger(log *logrus.Logger) {
	p.log = log
}

// Parse runs the predictive parser over the full token stream (plus the
// implicit "$" sentinel) and returns the emitted OPS program.
func (p *Parser) Parse() (ops.Program, error) {
	p.output = nil
	if err := p.parseNonTerminal(p.grammar.Start); err != nil {
		return nil, err
	}
	if look := p.lookahead(); look != token.EndOfInput {
		line, col := p.position()
		return nil, newError(line, col, "trailing input: unexpected %q after %s", look, p.grammar.Start)
	}
	return p.output, nil
}

func (p *Parser) lookahead() string {
	if p.pos >= len(p.tokens) {
		return token.EndOfInput
	}
	return p.tokens[p.pos].Terminal()
}

func (p *Parser) position() (int, int) {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return 1, 1
		}
		last := p.tokens[len(p.tokens)-1]
		return last.Line, last.Column + len(last.Lexeme)
	}
	t := p.tokens[p.pos]
	return t.Line, t.Column
}

func (p *Parser) parseNonTerminal(nt string) error {
	look := p.lookahead()
	rule, ok := p.selectRule(nt, look)
	if !ok {
		line, col := p.position()
		return newError(line, col, "no rule for %s at lookahead %q", nt, look)
	}
	if p.log != nil {
		p.log.WithFields(logrus.Fields{"rule": nt, "lookahead": look}).Debug("select rule")
	}
	return p.applyRule(rule)
}

// selectRule implements the language reference's rule-selection
// algorithm: in insertion order, the first rule whose FIRST(symbols)
// contains the lookahead, or whose FIRST(symbols) contains λ and
// FOLLOW(nt) contains the lookahead, wins.
func (p *Parser) selectRule(nt, lookahead string) (grammar.Rule, bool) {
	for _, rule := range p.grammar.RulesFor(nt) {
		first := p.sets.FirstOfSequence(rule.Symbols)
		if first[lookahead] {
			return rule, true
		}
		if first[token.Lambda] && p.sets.Follow(nt)[lookahead] {
			return rule, true
		}
	}
	return grammar.Rule{}, false
}

func (p *Parser) applyRule(rule grammar.Rule) error {
	for i, sym := range rule.Symbols {
		if sym != token.Lambda {
			if p.grammar.IsNonTerminal(sym) {
				if err := p.parseNonTerminal(sym); err != nil {
					return err
				}
			} else if err := p.match(sym); err != nil {
				return err
			}
		}
		if i < len(rule.Actions) && rule.Actions[i] != grammar.NoAction {
			if err := p.applyAction(rule.Actions[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// match consumes the current token if it matches the expected terminal,
// recording its lexeme/kind as "last matched" for the action resolver.
func (p *Parser) match(expected string) error {
	look := p.lookahead()
	if look != expected {
		line, col := p.position()
		return newError(line, col, "unexpected token %q (expected %q)", look, expected)
	}
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.lastLexeme = tok.Lexeme
		p.lastKind = tok.Kind
	}
	p.pos++
	return nil
}

func (p *Parser) emit(el ops.Element) {
	p.output = append(p.output, el)
}
