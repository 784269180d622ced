// Package ll1 computes FIRST and FOLLOW sets over a grammar.Grammar and
// uses them to drive the predictive parser's rule selection. Computation
// is a classic fixed-point iteration, following the same
// map[string]map[string]bool / "changed" loop shape as a textbook
// FIRST/FOLLOW implementation, adapted from EBNF-node traversal to the
// flat Rule.Symbols sequences this grammar uses.
package ll1

import (
	"github.com/shadowCow/oplang-go/internal/grammar"
	"github.com/shadowCow/oplang-go/internal/token"
)

// Sets holds the memoized FIRST and FOLLOW sets for every symbol in a
// grammar.
type Sets struct {
	g      *grammar.Grammar
	first  map[string]map[string]bool
	follow map[string]map[string]bool
}

// Compute builds FIRST and FOLLOW sets for every symbol in g.
func Compute(g *grammar.Grammar) *Sets {
	s := &Sets{
		g:      g,
		first:  make(map[string]map[string]bool),
		follow: make(map[string]map[string]bool),
	}
	s.computeFirst()
	s.computeFollow()
	return s
}

// First returns the FIRST set of a single symbol (terminal or
// non-terminal), including token.Lambda if the symbol is nullable.
func (s *Sets) First(symbol string) map[string]bool {
	if set, ok := s.first[symbol]; ok {
		return set
	}
	return map[string]bool{symbol: true}
}

// FirstOfSequence computes FIRST for a sequence of symbols per the
// left-to-right walk in the language reference: accumulate FIRST(symI) \
// {λ}, stopping at the first symbol whose FIRST does not contain λ; if
// every symbol contained λ, the sequence itself is nullable.
func (s *Sets) FirstOfSequence(symbols []string) map[string]bool {
	result := make(map[string]bool)
	for _, sym := range symbols {
		first := s.First(sym)
		nullable := false
		for t := range first {
			if t == token.Lambda {
				nullable = true
				continue
			}
			result[t] = true
		}
		if !nullable {
			return result
		}
	}
	result[token.Lambda] = true
	return result
}

// Follow returns the FOLLOW set of a non-terminal.
func (s *Sets) Follow(nt string) map[string]bool {
	if set, ok := s.follow[nt]; ok {
		return set
	}
	return map[string]bool{}
}

func (s *Sets) computeFirst() {
	// Seed every literal terminal (and λ) that appears anywhere in the
	// grammar with FIRST(terminal) = {terminal}.
	for _, nt := range s.g.Order {
		for _, rule := range s.g.RulesFor(nt) {
			for _, sym := range rule.Symbols {
				if !s.g.IsNonTerminal(sym) {
					s.first[sym] = map[string]bool{sym: true}
				}
			}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, nt := range s.g.Order {
			if s.first[nt] == nil {
				s.first[nt] = make(map[string]bool)
			}
			before := len(s.first[nt])
			for _, rule := range s.g.RulesFor(nt) {
				for t := range s.FirstOfSequence(rule.Symbols) {
					s.first[nt][t] = true
				}
			}
			if len(s.first[nt]) != before {
				changed = true
			}
		}
	}
}

func (s *Sets) computeFollow() {
	for _, nt := range s.g.Order {
		s.follow[nt] = make(map[string]bool)
	}
	s.follow[s.g.Start][token.EndOfInput] = true

	changed := true
	for changed {
		changed = false
		for _, lhs := range s.g.Order {
			for _, rule := range s.g.RulesFor(lhs) {
				if s.propagateFollow(lhs, rule.Symbols) {
					changed = true
				}
			}
		}
	}
}

// propagateFollow walks a rule's RHS right-to-left, accumulating a
// trailer set that starts as FOLLOW(lhs) and is updated per symbol, per
// the language reference's FOLLOW construction.
func (s *Sets) propagateFollow(lhs string, symbols []string) bool {
	changed := false
	trailer := copySet(s.follow[lhs])

	for i := len(symbols) - 1; i >= 0; i-- {
		sym := symbols[i]
		if s.g.IsNonTerminal(sym) {
			if s.union(s.follow[sym], trailer) {
				changed = true
			}
			first := s.First(sym)
			if first[token.Lambda] {
				merged := copySet(trailer)
				for t := range first {
					if t != token.Lambda {
						merged[t] = true
					}
				}
				trailer = merged
			} else {
				trailer = withoutLambda(first)
			}
		} else if sym != token.Lambda {
			trailer = map[string]bool{sym: true}
		}
		// sym == token.Lambda contributes nothing and leaves trailer
		// unchanged, since λ carries no terminals of its own.
	}
	return changed
}

func (s *Sets) union(dst, src map[string]bool) bool {
	changed := false
	for t := range src {
		if !dst[t] {
			dst[t] = true
			changed = true
		}
	}
	return changed
}

func copySet(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k := range src {
		dst[k] = true
	}
	return dst
}

func withoutLambda(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k := range src {
		if k != token.Lambda {
			dst[k] = true
		}
	}
	return dst
}
