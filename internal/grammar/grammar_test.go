package grammar

import "testing"

func TestRulesForPreservesInsertionOrder(t *testing.T) {
	g := New()
	rules := g.RulesFor(Stmt)
	if len(rules) == 0 {
		t.Fatalf("expected at least one stmt rule")
	}
	if rules[0].Symbols[0] != tVAR {
		t.Errorf("first stmt rule should start with VAR, got %v", rules[0].Symbols)
	}
}

func TestIsNonTerminalDistinguishesFromTerminals(t *testing.T) {
	g := New()
	if !g.IsNonTerminal(Expr) {
		t.Errorf("expr should be a non-terminal")
	}
	if g.IsNonTerminal(tVAR) {
		t.Errorf("VAR is a terminal, not a non-terminal")
	}
}

func TestEveryRuleHasAParallelActionList(t *testing.T) {
	g := New()
	for _, nt := range g.Order {
		for _, rule := range g.RulesFor(nt) {
			if len(rule.Actions) != len(rule.Symbols) {
				t.Errorf("%s rule %v: %d symbols but %d actions", nt, rule.Symbols, len(rule.Symbols), len(rule.Actions))
			}
		}
	}
}

func TestCondOrdersGroupedFormsBeforeComparison(t *testing.T) {
	g := New()
	rules := g.RulesFor(Cond)
	if len(rules) != 3 {
		t.Fatalf("expected 3 cond rules, got %d", len(rules))
	}
	if rules[0].Symbols[0] != tBang {
		t.Errorf("rule 0 should be the negated grouped form, got %v", rules[0].Symbols)
	}
	if rules[1].Symbols[0] != tLParen {
		t.Errorf("rule 1 should be the grouped form, got %v", rules[1].Symbols)
	}
	if rules[2].Symbols[0] != Expr {
		t.Errorf("rule 2 should be the comparison form, got %v", rules[2].Symbols)
	}
}
