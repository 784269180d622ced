package parser

import (
	"fmt"

	"github.com/shadowCow/oplang-go/internal/ops"
)

// applyAction dispatches a single action tag per the language
// reference's action table, appending zero or more OPS elements to the
// output and mutating the back-patch stacks / pendingAssignOp flag as a
// side effect.
func (p *Parser) applyAction(tag string) error {
	switch tag {
	case "a":
		p.emit(ops.Element{Value: p.lastLexeme, Type: ops.Identifier})

	case "k":
		p.emit(ops.Element{Value: p.lastLexeme, Type: ops.Number})

	case ":":
		p.pendingAssignOp = true

	case "cmp":
		p.pendingCmpOp = p.lastLexeme

	case "cmp!":
		p.emit(ops.Element{Value: p.pendingCmpOp, Type: ops.Operation})

	case "=":
		if p.pendingAssignOp {
			p.emit(ops.Element{Value: ":=", Type: ops.Operation})
			p.pendingAssignOp = false
		} else {
			p.emit(ops.Element{Value: "=", Type: ops.Operation})
		}

	case "7":
		p.exitLabelStack = append(p.exitLabelStack, len(p.output))
		p.emit(ops.Element{Value: "M?", Type: ops.LabelPlaceholder})
		p.emit(ops.Element{Value: "jf", Type: ops.Operation})

	case "8":
		pos, err := p.popExitLabel()
		if err != nil {
			return err
		}
		p.output[pos] = ops.Element{Value: label(len(p.output)), Type: ops.Label}

	case "9":
		p.loopStartLabelStack = append(p.loopStartLabelStack, len(p.output))

	case "10":
		startPos, err := p.popLoopStart()
		if err != nil {
			return err
		}
		exitPos, err := p.popExitLabel()
		if err != nil {
			return err
		}
		// Two more elements are emitted after this point (the back-jump
		// label and the "j" itself), so the exit target must account
		// for them. Any change to what follows here must update this
		// arithmetic.
		exitTarget := len(p.output) + 2
		p.output[exitPos] = ops.Element{Value: label(exitTarget), Type: ops.Label}
		p.emit(ops.Element{Value: label(startPos), Type: ops.Label})
		p.emit(ops.Element{Value: "j", Type: ops.Operation})

	case "2":
		// Reserved ELSE-branch marker. The action table never special-
		// cases it, and per the documented quirk it is a deliberate
		// no-op here rather than an emitted literal "2" operation
		// (which the VM would reject as an unknown opcode). The
		// grammar never attaches this tag to a symbol; it is handled
		// here only so a future rule that does reference it degrades
		// to a no-op instead of a runtime error.

	default:
		p.emit(ops.Element{Value: tag, Type: ops.Operation})
	}
	return nil
}

func label(index int) string {
	return fmt.Sprintf("M%d", index)
}

func (p *Parser) popExitLabel() (int, error) {
	if len(p.exitLabelStack) == 0 {
		line, col := p.position()
		return 0, newError(line, col, "back-patch invariant violated: exit label stack is empty")
	}
	top := p.exitLabelStack[len(p.exitLabelStack)-1]
	p.exitLabelStack = p.exitLabelStack[:len(p.exitLabelStack)-1]
	return top, nil
}

func (p *Parser) popLoopStart() (int, error) {
	if len(p.loopStartLabelStack) == 0 {
		line, col := p.position()
		return 0, newError(line, col, "back-patch invariant violated: loop start label stack is empty")
	}
	top := p.loopStartLabelStack[len(p.loopStartLabelStack)-1]
	p.loopStartLabelStack = p.loopStartLabelStack[:len(p.loopStartLabelStack)-1]
	return top, nil
}
