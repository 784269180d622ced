// Package vm implements the OPS executor: a stack machine whose operand
// stack mixes integers, booleans, variable names, array references, and
// jump labels, running against a variable table and performing I/O
// through the runio collaborators.
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/shadowCow/oplang-go/internal/ops"
	"github.com/shadowCow/oplang-go/internal/runio"
)

// Executor runs one OPS program. It owns the operand stack, the
// variable table, and the init stack for the duration of Run and is not
// meant to be reused afterward.
type Executor struct {
	variables map[string]*variable
	operand   []value
	initStack []string

	input  runio.Input
	output runio.Output
	log    *logrus.Logger

	ip int
}

// New creates an Executor against the given I/O collaborators.
func New(input runio.Input, output runio.Output) *Executor {
	return &Executor{
		variables: make(map[string]*variable),
		input:     input,
		output:    output,
	}
}

// SetLogger attaches a logger used to trace instruction dispatch. A nil
// logger (the default) disables tracing entirely.
func (e *Executor) SetLogger(log *logrus.Logger) {
	e.log = log
}

// Snapshot is a read-only view of the variable table after a run,
// useful for tests and embedders; it is not required by the executor's
// own semantics.
type Snapshot map[string]string

// Run executes program to completion (or until a runtime error),
// returning a Snapshot of the final variable table.
func (e *Executor) Run(program ops.Program) (Snapshot, error) {
	if program.HasUnresolvedPlaceholder() {
		return nil, e.errorf("label well-formedness violated: unresolved placeholder in program")
	}

	for e.ip = 0; e.ip < len(program); {
		el := program[e.ip]
		advance, err := e.step(el)
		if err != nil {
			return nil, err
		}
		if advance {
			e.ip++
		}
	}

	return e.snapshot(), nil
}

func (e *Executor) snapshot() Snapshot {
	snap := make(Snapshot, len(e.variables))
	for name, v := range e.variables {
		snap[name] = v.display()
	}
	return snap
}

func (e *Executor) step(el ops.Element) (advance bool, err error) {
	switch el.Type {
	case ops.Identifier:
		e.push(vName(el.Value))
		return true, nil
	case ops.Number:
		n, convErr := strconv.ParseInt(el.Value, 10, 64)
		if convErr != nil {
			return false, e.errorf("malformed number literal %q: %v", el.Value, convErr)
		}
		e.push(vInteger(n))
		return true, nil
	case ops.Label, ops.LabelPlaceholder:
		e.push(vLabel(el.Value))
		return true, nil
	case ops.Operation:
		return e.dispatch(el.Value)
	default:
		return false, e.errorf("unknown OPS element type %v", el.Type)
	}
}

func (e *Executor) dispatch(op string) (advance bool, err error) {
	if e.log != nil {
		e.log.WithFields(logrus.Fields{"ip": e.ip, "op": op}).Debug("exec")
	}

	switch op {
	case "+", "-", "*", "/":
		return true, e.binaryArith(op)
	case "-'":
		return true, e.unaryNeg()
	case "<", ">", "<=", ">=", "==", "!=":
		return true, e.compare(op)
	case "AND", "OR":
		return true, e.logical(op)
	case "!":
		return true, e.not()
	case "jf":
		return e.jumpIfFalse()
	case "j":
		return e.jump()
	case "n":
		return true, e.declareScalar()
	case "ar":
		return true, e.declareArray()
	case "f":
		return true, e.fill()
	case "i":
		return true, e.index()
	case "s":
		return true, e.readInput()
	case "o":
		return true, e.output_()
	case ":=", "=":
		return true, e.assign()
	case ":":
		return true, nil
	default:
		return false, e.errorf("unknown opcode %q", op)
	}
}

func (e *Executor) push(v value) {
	e.operand = append(e.operand, v)
}

func (e *Executor) pop() (value, error) {
	if len(e.operand) == 0 {
		return nil, e.errorf("operand stack exhausted")
	}
	top := e.operand[len(e.operand)-1]
	e.operand = e.operand[:len(e.operand)-1]
	return top, nil
}

func (e *Executor) binaryArith(op string) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}
	ai, err := e.asInteger(a)
	if err != nil {
		return err
	}
	bi, err := e.asInteger(b)
	if err != nil {
		return err
	}
	switch op {
	case "+":
		e.push(vInteger(ai + bi))
	case "-":
		e.push(vInteger(ai - bi))
	case "*":
		e.push(vInteger(ai * bi))
	case "/":
		if bi == 0 {
			return e.errorf("division by zero")
		}
		e.push(vInteger(ai / bi))
	}
	return nil
}

func (e *Executor) unaryNeg() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	i, err := e.asInteger(v)
	if err != nil {
		return err
	}
	e.push(vInteger(-i))
	return nil
}

func (e *Executor) compare(op string) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}
	ai, err := e.asInteger(a)
	if err != nil {
		return err
	}
	bi, err := e.asInteger(b)
	if err != nil {
		return err
	}
	var result bool
	switch op {
	case "<":
		result = ai < bi
	case ">":
		result = ai > bi
	case "<=":
		result = ai <= bi
	case ">=":
		result = ai >= bi
	case "==":
		result = ai == bi
	case "!=":
		result = ai != bi
	}
	e.push(vBoolean(result))
	return nil
}

func (e *Executor) logical(op string) error {
	b, err := e.pop()
	if err != nil {
		return err
	}
	a, err := e.pop()
	if err != nil {
		return err
	}
	ab, err := e.asBoolean(a)
	if err != nil {
		return err
	}
	bb, err := e.asBoolean(b)
	if err != nil {
		return err
	}
	var result bool
	if op == "AND" {
		result = ab && bb
	} else {
		result = ab || bb
	}
	e.push(vBoolean(result))
	return nil
}

func (e *Executor) not() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	b, err := e.asBoolean(v)
	if err != nil {
		return err
	}
	e.push(vBoolean(!b))
	return nil
}

func (e *Executor) jumpIfFalse() (bool, error) {
	target, err := e.pop()
	if err != nil {
		return false, err
	}
	targetIP, err := e.asLabel(target)
	if err != nil {
		return false, err
	}
	cond, err := e.pop()
	if err != nil {
		return false, err
	}
	condB, err := e.asBoolean(cond)
	if err != nil {
		return false, err
	}
	if !condB {
		e.ip = targetIP
		return false, nil
	}
	return true, nil
}

func (e *Executor) jump() (bool, error) {
	target, err := e.pop()
	if err != nil {
		return false, err
	}
	targetIP, err := e.asLabel(target)
	if err != nil {
		return false, err
	}
	e.ip = targetIP
	return false, nil
}

func (e *Executor) declareScalar() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	name, ok := v.(vName)
	if !ok {
		return e.errorf("type mismatch: n requires an identifier")
	}
	if _, exists := e.variables[string(name)]; !exists {
		e.variables[string(name)] = &variable{kind: kindInteger, integer: 0}
	}
	e.initStack = append(e.initStack, string(name))
	return nil
}

func (e *Executor) declareArray() error {
	size, err := e.pop()
	if err != nil {
		return err
	}
	sizeN, err := e.asInteger(size)
	if err != nil {
		return err
	}
	nameV, err := e.pop()
	if err != nil {
		return err
	}
	name, ok := nameV.(vName)
	if !ok {
		return e.errorf("type mismatch: ar requires an identifier")
	}
	if sizeN < 0 {
		return e.errorf("array %q declared with negative size %d", name, sizeN)
	}
	e.variables[string(name)] = &variable{kind: kindArray, array: make([]int64, sizeN)}
	e.initStack = append(e.initStack, string(name))
	return nil
}

// fill implements op "f": it peeks (never pops) the init stack, so
// repeated fills within a single declaration would all target the same
// name — unspecified behavior the grammar never exercises, per the
// language reference's design notes.
func (e *Executor) fill() error {
	if len(e.initStack) == 0 {
		return e.errorf("init stack exhausted")
	}
	name := e.initStack[len(e.initStack)-1]
	v, err := e.pop()
	if err != nil {
		return err
	}
	resolved, err := e.resolve(v)
	if err != nil {
		return err
	}
	return e.store(name, resolved)
}

func (e *Executor) index() error {
	idx, err := e.pop()
	if err != nil {
		return err
	}
	idxN, err := e.asInteger(idx)
	if err != nil {
		return err
	}
	nameV, err := e.pop()
	if err != nil {
		return err
	}
	name, ok := nameV.(vName)
	if !ok {
		return e.errorf("type mismatch: i requires an identifier")
	}
	e.push(vArrayRef{Name: string(name), Index: idxN})
	return nil
}

func (e *Executor) readInput() error {
	nameV, err := e.pop()
	if err != nil {
		return err
	}
	name, ok := nameV.(vName)
	if !ok {
		return e.errorf("type mismatch: s requires a plain identifier, not an array reference")
	}
	n, err := e.input.NextInteger(string(name))
	if err != nil {
		return e.errorf("input error: %v", err)
	}
	e.variables[string(name)] = &variable{kind: kindInteger, integer: n}
	e.push(vInteger(n))
	return nil
}

// output_ implements op "o". Its name avoids colliding with the output
// field.
func (e *Executor) output_() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	if name, ok := v.(vName); ok {
		if variable, bound := e.variables[string(name)]; bound {
			e.output.Emit(fmt.Sprintf("%s=%s", name, variable.display()))
			return nil
		}
	}
	resolved, err := e.resolve(v)
	if err != nil {
		return err
	}
	e.output.Emit(e.displayValue(resolved))
	return nil
}

func (e *Executor) assign() error {
	rhs, err := e.pop()
	if err != nil {
		return err
	}
	resolved, err := e.resolve(rhs)
	if err != nil {
		return err
	}
	target, err := e.pop()
	if err != nil {
		return err
	}
	switch t := target.(type) {
	case vArrayRef:
		n, err := e.asInteger(resolved)
		if err != nil {
			return err
		}
		return e.storeArrayElement(t, n)
	case vName:
		return e.store(string(t), resolved)
	default:
		return e.errorf("type mismatch: assignment target must be an identifier or array reference")
	}
}

func (e *Executor) storeArrayElement(ref vArrayRef, n int64) error {
	arrVar, ok := e.variables[ref.Name]
	if !ok || arrVar.kind != kindArray {
		return e.errorf("%q is not an array", ref.Name)
	}
	if ref.Index < 0 || int(ref.Index) >= len(arrVar.array) {
		return e.errorf("array index out of range: %s[%d] (length %d)", ref.Name, ref.Index, len(arrVar.array))
	}
	arrVar.array[ref.Index] = n
	return nil
}

func (e *Executor) store(name string, resolved value) error {
	switch r := resolved.(type) {
	case vInteger:
		e.variables[name] = &variable{kind: kindInteger, integer: int64(r)}
	case vBoolean:
		e.variables[name] = &variable{kind: kindBoolean, boolean: bool(r)}
	default:
		return e.errorf("type mismatch: cannot store %T into variable %q", resolved, name)
	}
	return nil
}

// resolve implements resolveValue: an array reference dereferences to
// its element's value; a bare identifier resolves to its bound value if
// any, otherwise the identifier string itself is returned unchanged —
// the asymmetry op "o" relies on to distinguish "variable display" from
// "literal message". Any other value passes through unchanged.
func (e *Executor) resolve(v value) (value, error) {
	switch t := v.(type) {
	case vArrayRef:
		arrVar, ok := e.variables[t.Name]
		if !ok || arrVar.kind != kindArray {
			return nil, e.errorf("%q is not an array", t.Name)
		}
		if t.Index < 0 || int(t.Index) >= len(arrVar.array) {
			return nil, e.errorf("array index out of range: %s[%d] (length %d)", t.Name, t.Index, len(arrVar.array))
		}
		return vInteger(arrVar.array[t.Index]), nil
	case vName:
		bound, ok := e.variables[string(t)]
		if !ok {
			return t, nil
		}
		switch bound.kind {
		case kindInteger:
			return vInteger(bound.integer), nil
		case kindBoolean:
			return vBoolean(bound.boolean), nil
		default:
			return nil, e.errorf("cannot resolve array variable %q to a scalar value", t)
		}
	default:
		return v, nil
	}
}

func (e *Executor) displayValue(v value) string {
	switch t := v.(type) {
	case vInteger:
		return strconv.FormatInt(int64(t), 10)
	case vBoolean:
		return strconv.FormatBool(bool(t))
	case vName:
		return string(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asInteger centralizes integer coercion: an integer passes through;
// a boolean is rejected; a bare identifier must resolve to a bound
// integer; an array reference dereferences (bounds-checked).
func (e *Executor) asInteger(v value) (int64, error) {
	switch t := v.(type) {
	case vInteger:
		return int64(t), nil
	case vBoolean:
		return 0, e.errorf("type mismatch: expected integer, got boolean")
	case vName:
		bound, ok := e.variables[string(t)]
		if !ok {
			return 0, e.errorf("uninitialized variable %q", t)
		}
		if bound.kind != kindInteger {
			return 0, e.errorf("type mismatch: %q is not an integer", t)
		}
		return bound.integer, nil
	case vArrayRef:
		resolved, err := e.resolve(t)
		if err != nil {
			return 0, err
		}
		return e.asInteger(resolved)
	default:
		return 0, e.errorf("type mismatch: expected integer, got %T", v)
	}
}

// asBoolean centralizes boolean coercion: a boolean passes through; an
// integer is truthy when non-zero; anything else is a type error.
func (e *Executor) asBoolean(v value) (bool, error) {
	switch t := v.(type) {
	case vBoolean:
		return bool(t), nil
	case vInteger:
		return t != 0, nil
	default:
		return false, e.errorf("type mismatch: expected boolean, got %T", v)
	}
}

// asLabel parses a jump target of the form "M<n>".
func (e *Executor) asLabel(v value) (int, error) {
	lbl, ok := v.(vLabel)
	if !ok {
		return 0, e.errorf("type mismatch: expected a label, got %T", v)
	}
	s := string(lbl)
	if !strings.HasPrefix(s, "M") {
		return 0, e.errorf("malformed label %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 {
		return 0, e.errorf("malformed label %q", s)
	}
	return n, nil
}
