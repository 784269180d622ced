// Package runner wires the four subsystems — lexer, grammar, predictive
// parser, and VM — into a single pipeline: read source, lex, parse into
// an OPS program, execute. It is the collaborator cmd/oplang calls.
package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/shadowCow/oplang-go/internal/grammar"
	"github.com/shadowCow/oplang-go/internal/lexer"
	"github.com/shadowCow/oplang-go/internal/ll1"
	"github.com/shadowCow/oplang-go/internal/ops"
	"github.com/shadowCow/oplang-go/internal/parser"
	"github.com/shadowCow/oplang-go/internal/runio"
	"github.com/shadowCow/oplang-go/internal/vm"
)

// Options configures a single Run. Logger may be nil, in which case
// Debug and Trace are ignored and no trace output is produced.
type Options struct {
	Debug  bool
	Trace  bool
	Logger *logrus.Logger
	Input  runio.Input
	Output runio.Output
}

// Result carries the pipeline's observable artifacts, useful to callers
// that want to inspect the emitted OPS program as well as the final
// variable snapshot.
type Result struct {
	Program  ops.Program
	Snapshot vm.Snapshot
}

// RunFile reads source from filePath and runs it through the full
// pipeline.
func RunFile(filePath string, opts Options) (Result, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	return RunSource(string(source), opts)
}

// RunSource runs already-loaded source text through the full pipeline:
// tokenize, compute FIRST/FOLLOW sets, parse into an OPS program,
// execute it against opts.Input/opts.Output.
func RunSource(source string, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return Result{}, fmt.Errorf("lexer error: %w", err)
	}
	log.WithField("count", len(tokens)).Debug("tokenized")

	g := grammar.New()
	if opts.Debug {
		for _, nt := range g.Order {
			for _, rule := range g.RulesFor(nt) {
				log.WithFields(logrus.Fields{"lhs": rule.LHS, "symbols": rule.Symbols}).Debug("rule")
			}
		}
	}

	sets := ll1.Compute(g)
	if opts.Debug {
		for _, nt := range g.Order {
			log.WithFields(logrus.Fields{
				"nonterminal": nt,
				"first":       sets.First(nt),
				"follow":      sets.Follow(nt),
			}).Debug("sets")
		}
	}

	p := parser.New(g, sets, tokens)
	if opts.Trace {
		p.SetLogger(log)
	}
	program, err := p.Parse()
	if err != nil {
		return Result{}, fmt.Errorf("parser error: %w", err)
	}
	log.WithField("program", program.String()).Debug("parsed")

	input := opts.Input
	if input == nil {
		input = runio.NewStdinInput(os.Stdin, os.Stdout, false)
	}
	output := opts.Output
	if output == nil {
		output = runio.WriterOutput{W: os.Stdout}
	}

	executor := vm.New(input, output)
	if opts.Trace {
		executor.SetLogger(log)
	}
	snapshot, err := executor.Run(program)
	if err != nil {
		return Result{Program: program}, fmt.Errorf("runtime error: %w", err)
	}

	return Result{Program: program, Snapshot: snapshot}, nil
}
