/*
Oplang runs a program written in the small Pascal-like OPS teaching
language: it lexes, parses into a postfix OPS program, and executes it
against stdin/stdout.

Usage:

	oplang [flags] <path>

The flags are:

	-q, --quiet
		Suppress the "name? " prompt normally printed before each INPUT
		read.

	--debug
		Print the grammar rule table and computed FIRST/FOLLOW sets
		before parsing.

	--trace
		Print a line for every rule the parser selects and every
		instruction the executor dispatches.
*/
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/shadowCow/oplang-go/internal/runio"
	"github.com/shadowCow/oplang-go/internal/runner"
)

const (
	exitSuccess = iota
	exitUsageError
	exitRunError
)

var (
	quiet = pflag.BoolP("quiet", "q", false, "suppress the INPUT prompt")
	debug = pflag.Bool("debug", false, "print the grammar table and FIRST/FOLLOW sets")
	trace = pflag.Bool("trace", false, "trace rule selection and instruction dispatch")
)

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <path>\n", os.Args[0])
		return exitUsageError
	}
	path := pflag.Arg(0)

	log := logrus.New()
	if *debug || *trace {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	opts := runner.Options{
		Debug:  *debug,
		Trace:  *trace,
		Logger: log,
		Input:  runio.NewStdinInput(os.Stdin, os.Stdout, *quiet),
		Output: runio.WriterOutput{W: os.Stdout},
	}

	if _, err := runner.RunFile(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return exitRunError
	}
	return exitSuccess
}
