// Package compiler is the two-pass executor / block engine (spec §4.5):
// the core of mplc. It walks classified, option-resolved lines, drives
// variable substitution and option-frame inheritance, and feeds emit.Builder
// to produce a Sequence.
package compiler

import (
	"fmt"
	"strings"

	"mplc/lexer"
	"mplc/option"
	"mplc/resolve"
)

// ErrorKind is the closed set of structured error kinds (spec §7).
type ErrorKind string

const (
	LexError           ErrorKind = "LexError"
	UnknownToken       ErrorKind = "UnknownToken"
	BadLength          ErrorKind = "BadLength"
	BadOption          ErrorKind = "BadOption"
	UnknownVar         ErrorKind = "UnknownVar"
	Redefinition       ErrorKind = "Redefinition"
	RecursiveCall      ErrorKind = "RecursiveCall"
	StructuralMismatch ErrorKind = "StructuralMismatch"
	ContextViolation   ErrorKind = "ContextViolation"
	UnknownNote        ErrorKind = "UnknownNote"
	UnknownChannelUse  ErrorKind = "UnknownChannelUse"
	BankOutOfRange     ErrorKind = "BankOutOfRange"
	IncludeFailure     ErrorKind = "IncludeFailure"
	IncludeCycle       ErrorKind = "IncludeCycle"
	FileNotFound       ErrorKind = "FileNotFound"
)

// CompileError is the structured diagnostic every failure surfaces as
// (spec §7): file, 1-based line, optional column, kind, short message.
type CompileError struct {
	File   string
	Line   int
	Column int
	Kind   ErrorKind
	Msg    string
}

func (e *CompileError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Kind, e.Msg)
}

func errf(file string, line int, kind ErrorKind, format string, args ...any) *CompileError {
	return &CompileError{File: file, Line: line, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal diagnostic collected on the side channel (spec
// §7: "Warnings ... are collected on a side channel and returned
// alongside a successful result").
type Warning struct {
	File string
	Line int
	Msg  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: warning: %s", w.File, w.Line, w.Msg)
}

// asCompileError unwraps a lexer/resolve/option/ticklen/dict error into a
// CompileError of the given default kind, preserving its location.
func asCompileError(err error, fallbackFile string, fallbackLine int, kind ErrorKind) *CompileError {
	if err == nil {
		return nil
	}
	file, line := fallbackFile, fallbackLine
	switch e := err.(type) {
	case *lexer.Error:
		file, line = e.File, e.Line
	case *resolve.Error:
		file, line = e.File, e.Line
	case *option.Error:
		file, line = e.File, e.Line
	}
	return &CompileError{File: file, Line: line, Kind: kind, Msg: strings.TrimSpace(err.Error())}
}
