package compiler

import (
	"sort"

	"mplc/dict"
	"mplc/emit"
	"mplc/lexer"
	"mplc/resolve"
)

// DefaultResolution is the ticks-per-quarter-note used when the caller
// doesn't specify one (spec §4.1: "base whole-note length = 4 *
// resolution").
const DefaultResolution = 480

// Options configures a single Compile call.
type Options struct {
	// Resolution is ticks per quarter note. Zero selects DefaultResolution.
	Resolution int
	// Dictionary is the note/percussion/keyword table. Nil loads dict.Default().
	Dictionary *dict.Dictionary
}

// Result is a successful compilation: the built sequence, the declared
// instruments (for CLI reporting), and any collected warnings (spec §7).
type Result struct {
	Sequence    *emit.Sequence
	Instruments []InstrumentEntry
	Warnings    []Warning
}

// Compile runs the full pipeline (spec §2: lex -> classify -> resolve
// includes -> pass 1 -> pass 2 -> emit) over source, which is read as if
// it were the file named filename (used for diagnostics and for
// resolving INCLUDEFILE paths relative to the working directory).
func Compile(source []byte, filename string, opts Options) (*Result, error) {
	resolution := opts.Resolution
	if resolution == 0 {
		resolution = DefaultResolution
	}
	d := opts.Dictionary
	if d == nil {
		var err error
		d, err = dict.Default()
		if err != nil {
			return nil, err
		}
	}

	raws, err := lexer.Lex(string(source), filename)
	if err != nil {
		return nil, asCompileError(err, filename, 1, LexError)
	}
	lines, err := lexer.Classify(raws)
	if err != nil {
		return nil, asCompileError(err, filename, 1, UnknownToken)
	}

	resolver := newIncludeResolver()
	lines, err = expandIncludes(lines, resolver)
	if err != nil {
		return nil, err
	}

	scope := resolve.NewScope()
	prog, err := runPass1(lines, filename, d, scope)
	if err != nil {
		return nil, err
	}

	builder := emit.NewBuilder(uint16(resolution))
	exec := NewExecutor(d, prog, scope, builder, resolution)
	warnings, err := exec.Run()
	if err != nil {
		return nil, err
	}

	seq, err := builder.Finish()
	if err != nil {
		return nil, err
	}

	instruments := make([]InstrumentEntry, 0, len(prog.Instruments))
	for _, entry := range prog.Instruments {
		instruments = append(instruments, entry)
	}
	sort.Slice(instruments, func(i, j int) bool { return instruments[i].Channel < instruments[j].Channel })

	return &Result{Sequence: seq, Instruments: instruments, Warnings: warnings}, nil
}
