package compiler

import (
	"strconv"
	"strings"

	"mplc/dict"
	"mplc/emit"
	"mplc/lexer"
	"mplc/option"
	"mplc/resolve"
)

// Executor is pass 2 (spec §4.5): it walks the validated line stream,
// carrying the 16 ChannelState, the option-frame chain, a call-stack
// recursion guard, and the builder being fed.
type Executor struct {
	dict       *dict.Dictionary
	prog       *Program
	scope      *resolve.Scope
	builder    *emit.Builder
	resolution int

	channels  [NumChannels]ChannelState
	callStack map[string]bool
	warnings  []Warning
}

// NewExecutor builds an Executor ready to run prog's top level.
func NewExecutor(d *dict.Dictionary, prog *Program, scope *resolve.Scope, builder *emit.Builder, resolution int) *Executor {
	return &Executor{
		dict:       d,
		prog:       prog,
		scope:      scope,
		builder:    builder,
		resolution: resolution,
		callStack:  make(map[string]bool),
	}
}

// Run executes the INSTRUMENTS/META setup and the top-level line stream,
// returning any collected warnings.
func (e *Executor) Run() ([]Warning, error) {
	e.applyInstruments()
	e.applyMeta()

	root := option.Root()
	if err := e.runBody(e.prog.Lines, root); err != nil {
		return nil, err
	}
	return e.warnings, nil
}

// applyInstruments emits program-change / bank-select / instrument-name
// for every declared channel at tick 0 (spec §4.5 INSTRUMENTS block).
func (e *Executor) applyInstruments() {
	for ch, entry := range e.prog.Instruments {
		e.channels[ch].Declared = true
		e.channels[ch].Program = entry.Program
		e.channels[ch].HasBank = entry.HasBank
		e.channels[ch].BankMSB = entry.BankMSB
		e.channels[ch].BankLSB = entry.BankLSB
		e.channels[ch].Name = entry.Name

		e.builder.ProgramChange(uint8(ch), entry.Program, 0)
		if entry.HasBank {
			e.builder.BankSelect(uint8(ch), entry.BankMSB, entry.BankLSB, 0)
		}
		if entry.Name != "" {
			e.builder.InstrumentName(uint8(ch), entry.Name, 0)
		}
	}
}

// applyMeta emits the META block's contents as a single ordered text
// event at tick 0 (spec §4.5: "Content becomes a single ordered meta
// text event").
func (e *Executor) applyMeta() {
	if len(e.prog.Meta) == 0 {
		return
	}
	var parts []string
	for _, entry := range e.prog.Meta {
		value := strings.Trim(entry.Value, `"`)
		parts = append(parts, entry.Key+": "+value)
	}
	e.builder.MetaText(strings.Join(parts, "; "), 0)
}

// computeBlockEnds maps each BlockOpen index to its matching BlockClose
// index within lines, by simple depth counting (structural balance was
// already validated in pass 1).
func computeBlockEnds(lines []lexer.Line) map[int]int {
	ends := make(map[int]int)
	var stack []int
	for i, ln := range lines {
		switch ln.Kind {
		case lexer.BlockOpen:
			stack = append(stack, i)
		case lexer.BlockClose:
			if len(stack) > 0 {
				open := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				ends[open] = i
			}
		}
	}
	return ends
}

// skipContainer returns the index just past the matching close of a
// FUNCTION/INSTRUMENTS/META opener at lines[i] (its contents were
// already consumed by pass 1 and must not be executed inline).
func skipContainer(lines []lexer.Line, i int, closeKind lexer.Kind) int {
	for j := i + 1; j < len(lines); j++ {
		if lines[j].Kind == closeKind {
			return j
		}
	}
	return len(lines) - 1
}

// runBody walks one flat line range (the top level, a block body, or a
// called function's body) under frame, dispatching each line kind.
func (e *Executor) runBody(lines []lexer.Line, frame *option.Frame) error {
	blockEnds := computeBlockEnds(lines)
	i := 0
	for i < len(lines) {
		ln := lines[i]
		switch ln.Kind {
		case lexer.FunctionOpen:
			i = skipContainer(lines, i, lexer.FunctionClose) + 1
			continue
		case lexer.InstrumentsOpen:
			i = skipContainer(lines, i, lexer.InstrumentsClose) + 1
			continue
		case lexer.MetaOpen:
			i = skipContainer(lines, i, lexer.MetaClose) + 1
			continue
		case lexer.BlockOpen:
			end, ok := blockEnds[i]
			if !ok {
				return errf(ln.File, ln.Line, StructuralMismatch, "unmatched {")
			}
			if err := e.runBlock(lines, i, end, frame); err != nil {
				return err
			}
			i = end + 1
			continue
		case lexer.Const, lexer.Chord:
			// registered in pass 1; no runtime effect.
		case lexer.Var:
			if err := e.execVar(ln); err != nil {
				return err
			}
		case lexer.Global:
			if err := e.execGlobal(ln); err != nil {
				return err
			}
		case lexer.Call:
			if err := e.execCall(ln, frame); err != nil {
				return err
			}
		case lexer.ChannelCmd:
			if err := e.execChannelCmd(ln, frame); err != nil {
				return err
			}
		case lexer.Rest:
			if err := e.execRest(ln, frame); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}

// runBlock executes one `{ ... }` body, pushing a child option frame and
// honoring q (repeat count) and m (suppress net tick advance) per spec
// §4.5/§9: header side effects (frame creation, scope marker) happen
// once regardless of q; q=0 simply skips the body loop.
func (e *Executor) runBlock(lines []lexer.Line, start, end int, parent *option.Frame) error {
	header := lines[start]
	substituted, err := e.scope.Substitute(header.File, header.Line, header.Args)
	if err != nil {
		return asCompileError(err, header.File, header.Line, UnknownVar)
	}
	set, err := option.Parse(header.File, header.Line, substituted)
	if err != nil {
		return asCompileError(err, header.File, header.Line, BadOption)
	}

	child := option.Push(parent, set)
	marker := e.scope.Mark()
	snapshot := e.channels
	body := lines[start+1 : end]

	for iter := 0; iter < child.Quantity(); iter++ {
		if err := e.runBody(body, child); err != nil {
			return err
		}
	}
	if child.Multiple() {
		e.channels = snapshot
	}
	e.scope.Rollback(marker)
	return nil
}

// execCall runs a FUNCTION body under the CALL's option header, with the
// same q/m/frame semantics as runBlock, guarded against recursive
// self-reference (spec §7 RecursiveCall).
func (e *Executor) execCall(ln lexer.Line, parent *option.Frame) error {
	substituted, err := e.scope.Substitute(ln.File, ln.Line, ln.Args)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, UnknownVar)
	}
	name, optsText, _ := strings.Cut(substituted, ",")
	name = strings.TrimSpace(name)

	fn, ok := e.prog.Functions[name]
	if !ok {
		return errf(ln.File, ln.Line, UnknownToken, "call to undefined function %q", name)
	}
	if e.callStack[name] {
		return errf(ln.File, ln.Line, RecursiveCall, "recursive call to %q", name)
	}

	set, err := option.Parse(ln.File, ln.Line, optsText)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, BadOption)
	}
	child := option.Push(parent, set)
	marker := e.scope.Mark()
	snapshot := e.channels

	e.callStack[name] = true
	for iter := 0; iter < child.Quantity(); iter++ {
		if err := e.runBody(fn.Body, child); err != nil {
			delete(e.callStack, name)
			return err
		}
	}
	delete(e.callStack, name)

	if child.Multiple() {
		e.channels = snapshot
	}
	e.scope.Rollback(marker)
	return nil
}

// execVar assigns a VAR (spec §4.3): the left-hand "$name" is a
// declaration, not a use, so only the right-hand text is substituted.
func (e *Executor) execVar(ln lexer.Line) error {
	name, rawValue, err := parseAssignment(ln)
	if err != nil {
		return err
	}
	value, err := e.scope.Substitute(ln.File, ln.Line, rawValue)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, UnknownVar)
	}
	e.scope.DefineVar(name, value)
	return nil
}

// execGlobal handles tempo/time/key (spec §4.5): emitted at the
// synchronized max tick across all channels, after which every channel
// fast-forwards to that tick.
func (e *Executor) execGlobal(ln lexer.Line) error {
	value, err := e.scope.Substitute(ln.File, ln.Line, ln.Args)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, UnknownVar)
	}
	value = strings.TrimSpace(value)
	tick := maxTick(e.channels)

	switch ln.Head {
	case "tempo":
		bpm, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errf(ln.File, ln.Line, BadOption, "bad tempo %q", value)
		}
		e.builder.MetaTempo(bpm, uint32(tick))
	case "time":
		numText, denText, ok := strings.Cut(value, "/")
		if !ok {
			return errf(ln.File, ln.Line, BadOption, "bad time signature %q", value)
		}
		num, err1 := strconv.Atoi(numText)
		den, err2 := strconv.Atoi(denText)
		if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
			return errf(ln.File, ln.Line, BadOption, "bad time signature %q", value)
		}
		e.builder.MetaTimeSig(uint8(num), uint8(den), uint32(tick))
	case "key":
		rootText, modeText, ok := strings.Cut(value, "/")
		if !ok {
			rootText, modeText = value, "major"
		}
		semitone, found := e.dict.ResolveNote(rootText)
		if !found {
			return errf(ln.File, ln.Line, UnknownNote, "unknown key root %q", rootText)
		}
		minor := strings.EqualFold(strings.TrimSpace(modeText), "minor")
		e.builder.MetaKeySig(uint8(semitone%12), minor, uint32(tick))
	default:
		return errf(ln.File, ln.Line, UnknownToken, "unknown global directive %q", ln.Head)
	}

	for i := range e.channels {
		e.channels[i].CurrentTick = tick
	}
	return nil
}
