package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"mplc/dict"
	"mplc/lexer"
	"mplc/resolve"
)

// frame is one entry of pass 1's structural stack.
type frame struct {
	kind lexer.Kind
	line int
	name string // FUNCTION name, when kind == lexer.FunctionOpen
}

// runPass1 scans every line without emitting events (spec §4.5 Pass 1):
// it validates structural balance, rejects the context violations named
// in spec §4.5/§7, and collects function bodies, chord/const
// definitions, and the INSTRUMENTS/META block contents. Constants are
// registered directly into scope as they're found, so CONST forward-
// references work the same as function forward-references (spec §4.5:
// "Pass 1 ... collects ... constant definitions").
func runPass1(lines []lexer.Line, file string, d *dict.Dictionary, scope *resolve.Scope) (*Program, error) {
	p := &Program{
		Lines:       lines,
		Functions:   make(map[string]*FunctionDef),
		Chords:      make(map[string]*ChordDef),
		Instruments: make(map[int]InstrumentEntry),
	}

	var stack []frame
	var funcBodyStart int
	var metaEntries []MetaEntry

	top := func() (lexer.Kind, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		return stack[len(stack)-1].kind, true
	}

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		tk, hasTop := top()

		if hasTop && tk == lexer.InstrumentsOpen {
			switch ln.Kind {
			case lexer.InstrumentsEntry:
				entry, err := parseInstrumentEntry(ln, d)
				if err != nil {
					return nil, err
				}
				p.Instruments[entry.Channel] = entry
				continue
			case lexer.InstrumentsClose:
				// handled below
			default:
				return nil, errf(ln.File, ln.Line, ContextViolation, "only instrument entries are allowed inside INSTRUMENTS")
			}
		}
		if hasTop && tk == lexer.MetaOpen {
			switch ln.Kind {
			case lexer.MetaEntry:
				metaEntries = append(metaEntries, MetaEntry{
					Key:   strings.ToLower(ln.Head),
					Value: strings.TrimSpace(ln.Args),
				})
				continue
			case lexer.MetaClose:
				// handled below
			default:
				return nil, errf(ln.File, ln.Line, ContextViolation, "only meta entries are allowed inside META")
			}
		}

		insideFunction := false
		for _, f := range stack {
			if f.kind == lexer.FunctionOpen {
				insideFunction = true
			}
		}

		switch ln.Kind {
		case lexer.FunctionOpen:
			if len(stack) != 0 {
				return nil, errf(ln.File, ln.Line, ContextViolation, "nested FUNCTION definitions are not allowed")
			}
			name := strings.TrimSpace(ln.Args)
			if name == "" {
				return nil, errf(ln.File, ln.Line, UnknownToken, "FUNCTION requires a name")
			}
			if _, exists := p.Functions[name]; exists {
				return nil, errf(ln.File, ln.Line, Redefinition, "function %q already defined", name)
			}
			stack = append(stack, frame{kind: lexer.FunctionOpen, line: ln.Line, name: name})
			funcBodyStart = i + 1
			p.Functions[name] = &FunctionDef{Name: name, DefLine: ln.Line}

		case lexer.FunctionClose:
			if ln.Args != "" {
				return nil, errf(ln.File, ln.Line, BadOption, "END takes no arguments")
			}
			if !hasTop || tk != lexer.FunctionOpen {
				return nil, errf(ln.File, ln.Line, StructuralMismatch, "unmatched END")
			}
			name := stack[len(stack)-1].name
			p.Functions[name].Body = append([]lexer.Line(nil), lines[funcBodyStart:i]...)
			stack = stack[:len(stack)-1]

		case lexer.InstrumentsOpen:
			if ln.Args != "" {
				return nil, errf(ln.File, ln.Line, BadOption, "INSTRUMENTS takes no arguments")
			}
			if len(stack) != 0 {
				return nil, errf(ln.File, ln.Line, ContextViolation, "INSTRUMENTS is only allowed at top level")
			}
			stack = append(stack, frame{kind: lexer.InstrumentsOpen, line: ln.Line})

		case lexer.InstrumentsClose:
			if ln.Args != "" {
				return nil, errf(ln.File, ln.Line, BadOption, "END takes no arguments")
			}
			if !hasTop || tk != lexer.InstrumentsOpen {
				return nil, errf(ln.File, ln.Line, StructuralMismatch, "unmatched END")
			}
			stack = stack[:len(stack)-1]

		case lexer.MetaOpen:
			if ln.Args != "" {
				return nil, errf(ln.File, ln.Line, BadOption, "META takes no arguments")
			}
			if len(stack) != 0 {
				return nil, errf(ln.File, ln.Line, ContextViolation, "META is only allowed at top level")
			}
			stack = append(stack, frame{kind: lexer.MetaOpen, line: ln.Line})

		case lexer.MetaClose:
			if ln.Args != "" {
				return nil, errf(ln.File, ln.Line, BadOption, "END takes no arguments")
			}
			if !hasTop || tk != lexer.MetaOpen {
				return nil, errf(ln.File, ln.Line, StructuralMismatch, "unmatched END")
			}
			stack = stack[:len(stack)-1]

		case lexer.BlockOpen:
			stack = append(stack, frame{kind: lexer.BlockOpen, line: ln.Line})

		case lexer.BlockClose:
			if !hasTop || tk != lexer.BlockOpen {
				return nil, errf(ln.File, ln.Line, StructuralMismatch, "unmatched }")
			}
			stack = stack[:len(stack)-1]

		case lexer.Include, lexer.IncludeFile:
			if len(stack) != 0 {
				return nil, errf(ln.File, ln.Line, ContextViolation, "%s is only allowed at top level", ln.Head)
			}

		case lexer.Global:
			if len(stack) != 0 {
				return nil, errf(ln.File, ln.Line, ContextViolation, "global command %q is not allowed inside a block, function, INSTRUMENTS, or META", ln.Head)
			}

		case lexer.Chord:
			if insideFunction {
				return nil, errf(ln.File, ln.Line, ContextViolation, "CHORD is not allowed inside a function")
			}
			cd, err := parseChordDef(ln, d)
			if err != nil {
				return nil, err
			}
			if _, exists := p.Chords[cd.Name]; exists {
				return nil, errf(ln.File, ln.Line, Redefinition, "chord %q already defined", cd.Name)
			}
			p.Chords[cd.Name] = cd

		case lexer.Const:
			name, value, err := parseAssignment(ln)
			if err != nil {
				return nil, err
			}
			resolved, err := scope.Substitute(ln.File, ln.Line, value)
			if err != nil {
				return nil, asCompileError(err, ln.File, ln.Line, UnknownVar)
			}
			if err := scope.DefineConst(ln.File, ln.Line, name, resolved); err != nil {
				return nil, asCompileError(err, ln.File, ln.Line, Redefinition)
			}
		}
	}

	if len(stack) != 0 {
		unmatched := stack[0]
		return nil, errf(file, unmatched.line, StructuralMismatch, "unclosed %v at end of file", unmatched.kind)
	}

	p.Meta = metaEntries
	return p, nil
}

// parseAssignment parses "$name = text" (CONST/VAR bodies).
func parseAssignment(ln lexer.Line) (name, value string, err error) {
	text := strings.TrimSpace(ln.Args)
	if !strings.HasPrefix(text, "$") {
		return "", "", errf(ln.File, ln.Line, BadOption, "%s requires a $name", strings.ToUpper(ln.Head))
	}
	eq := strings.Index(text, "=")
	if eq < 0 {
		return "", "", errf(ln.File, ln.Line, BadOption, "%s requires \"= value\"", strings.ToUpper(ln.Head))
	}
	name = strings.TrimSpace(text[1:eq])
	value = strings.TrimSpace(text[eq+1:])
	if name == "" {
		return "", "", errf(ln.File, ln.Line, BadOption, "%s name is empty", strings.ToUpper(ln.Head))
	}
	return name, value, nil
}

// parseChordDef parses "name = note,note,..." into a ChordDef, rejecting
// a name that collides with a note or percussion shortcut (spec §7
// Redefinition, spec §8 scenario 6).
func parseChordDef(ln lexer.Line, d *dict.Dictionary) (*ChordDef, error) {
	text := strings.TrimSpace(ln.Args)
	name, rest, ok := strings.Cut(text, "=")
	if !ok {
		return nil, errf(ln.File, ln.Line, BadOption, "CHORD requires \"name = notes\"")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errf(ln.File, ln.Line, BadOption, "CHORD name is empty")
	}
	if d.IsNoteOrPercussionName(name) {
		return nil, errf(ln.File, ln.Line, Redefinition, "chord name %q collides with a note or percussion name", name)
	}
	var notes []string
	for _, n := range strings.Split(rest, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		notes = append(notes, n)
	}
	if len(notes) == 0 {
		return nil, errf(ln.File, ln.Line, BadOption, "CHORD %q has no notes", name)
	}
	return &ChordDef{Name: name, Notes: notes, DefLine: ln.Line}, nil
}

// parseInstrumentEntry parses "<ch> <program>[,<bankMSB>[/<bankLSB>]] <name>".
func parseInstrumentEntry(ln lexer.Line, d *dict.Dictionary) (InstrumentEntry, error) {
	_ = d
	fields := strings.Fields(ln.Head + " " + ln.Args)
	if len(fields) < 2 {
		return InstrumentEntry{}, errf(ln.File, ln.Line, BadOption, "malformed INSTRUMENTS entry")
	}
	ch, err := parseChannelRef(fields[0])
	if err != nil {
		return InstrumentEntry{}, errf(ln.File, ln.Line, BadOption, "bad channel %q", fields[0])
	}
	progField := fields[1]
	name := strings.Join(fields[2:], " ")

	progText, bankText, hasBank := strings.Cut(progField, ",")
	prog, err := strconv.Atoi(progText)
	if err != nil || prog < 0 || prog > 127 {
		return InstrumentEntry{}, errf(ln.File, ln.Line, BadOption, "bad program %q", progText)
	}
	entry := InstrumentEntry{Channel: ch, Program: uint8(prog), Name: name}
	if hasBank {
		msbText, lsbText, hasLSB := strings.Cut(bankText, "/")
		msb, err := strconv.Atoi(msbText)
		if err != nil || msb < 0 || msb > 127 {
			return InstrumentEntry{}, errf(ln.File, ln.Line, BankOutOfRange, "bad bank MSB %q", msbText)
		}
		entry.HasBank = true
		entry.BankMSB = uint8(msb)
		if hasLSB {
			lsb, err := strconv.Atoi(lsbText)
			if err != nil || lsb < 0 || lsb > 127 {
				return InstrumentEntry{}, errf(ln.File, ln.Line, BankOutOfRange, "bad bank LSB %q", lsbText)
			}
			entry.BankLSB = uint8(lsb)
		}
	}
	return entry, nil
}

func parseChannelRef(s string) (int, error) {
	if s == "p" || s == "P" {
		return PercussionChannel, nil
	}
	if s == "" {
		return 0, fmt.Errorf("empty channel reference")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a channel reference")
		}
		n = n*10 + int(c-'0')
	}
	if n > 15 {
		return 0, fmt.Errorf("channel out of range")
	}
	return n, nil
}
