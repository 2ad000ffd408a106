package compiler

import (
	"strconv"
	"strings"

	"mplc/lexer"
	"mplc/option"
	"mplc/ticklen"
)

// execChannelCmd executes "<ch> <note-or-chord> <length> [, options]"
// (spec §4.5).
func (e *Executor) execChannelCmd(ln lexer.Line, frame *option.Frame) error {
	ch, err := e.resolveChannelRef(ln, ln.Head)
	if err != nil {
		return err
	}

	argsText, err := e.scope.Substitute(ln.File, ln.Line, ln.Args)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, UnknownVar)
	}
	noteTok, lengthTok, optsText, err := splitNoteLengthOpts(argsText)
	if err != nil {
		return errf(ln.File, ln.Line, BadLength, "%s", err.Error())
	}

	set, err := option.Parse(ln.File, ln.Line, optsText)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, BadOption)
	}
	child := option.Push(frame, set)

	lengthTicksInt, err := ticklen.Parse(lengthTok, e.resolution)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, BadLength)
	}
	lengthTicks := int64(lengthTicksInt)
	if lengthTicks == 0 {
		e.warnings = append(e.warnings, Warning{File: ln.File, Line: ln.Line, Msg: "length rounds to zero ticks"})
	}

	notes, err := e.resolveNoteOrChord(ch, noteTok)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, UnknownNote)
	}
	shift := child.Shift()
	velocity := uint8(child.Velocity())
	ratio := child.DurationRatio()

	subCount := 1
	if set.Tremolo != nil {
		subCount = *set.Tremolo
	}

	snapshot := e.channels[ch].CurrentTick
	for iter := 0; iter < child.Quantity(); iter++ {
		tick := e.channels[ch].CurrentTick
		subLen := lengthTicks / int64(subCount)
		remainder := lengthTicks - subLen*int64(subCount)
		subTick := tick

		for s := 0; s < subCount; s++ {
			thisLen := subLen
			if s == subCount-1 {
				thisLen += remainder
			}
			off := subTick + applyDurationRatio(thisLen, ratio)
			// All note-ons before any note-off, so a chord whose off
			// tick coincides with its on tick (d=0%, or a length
			// rounding to zero) still plays as a chord instead of
			// interleaving on/off pairs (spec §5).
			for _, base := range notes {
				note := clampNote(int(base) + shift)
				e.builder.NoteOn(uint8(ch), note, velocity, uint32(subTick))
			}
			for _, base := range notes {
				note := clampNote(int(base) + shift)
				e.builder.NoteOff(uint8(ch), note, uint32(off))
			}
			subTick += thisLen
		}
		if set.Lyrics != nil {
			e.builder.MetaLyrics(*set.Lyrics, uint32(tick))
		}
		e.channels[ch].CurrentTick += lengthTicks
	}
	if child.Multiple() {
		e.channels[ch].CurrentTick = snapshot
	}
	return nil
}

// execRest executes "<ch> rest <length> [, options]": advances the tick
// without emitting note events, but may still carry lyrics.
func (e *Executor) execRest(ln lexer.Line, frame *option.Frame) error {
	ch, err := e.resolveChannelRef(ln, ln.Head)
	if err != nil {
		return err
	}

	argsText, err := e.scope.Substitute(ln.File, ln.Line, ln.Args)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, UnknownVar)
	}
	lengthTok, optsText := splitFirstField(argsText)

	set, err := option.Parse(ln.File, ln.Line, optsText)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, BadOption)
	}
	child := option.Push(frame, set)

	lengthTicksInt, err := ticklen.Parse(lengthTok, e.resolution)
	if err != nil {
		return asCompileError(err, ln.File, ln.Line, BadLength)
	}
	lengthTicks := int64(lengthTicksInt)
	if lengthTicks == 0 {
		e.warnings = append(e.warnings, Warning{File: ln.File, Line: ln.Line, Msg: "rest too small to be represented exactly"})
	}

	snapshot := e.channels[ch].CurrentTick
	for iter := 0; iter < child.Quantity(); iter++ {
		tick := e.channels[ch].CurrentTick
		if set.Lyrics != nil {
			e.builder.MetaLyrics(*set.Lyrics, uint32(tick))
		}
		e.channels[ch].CurrentTick += lengthTicks
	}
	if child.Multiple() {
		e.channels[ch].CurrentTick = snapshot
	}
	return nil
}

// resolveChannelRef substitutes and parses a channel reference,
// reporting UnknownChannelUse for an out-of-range or malformed one.
func (e *Executor) resolveChannelRef(ln lexer.Line, raw string) (int, error) {
	text, err := e.scope.Substitute(ln.File, ln.Line, raw)
	if err != nil {
		return 0, asCompileError(err, ln.File, ln.Line, UnknownVar)
	}
	ch, err := parseChannelRef(strings.TrimSpace(text))
	if err != nil {
		return 0, errf(ln.File, ln.Line, UnknownChannelUse, "bad channel reference %q", text)
	}
	return ch, nil
}

// resolveNoteOrChord resolves a single channel-command note token: a
// defined chord name expands to its member notes, otherwise the token is
// a single note (numeric, lettered, or a percussion shortcut on the
// percussion channel).
func (e *Executor) resolveNoteOrChord(ch int, token string) ([]int, error) {
	if cd, ok := e.prog.Chords[token]; ok {
		notes := make([]int, 0, len(cd.Notes))
		for _, nt := range cd.Notes {
			n, err := e.resolveSingleNote(ch, nt)
			if err != nil {
				return nil, err
			}
			notes = append(notes, n)
		}
		return notes, nil
	}
	n, err := e.resolveSingleNote(ch, token)
	if err != nil {
		return nil, err
	}
	return []int{n}, nil
}

func (e *Executor) resolveSingleNote(ch int, token string) (int, error) {
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 || n > 127 {
			return 0, fieldError("note number out of range")
		}
		return n, nil
	}
	if ch == PercussionChannel {
		if n, ok := e.dict.ResolvePercussion(token); ok {
			return n, nil
		}
	}
	if n, ok := e.dict.ResolveNote(token); ok {
		return n, nil
	}
	return 0, fieldError("unknown note or percussion name " + token)
}

func clampNote(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

// applyDurationRatio computes round(length * ratio) with ties broken
// half-up (spec §4.5).
func applyDurationRatio(length int64, ratio option.Duration) int64 {
	if ratio.Den == 0 {
		return length
	}
	num := length * ratio.Num
	return (num + ratio.Den/2) / ratio.Den
}

// splitNoteLengthOpts splits a channel command's substituted argument
// text into its note token, length token, and trailing option text.
func splitNoteLengthOpts(text string) (note, length, opts string, err error) {
	note, rest := splitFirstField(text)
	if note == "" {
		return "", "", "", errEmptyField("note")
	}
	length, opts = splitFirstField(rest)
	if length == "" {
		return "", "", "", errEmptyField("length")
	}
	return note, length, opts, nil
}

// splitFirstField splits s into its first whitespace-delimited field and
// the remainder; a remainder beginning with "," has that comma (and
// surrounding space) stripped, since it introduces the option list.
func splitFirstField(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t,")
	if i < 0 {
		return s, ""
	}
	first = s[:i]
	rest = strings.TrimSpace(s[i:])
	rest = strings.TrimPrefix(rest, ",")
	rest = strings.TrimSpace(rest)
	return first, rest
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

func errEmptyField(what string) error {
	return fieldError("missing " + what)
}
