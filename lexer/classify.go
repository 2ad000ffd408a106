package lexer

import "strings"

// Kind is the top-level line kind recognized by the classifier (spec §4.2).
type Kind int

const (
	ChannelCmd Kind = iota
	Rest
	Global
	MetaOpen
	MetaClose
	MetaEntry
	InstrumentsOpen
	InstrumentsClose
	InstrumentsEntry
	FunctionOpen
	FunctionClose
	BlockOpen
	BlockClose
	Call
	Include
	IncludeFile
	Var
	Const
	Chord
)

func (k Kind) String() string {
	names := [...]string{
		"ChannelCmd", "Rest", "Global", "MetaOpen", "MetaClose", "MetaEntry",
		"InstrumentsOpen", "InstrumentsClose", "InstrumentsEntry",
		"FunctionOpen", "FunctionClose", "BlockOpen", "BlockClose",
		"Call", "Include", "IncludeFile", "Var", "Const", "Chord",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Line is a classified logical line, ready for the resolver/executor.
type Line struct {
	Kind Kind
	File string
	Line int
	// Head is the recognized first token, normalized to lowercase for
	// keyword kinds ("call", "tempo", ...), or the channel reference, also
	// lowercased ("P" becomes "p"), for ChannelCmd/Rest.
	Head string
	// Args is the remainder of the line after the recognized head token,
	// with surrounding whitespace trimmed. For BlockOpen/BlockClose it is
	// the text after the brace.
	Args string
}

type ctxKind int

const (
	ctxTop ctxKind = iota
	ctxMeta
	ctxInstruments
	ctxFunction
)

// Classify turns raw logical lines into classified Lines. It tracks a
// small context stack purely to disambiguate META/INSTRUMENTS entry lines
// (which have no distinguishing keyword) from top-level lines, and to
// route a bare "END" to the right closing Kind. It does not enforce
// structural or context rules — that is pass 1's job (spec §4.5); an
// unmatched END here is still emitted (as the innermost open kind, or as
// FunctionClose if nothing is open) so pass 1 can report the mismatch.
func Classify(raws []RawLine) ([]Line, error) {
	var stack []ctxKind
	out := make([]Line, 0, len(raws))

	top := func() ctxKind {
		if len(stack) == 0 {
			return ctxTop
		}
		return stack[len(stack)-1]
	}

	for _, r := range raws {
		line, newCtx, pushed, popped, err := classifyOne(r, top())
		if err != nil {
			return nil, err
		}
		if popped && len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
		if pushed {
			stack = append(stack, newCtx)
		}
		out = append(out, line)
	}

	return out, nil
}

func classifyOne(r RawLine, ctx ctxKind) (line Line, newCtx ctxKind, pushed, popped bool, err error) {
	text := r.Text

	if strings.HasPrefix(text, "{") {
		return Line{Kind: BlockOpen, File: r.File, Line: r.Line, Head: "{", Args: strings.TrimSpace(text[1:])}, 0, false, false, nil
	}
	if strings.HasPrefix(text, "}") {
		return Line{Kind: BlockClose, File: r.File, Line: r.Line, Head: "}", Args: strings.TrimSpace(text[1:])}, 0, false, false, nil
	}

	first, rest := splitFirst(text)
	lower := strings.ToLower(first)

	switch lower {
	case "instruments":
		return Line{Kind: InstrumentsOpen, File: r.File, Line: r.Line, Head: lower, Args: rest}, ctxInstruments, true, false, nil
	case "meta":
		return Line{Kind: MetaOpen, File: r.File, Line: r.Line, Head: lower, Args: rest}, ctxMeta, true, false, nil
	case "function":
		return Line{Kind: FunctionOpen, File: r.File, Line: r.Line, Head: lower, Args: rest}, ctxFunction, true, false, nil
	case "end":
		switch ctx {
		case ctxMeta:
			return Line{Kind: MetaClose, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, true, nil
		case ctxInstruments:
			return Line{Kind: InstrumentsClose, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, true, nil
		default:
			return Line{Kind: FunctionClose, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, ctx == ctxFunction, nil
		}
	case "call":
		return Line{Kind: Call, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	case "include":
		return Line{Kind: Include, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	case "includefile":
		return Line{Kind: IncludeFile, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	case "var":
		return Line{Kind: Var, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	case "const":
		return Line{Kind: Const, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	case "chord":
		return Line{Kind: Chord, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	case "tempo", "time", "key":
		return Line{Kind: Global, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	}

	switch ctx {
	case ctxMeta:
		return Line{Kind: MetaEntry, File: r.File, Line: r.Line, Head: first, Args: rest}, 0, false, false, nil
	case ctxInstruments:
		return Line{Kind: InstrumentsEntry, File: r.File, Line: r.Line, Head: first, Args: rest}, 0, false, false, nil
	}

	if isChannelRef(lower) {
		second, remainder := splitFirst(rest)
		if strings.ToLower(second) == "rest" {
			return Line{Kind: Rest, File: r.File, Line: r.Line, Head: lower, Args: remainder}, 0, false, false, nil
		}
		return Line{Kind: ChannelCmd, File: r.File, Line: r.Line, Head: lower, Args: rest}, 0, false, false, nil
	}

	return Line{}, 0, false, false, &Error{File: r.File, Line: r.Line, Msg: "unknown token " + first}
}

// isChannelRef reports whether s is a valid channel reference: "0".."15"
// or "p" (percussion alias for channel 9).
func isChannelRef(s string) bool {
	if s == "p" {
		return true
	}
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n >= 0 && n <= 15
}

// splitFirst splits s on the first run of whitespace, returning the first
// field and the (left-trimmed) remainder.
func splitFirst(s string) (first, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}
