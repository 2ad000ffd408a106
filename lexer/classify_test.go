package lexer

import "testing"

func classifyText(t *testing.T, src string) []Line {
	t.Helper()
	raws, err := Lex(src, "t.mpl")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	lines, err := Classify(raws)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	return lines
}

func TestClassifyChannelAndRest(t *testing.T) {
	lines := classifyText(t, "0 c4\np rest /4\n")
	want := []Kind{ChannelCmd, Rest}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d: got %v, want %v", i, lines[i].Kind, k)
		}
	}
	if lines[1].Head != "p" {
		t.Errorf("rest head = %q, want p", lines[1].Head)
	}
}

func TestClassifyGlobalsAndBlocks(t *testing.T) {
	lines := classifyText(t, "tempo 120\n{ q4\n0 c4\n}\n")
	want := []Kind{Global, BlockOpen, ChannelCmd, BlockClose}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d: got %v, want %v", i, lines[i].Kind, k)
		}
	}
}

func TestClassifyMetaContext(t *testing.T) {
	lines := classifyText(t, "meta\ntitle \"My Song\"\nEND\n")
	want := []Kind{MetaOpen, MetaEntry, MetaClose}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d: got %v, want %v", i, lines[i].Kind, k)
		}
	}
}

func TestClassifyInstrumentsContext(t *testing.T) {
	lines := classifyText(t, "instruments\n0 piano 0\nEND\n")
	want := []Kind{InstrumentsOpen, InstrumentsEntry, InstrumentsClose}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d: got %v, want %v", i, lines[i].Kind, k)
		}
	}
}

func TestClassifyFunctionContext(t *testing.T) {
	lines := classifyText(t, "function lead\n0 c4\nEND\n")
	want := []Kind{FunctionOpen, ChannelCmd, FunctionClose}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d: got %v, want %v", i, lines[i].Kind, k)
		}
	}
}

func TestClassifyCallIncludeVarConstChord(t *testing.T) {
	lines := classifyText(t, "call lead\ninclude helpers\nincludefile \"x.mpl\"\nvar x 4\nconst y 4\nchord maj c e g\n")
	want := []Kind{Call, Include, IncludeFile, Var, Const, Chord}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d: got %v, want %v", i, lines[i].Kind, k)
		}
	}
}

func TestClassifyUnknownToken(t *testing.T) {
	_, err := Classify([]RawLine{{File: "t.mpl", Line: 1, Text: "bogus thing"}})
	if err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestClassifyChannel16Invalid(t *testing.T) {
	_, err := Classify([]RawLine{{File: "t.mpl", Line: 1, Text: "16 c4"}})
	if err == nil {
		t.Fatal("expected error for out-of-range channel")
	}
}
