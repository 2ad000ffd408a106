package compiler

import (
	"testing"

	"mplc/dict"
)

func testDict(t *testing.T) *dict.Dictionary {
	t.Helper()
	d, err := dict.Default()
	if err != nil {
		t.Fatalf("dict.Default: %v", err)
	}
	return d
}

func mustCompile(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Compile([]byte(src), "test.mpl", Options{Dictionary: testDict(t)})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func compileErr(t *testing.T, src string) *CompileError {
	t.Helper()
	_, err := Compile([]byte(src), "test.mpl", Options{Dictionary: testDict(t)})
	if err == nil {
		t.Fatalf("expected error, got none")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %T: %v", err, err)
	}
	return ce
}

// Scenario: nested multiple/function tick propagation (spec §8): a
// function called with m (multiple) leaves the channel tick where it
// started, but the plain command after it in the enclosing block still
// advances normally.
func TestNestedMultipleFunctionTickPropagation(t *testing.T) {
	src := `
FUNCTION inner
	0 c 4
	0 c 4
END

{ q=2
	CALL inner, m=1
	0 c 4
}
`
	res := mustCompile(t, src)
	if res.Sequence == nil {
		t.Fatalf("nil sequence")
	}
	// Each iteration plays the call's two quarters from the iteration's
	// start tick, then one quarter that advances it by 480; the second
	// iteration starts at 480, so the last note-off is at 480 + 960.
	var last uint32
	for _, ev := range res.Sequence.Dump() {
		if ev.Channel == 0 && ev.Tick > last {
			last = ev.Tick
		}
	}
	if last != 1440 {
		t.Errorf("last channel-0 event tick = %d, want 1440", last)
	}
}

func TestLengthParsingTable(t *testing.T) {
	cases := []string{"4", "8", "4.", "4..", "4t", "/4", "*2", "4+8"}
	for _, length := range cases {
		src := "0 c " + length + "\n"
		if _, err := Compile([]byte(src), "test.mpl", Options{Dictionary: testDict(t)}); err != nil {
			t.Errorf("length %q: unexpected error: %v", length, err)
		}
	}
}

func TestShiftOptionOctaveTransposition(t *testing.T) {
	src := `0 c 4, s=12
`
	mustCompile(t, src)
}

func TestDurationRatioNoteOffTiming(t *testing.T) {
	src := `0 c 4, d=75%
`
	mustCompile(t, src)
}

func TestInstrumentsWithBankNumbers(t *testing.T) {
	src := `INSTRUMENTS
0 0,1/2 Piano
END
0 c 4
`
	mustCompile(t, src)
}

func TestUnclosedBlockIsStructuralMismatch(t *testing.T) {
	src := `{
	0 c 4
`
	ce := compileErr(t, src)
	if ce.Kind != StructuralMismatch {
		t.Errorf("kind = %v, want StructuralMismatch", ce.Kind)
	}
	if ce.Line != 1 {
		t.Errorf("line = %d, want 1 (the opener)", ce.Line)
	}
}

func TestChordRedefinitionCollidesWithNoteName(t *testing.T) {
	src := `CHORD c = c,d,e
0 c/4
`
	ce := compileErr(t, src)
	if ce.Kind != Redefinition {
		t.Errorf("kind = %v, want Redefinition", ce.Kind)
	}
}

func TestVarInsideInstrumentsIsContextViolation(t *testing.T) {
	src := `INSTRUMENTS
VAR $x = 1
END
`
	ce := compileErr(t, src)
	if ce.Kind != ContextViolation {
		t.Errorf("kind = %v, want ContextViolation", ce.Kind)
	}
}

func TestNestedFunctionDefinitionIsContextViolation(t *testing.T) {
	src := `FUNCTION outer
	FUNCTION inner
	END
END
`
	ce := compileErr(t, src)
	if ce.Kind != ContextViolation {
		t.Errorf("kind = %v, want ContextViolation", ce.Kind)
	}
}

func TestRecursiveCallIsRejected(t *testing.T) {
	src := `FUNCTION loop
	CALL loop
END

CALL loop
`
	ce := compileErr(t, src)
	if ce.Kind != RecursiveCall {
		t.Errorf("kind = %v, want RecursiveCall", ce.Kind)
	}
}

func TestIncludeFileMissingIsFileNotFound(t *testing.T) {
	// INCLUDEFILE pointing at a nonexistent path must fail as
	// FileNotFound, not panic or hang. (Including the same file twice is
	// legal; only an include cycle is rejected, with IncludeCycle.)
	src := `INCLUDEFILE "does-not-exist.mpl"
`
	ce := compileErr(t, src)
	if ce.Kind != FileNotFound {
		t.Errorf("kind = %v, want FileNotFound", ce.Kind)
	}
}

func TestQZeroSkipsBlockBody(t *testing.T) {
	src := `{ q=0
	0 c 4
}
`
	mustCompile(t, src)
}

func TestConstAndVarCoexistAsSeparateNamespaces(t *testing.T) {
	src := `CONST $n = 4
VAR $n = 8
0 c $n
`
	mustCompile(t, src)
}

func TestGlobalDirectiveSynchronizesChannels(t *testing.T) {
	src := `0 c 4
1 c 8
TEMPO 120
0 c 4
`
	mustCompile(t, src)
}

func TestBuiltinInstrumentsInclude(t *testing.T) {
	src := `INCLUDE instruments.midica
0 c 4
`
	mustCompile(t, src)
}
