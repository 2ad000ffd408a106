package report

import (
	"strings"
	"testing"

	"mplc/compiler"
)

func TestBoxIncludesInstrumentsAndWarnings(t *testing.T) {
	s := Summary{
		SourceFile: "song.mpl",
		Resolution: 480,
		Instruments: []InstrumentLine{
			{Channel: 0, Program: 0, Name: "Piano"},
		},
		Warnings: []compiler.Warning{
			{File: "song.mpl", Line: 3, Msg: "length rounds to zero ticks"},
		},
	}
	out := Box(s)
	if !strings.Contains(out, "song.mpl") {
		t.Errorf("box missing source file: %q", out)
	}
	if !strings.Contains(out, "Piano") {
		t.Errorf("box missing instrument name: %q", out)
	}
	if !strings.Contains(out, "warning") {
		t.Errorf("box missing warning count: %q", out)
	}
}

func TestPlainHasNoBoxDrawing(t *testing.T) {
	s := Summary{SourceFile: "song.mpl", Resolution: 480}
	out := Plain(s)
	if strings.ContainsAny(out, "╭╮╯╰│─") {
		t.Errorf("plain output should not contain box-drawing characters: %q", out)
	}
}
