// Package strudelexport is a thin external-collaborator export: a
// human-readable textual dump of a compiled sequence, in the same
// "walk the structure, emit text" shape as the teacher's Strudel/Tidal
// code generator (strudel/generator.go's GenerateStrudel), but scoped to
// a diagnostic dump rather than a full foreign-language code generator —
// spec.md's external-interfaces section licenses consuming the
// compiler's output data, not reimplementing Strudel pattern generation.
package strudelexport

import (
	"fmt"
	"strings"

	"mplc/emit"
)

// Dump renders every event of seq as one line per event, ordered exactly
// as it will play back, in "tick  channel  text" columns.
func Dump(sourceName string, seq *emit.Sequence) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// %s\n", sourceName)
	fmt.Fprintf(&sb, "// exported event dump, tick-ordered\n\n")

	for _, e := range seq.Dump() {
		channel := "meta"
		if e.Channel >= 0 {
			channel = fmt.Sprintf("ch%d", e.Channel)
		}
		fmt.Fprintf(&sb, "%8d  %-5s  %s\n", e.Tick, channel, e.Text)
	}

	return sb.String()
}
