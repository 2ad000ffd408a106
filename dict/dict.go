// Package dict loads the bidirectional note / percussion / keyword
// dictionary used to translate MPL source tokens to MIDI numbers. It is
// loaded once from a YAML resource (a compiled-in default, optionally
// overridden) and is read-only for the rest of the compilation, mirroring
// how the teacher's parser.LoadTrack loads its YAML track schema.
package dict

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFS embed.FS

// MiddleC is the MIDI note number used for octave-shift 0 on an
// unmodified note letter (standard "middle C" = 60).
const MiddleC = 60

// config is the on-disk YAML shape.
type config struct {
	Notes      map[string]int `yaml:"notes"`
	Percussion map[string]int `yaml:"percussion"`
	Keywords   []string       `yaml:"keywords"`
}

// Dictionary is the read-only, process-wide table of note names,
// percussion shortcuts, and syntactic keywords.
type Dictionary struct {
	notes      map[string]int // lowercase letter -> semitone offset 0..11
	percussion map[string]int // lowercase shortcut -> GM percussion MIDI number
	keywords   map[string]bool
}

// Default loads the compiled-in default dictionary.
func Default() (*Dictionary, error) {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		return nil, fmt.Errorf("dict: reading embedded default: %w", err)
	}
	return Load(data)
}

// Load parses a dictionary from YAML bytes.
func Load(data []byte) (*Dictionary, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("dict: %w", err)
	}

	d := &Dictionary{
		notes:      make(map[string]int, len(cfg.Notes)),
		percussion: make(map[string]int, len(cfg.Percussion)),
		keywords:   make(map[string]bool, len(cfg.Keywords)),
	}
	for name, semitone := range cfg.Notes {
		d.notes[strings.ToLower(name)] = semitone
	}
	for name, num := range cfg.Percussion {
		d.percussion[strings.ToLower(name)] = num
	}
	for _, kw := range cfg.Keywords {
		d.keywords[strings.ToLower(kw)] = true
	}
	return d, nil
}

// ResolveNote resolves a note token such as "c", "c#", "c+", "c-2" to a
// MIDI note number. The base letter (optionally sharp "#"/flat "b") gives
// the semitone; a trailing run of "+"/"-" (each one octave), or a single
// sign followed by a digit count, shifts octaves relative to MiddleC.
func (d *Dictionary) ResolveNote(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	lower := strings.ToLower(token)

	// Longest matching letter+accidental first ("c#"/"cb" before "c").
	letter := ""
	rest := ""
	for _, cand := range []int{2, 1} {
		if len(lower) >= cand {
			if semitone, ok := d.notes[lower[:cand]]; ok {
				letter = lower[:cand]
				rest = lower[cand:]
				_ = semitone
				break
			}
		}
	}
	if letter == "" {
		return 0, false
	}
	semitone := d.notes[letter]

	shift, err := parseOctaveShift(rest)
	if err != nil {
		return 0, false
	}

	return MiddleC + semitone + 12*shift, true
}

// parseOctaveShift parses the octave-shift suffix of a note token: a run
// of repeated "+"/"-" (one octave each, all the same sign), or a single
// sign followed by a digit count (e.g. "+2").
func parseOctaveShift(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	sign := s[0]
	if sign != '+' && sign != '-' {
		return 0, fmt.Errorf("bad octave shift %q", s)
	}
	mult := 1
	if sign == '-' {
		mult = -1
	}

	// Repeated sign run: "++", "---", etc.
	i := 0
	for i < len(s) && s[i] == sign {
		i++
	}
	if i == len(s) {
		return mult * i, nil
	}
	// Single sign + digit count: "+2", "-3".
	if i != 1 {
		return 0, fmt.Errorf("bad octave shift %q", s)
	}
	n := 0
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("bad octave shift %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return mult * n, nil
}

// ResolvePercussion resolves a percussion shortcut (channel 9 only) to a
// GM MIDI drum number.
func (d *Dictionary) ResolvePercussion(token string) (int, bool) {
	n, ok := d.percussion[strings.ToLower(token)]
	return n, ok
}

// IsKeyword reports whether word is a reserved syntactic keyword
// (including the global directives tempo/time/key and the option keys).
func (d *Dictionary) IsKeyword(word string) bool {
	return d.keywords[strings.ToLower(word)]
}

// IsNoteOrPercussionName reports whether name collides with a note letter
// or a percussion shortcut, used by CHORD definition to reject a chord
// name that shadows one (spec §3, §8 scenario 6).
func (d *Dictionary) IsNoteOrPercussionName(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := d.notes[lower]; ok {
		return true
	}
	if _, ok := d.percussion[lower]; ok {
		return true
	}
	return false
}
