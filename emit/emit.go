// Package emit is the event emitter and sequence builder (spec §4.6): a
// thin, order-preserving accumulator of MIDI events that the compiler
// feeds absolute ticks into, and that assembles a standard MIDI file on
// Finish. It is grounded directly on the teacher's
// midi.GenerateFromTrack: collect events with absolute ticks, sort them,
// then delta-encode while walking a running prevTick per track.
package emit

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MetaKind enumerates the meta event kinds spec §4.6 names.
type MetaKind int

const (
	SetTempo MetaKind = iota
	TimeSig
	KeySig
	Text
	InstrumentName
	Lyrics
	Marker
)

// NumChannels is the fixed channel-track count (spec §3: 16 ChannelState).
const NumChannels = 16

// event is one scheduled message, carrying an insertion sequence number
// so same-tick events preserve program order through a stable sort
// (spec §4.6 invariant: "events at equal ticks preserve insertion order").
type event struct {
	tick uint32
	seq  int
	msg  midi.Message
}

// Builder accumulates events for meta track 0 and the 16 channel tracks.
// Finish additionally emits two empty meta tracks (1 and 2) to bring the
// sequence up to the spec's documented three-meta-track shape. It is not
// safe for concurrent use; one Builder belongs to one compiler instance
// (spec §5).
type Builder struct {
	resolution uint16
	metaEvents []event
	chanEvents [NumChannels][]event
	seq        int
}

// NewBuilder returns a Builder ticking at the given resolution (ticks per
// quarter note).
func NewBuilder(resolution uint16) *Builder {
	return &Builder{resolution: resolution}
}

func (b *Builder) nextSeq() int {
	b.seq++
	return b.seq
}

// NoteOn emits a note-on at tick on channel.
func (b *Builder) NoteOn(channel, note, velocity uint8, tick uint32) {
	b.chanEvents[channel] = append(b.chanEvents[channel], event{
		tick: tick, seq: b.nextSeq(), msg: midi.NoteOn(channel, note, velocity),
	})
}

// NoteOff emits a note-off (velocity 0 note-off, per spec §6's "status
// 0x8n with velocity 0") at tick on channel.
func (b *Builder) NoteOff(channel, note uint8, tick uint32) {
	b.chanEvents[channel] = append(b.chanEvents[channel], event{
		tick: tick, seq: b.nextSeq(), msg: midi.NoteOff(channel, note),
	})
}

// ProgramChange emits a program-change at tick on channel.
func (b *Builder) ProgramChange(channel, program uint8, tick uint32) {
	b.chanEvents[channel] = append(b.chanEvents[channel], event{
		tick: tick, seq: b.nextSeq(), msg: midi.ProgramChange(channel, program),
	})
}

// BankSelect emits the bank-select MSB/LSB control-change pair (spec §6:
// "control-change (bank select MSB=0x00, LSB=0x20)") at tick on channel.
func (b *Builder) BankSelect(channel, msb, lsb uint8, tick uint32) {
	b.chanEvents[channel] = append(b.chanEvents[channel],
		event{tick: tick, seq: b.nextSeq(), msg: midi.ControlChange(channel, 0x00, msb)},
		event{tick: tick, seq: b.nextSeq(), msg: midi.ControlChange(channel, 0x20, lsb)},
	)
}

// InstrumentName emits an instrument-name meta event on channel's own
// track at tick.
func (b *Builder) InstrumentName(channel uint8, name string, tick uint32) {
	b.chanEvents[channel] = append(b.chanEvents[channel], event{
		tick: tick, seq: b.nextSeq(), msg: smf.MetaInstrument(name),
	})
}

// MetaTempo emits a set-tempo meta event on the meta track at tick.
func (b *Builder) MetaTempo(bpm float64, tick uint32) {
	b.metaEvents = append(b.metaEvents, event{tick: tick, seq: b.nextSeq(), msg: smf.MetaTempo(bpm)})
}

// MetaTimeSig emits a time-signature meta event on the meta track at tick.
func (b *Builder) MetaTimeSig(numerator, denominator uint8, tick uint32) {
	b.metaEvents = append(b.metaEvents, event{tick: tick, seq: b.nextSeq(), msg: smf.MetaMeter(numerator, denominator)})
}

// MetaKeySig emits a key-signature meta event on the meta track at tick.
// key is the tonic as a semitone offset 0..11 from C; minor marks the key
// as the minor mode of that tonic.
func (b *Builder) MetaKeySig(key uint8, minor bool, tick uint32) {
	b.metaEvents = append(b.metaEvents, event{tick: tick, seq: b.nextSeq(), msg: smf.MetaKey(key, !minor, 0, false)})
}

// MetaText emits a free-form text meta event (the META block's combined
// title/composer/lyricist/artist/copyright text, spec §4.5) at tick.
func (b *Builder) MetaText(text string, tick uint32) {
	b.metaEvents = append(b.metaEvents, event{tick: tick, seq: b.nextSeq(), msg: smf.MetaText(text)})
}

// MetaLyrics emits one karaoke syllable at tick, attached to the meta
// track's lyrics timeline.
func (b *Builder) MetaLyrics(syllable string, tick uint32) {
	b.metaEvents = append(b.metaEvents, event{tick: tick, seq: b.nextSeq(), msg: smf.MetaLyric(syllable)})
}

// MetaMarker emits a marker meta event at tick.
func (b *Builder) MetaMarker(name string, tick uint32) {
	b.metaEvents = append(b.metaEvents, event{tick: tick, seq: b.nextSeq(), msg: smf.MetaMarker(name)})
}

// Sequence is the built result: an assembled standard MIDI file, ready to
// be written out.
type Sequence struct {
	smf        *smf.SMF
	dumped     []DumpEvent
	trackCount int
}

// TrackCount reports how many tracks Finish wrote into the sequence
// (spec §6: three meta tracks plus sixteen channel tracks, so 19).
func (s *Sequence) TrackCount() int {
	return s.trackCount
}

// WriteTo writes the sequence as a standard MIDI file.
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	return s.smf.WriteTo(w)
}

// DumpEvent is one flattened, human-readable event, in final playback
// order, for external diagnostic consumers (spec §6: "consume ... the
// compiler's data structures only through the interfaces described in
// §6"). Channel is -1 for a meta-track event.
type DumpEvent struct {
	Channel int
	Tick    uint32
	Text    string
}

// Dump returns every event across the meta track and the 16 channel
// tracks, each already delta-less (absolute tick) and in final,
// tiebreak-stable order, in the same shape the teacher's strudel
// generator walked its parsed Track structure to emit text.
func (s *Sequence) Dump() []DumpEvent {
	return s.dumped
}

// NumMetaTracks is the fixed meta-track count (spec §6: "three meta
// tracks plus sixteen channel tracks"). Only meta track 0 carries events
// (set-tempo, time/key signatures, text, lyrics, markers); tracks 1 and 2
// exist to satisfy the documented track count and carry none (see
// DESIGN.md's Open Questions).
const NumMetaTracks = 3

// Finish assembles the three meta tracks and the 16 channel tracks (spec
// §6: "three meta tracks plus sixteen channel tracks"), each delta-encoded
// from its absolute-tick events in stable tick order.
func (b *Builder) Finish() (*Sequence, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(b.resolution)

	var dumped []DumpEvent

	meta, metaSorted := toTrack(b.metaEvents)
	s.Add(meta)
	for _, e := range metaSorted {
		dumped = append(dumped, DumpEvent{Channel: -1, Tick: e.tick, Text: e.msg.String()})
	}

	for i := 1; i < NumMetaTracks; i++ {
		empty, _ := toTrack(nil)
		s.Add(empty)
	}

	for ch := 0; ch < NumChannels; ch++ {
		track, sorted := toTrack(b.chanEvents[ch])
		s.Add(track)
		for _, e := range sorted {
			dumped = append(dumped, DumpEvent{Channel: ch, Tick: e.tick, Text: e.msg.String()})
		}
	}

	// Merge the per-track lists into playback order: by tick across
	// tracks, keeping track order (meta first) and in-track order on ties.
	sort.SliceStable(dumped, func(i, j int) bool { return dumped[i].Tick < dumped[j].Tick })

	return &Sequence{smf: s, dumped: dumped, trackCount: NumMetaTracks + NumChannels}, nil
}

// toTrack stable-sorts events by tick (ties keep insertion order via seq),
// delta-encodes them into an smf.Track, and returns the sorted events
// alongside it for Dump.
func toTrack(events []event) (smf.Track, []event) {
	sorted := make([]event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].tick != sorted[j].tick {
			return sorted[i].tick < sorted[j].tick
		}
		return sorted[i].seq < sorted[j].seq
	})

	var track smf.Track
	prevTick := uint32(0)
	for _, e := range sorted {
		delta := e.tick - prevTick
		track.Add(delta, e.msg)
		prevTick = e.tick
	}
	track.Close(0)
	return track, sorted
}

func (k MetaKind) String() string {
	switch k {
	case SetTempo:
		return "set_tempo"
	case TimeSig:
		return "time_sig"
	case KeySig:
		return "key_sig"
	case Text:
		return "text"
	case InstrumentName:
		return "instrument_name"
	case Lyrics:
		return "lyrics"
	case Marker:
		return "marker"
	default:
		return fmt.Sprintf("MetaKind(%d)", int(k))
	}
}
