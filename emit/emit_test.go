package emit

import (
	"bytes"
	"testing"
)

func TestFinishProducesChannelAndMetaTracks(t *testing.T) {
	b := NewBuilder(480)
	b.MetaTempo(120, 0)
	b.ProgramChange(0, 0, 0)
	b.NoteOn(0, 60, 100, 0)
	b.NoteOff(0, 60, 480)

	seq, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := seq.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty MIDI bytes")
	}
}

func TestOrderingPreservedAtEqualTick(t *testing.T) {
	b := NewBuilder(480)
	b.NoteOn(0, 60, 100, 0)
	b.NoteOn(0, 64, 100, 0)
	b.NoteOn(0, 67, 100, 0)

	if len(b.chanEvents[0]) != 3 {
		t.Fatalf("expected 3 queued events, got %d", len(b.chanEvents[0]))
	}
	track, sorted := toTrack(b.chanEvents[0])
	_ = track
	if len(sorted) != 3 {
		t.Fatalf("expected 3 sorted events, got %d", len(sorted))
	}
	if sorted[0].seq != 1 || sorted[1].seq != 2 || sorted[2].seq != 3 {
		t.Errorf("same-tick events should keep insertion order: %+v", sorted)
	}
}

func TestDumpReturnsFlattenedEvents(t *testing.T) {
	b := NewBuilder(480)
	b.MetaTempo(120, 0)
	b.NoteOn(2, 60, 100, 0)
	b.NoteOff(2, 60, 480)

	seq, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	events := seq.Dump()
	if len(events) != 3 {
		t.Fatalf("expected 3 dump events, got %d", len(events))
	}
	foundMeta := false
	foundChan := false
	for _, e := range events {
		if e.Channel == -1 {
			foundMeta = true
		}
		if e.Channel == 2 {
			foundChan = true
		}
	}
	if !foundMeta || !foundChan {
		t.Errorf("expected both meta and channel events, got %+v", events)
	}
}

func TestFinishProducesThreeMetaTracksAndSixteenChannelTracks(t *testing.T) {
	b := NewBuilder(480)
	b.MetaTempo(120, 0)
	b.NoteOn(0, 60, 100, 0)
	b.NoteOff(0, 60, 480)

	seq, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if got := seq.TrackCount(); got != NumMetaTracks+NumChannels {
		t.Errorf("track count = %d, want %d", got, NumMetaTracks+NumChannels)
	}
}

func TestMetaKindString(t *testing.T) {
	if SetTempo.String() != "set_tempo" {
		t.Errorf("got %q", SetTempo.String())
	}
}
