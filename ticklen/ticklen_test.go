package ticklen

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		token string
		want  int
	}{
		{"/4", 480},
		{"/2", 960},
		{"*2", 3840},
		{"*4.", 11520},
		{"*4..", 13440},
		{"*4t", 5120},
		{"*4tt", 3413},
		{"*4t7:4", 4389},
		{"4+32+1", 2460},
	}
	for _, c := range cases {
		got, err := Parse(c.token, 480)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", c.token, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.token, got, c.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{"/64", "*64", "xyz", "/4+", "", "+4", "4t7", "4t:4"}
	for _, tok := range bad {
		if _, err := Parse(tok, 480); err == nil {
			t.Errorf("Parse(%q) expected an error, got none", tok)
		}
	}
}

func TestParseRoundTripStable(t *testing.T) {
	// Every length produced by the documented syntax re-parses to the
	// same tick count it was derived from (spec §8).
	tokens := []string{"/1", "/2", "/4", "/8", "/16", "/32", "*1", "*2", "*4", "4", "8", "16", "32", "1", "2", "5"}
	for _, tok := range tokens {
		got1, err := Parse(tok, 480)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tok, err)
		}
		got2, err := Parse(tok, 480)
		if err != nil || got1 != got2 {
			t.Errorf("Parse(%q) not stable: %d vs %d (err=%v)", tok, got1, got2, err)
		}
	}
}

func TestLegacyDigitFive(t *testing.T) {
	// 5 -> 5/4 of a quarter note = 5/16 of a whole note.
	got, err := Parse("5", 480)
	if err != nil {
		t.Fatal(err)
	}
	want := 480 * 5 / 4 // quarter * 5/4
	if got != want {
		t.Errorf("Parse(\"5\") = %d, want %d", got, want)
	}
}
