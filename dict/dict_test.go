package dict

import "testing"

func TestResolveNote(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		token string
		want  int
	}{
		{"c", 60},
		{"c+", 72},
		{"c-", 48},
		{"c+2", 84},
		{"c-1", 48},
		{"c#", 61},
		{"db", 61},
	}
	for _, c := range cases {
		got, ok := d.ResolveNote(c.token)
		if !ok {
			t.Errorf("ResolveNote(%q): not found", c.token)
			continue
		}
		if got != c.want {
			t.Errorf("ResolveNote(%q) = %d, want %d", c.token, got, c.want)
		}
	}
}

func TestResolvePercussion(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	n, ok := d.ResolvePercussion("kick")
	if !ok || n != 36 {
		t.Errorf("ResolvePercussion(kick) = %d, %v, want 36, true", n, ok)
	}
}

func TestChordNameCollision(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsNoteOrPercussionName("c") {
		t.Error("expected \"c\" to collide with a note name")
	}
	if d.IsNoteOrPercussionName("mychord") {
		t.Error("did not expect \"mychord\" to collide")
	}
}
