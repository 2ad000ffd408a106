package option

import "testing"

func TestParseBasicOptions(t *testing.T) {
	set, err := Parse("t.mpl", 1, "v=90, d=75%, q=3, m")
	if err != nil {
		t.Fatal(err)
	}
	if set.Velocity == nil || *set.Velocity != 90 {
		t.Errorf("velocity = %v", set.Velocity)
	}
	if set.Duration == nil || set.Duration.Num != 75 || set.Duration.Den != 100 {
		t.Errorf("duration = %v", set.Duration)
	}
	if set.Quantity == nil || *set.Quantity != 3 {
		t.Errorf("quantity = %v", set.Quantity)
	}
	if !set.HasMultiple || !set.Multiple {
		t.Errorf("multiple not set")
	}
}

func TestParseUnknownKeyErrors(t *testing.T) {
	if _, err := Parse("t.mpl", 1, "bogus=1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRepeatedNonQMErrors(t *testing.T) {
	if _, err := Parse("t.mpl", 1, "v=1,v=2"); err == nil {
		t.Fatal("expected error for repeated v")
	}
}

func TestParseRepeatedQAllowed(t *testing.T) {
	if _, err := Parse("t.mpl", 1, "q=2,q=3"); err != nil {
		t.Fatalf("q repetition should be allowed: %v", err)
	}
}

func TestFrameInheritanceOverride(t *testing.T) {
	root := Root()
	outer := Push(root, Set{Velocity: intp(80)})
	inner := Push(outer, Set{})
	if inner.Velocity() != 80 {
		t.Errorf("inner velocity = %d, want inherited 80", inner.Velocity())
	}
	overridden := Push(outer, Set{Velocity: intp(50)})
	if overridden.Velocity() != 50 {
		t.Errorf("overridden velocity = %d, want 50", overridden.Velocity())
	}
	if outer.Velocity() != 80 {
		t.Errorf("outer velocity mutated: got %d", outer.Velocity())
	}
}

func TestFrameQuantityMultipleNeverInherited(t *testing.T) {
	root := Root()
	outer := Push(root, Set{Quantity: intp(4), HasMultiple: true, Multiple: true})
	inner := Push(outer, Set{})
	if inner.Quantity() != 1 {
		t.Errorf("inner quantity = %d, want own default 1", inner.Quantity())
	}
	if inner.Multiple() {
		t.Errorf("inner should not inherit m")
	}
	if outer.Quantity() != 4 || !outer.Multiple() {
		t.Errorf("outer lost its own q/m")
	}
}

func TestFrameShiftAccumulates(t *testing.T) {
	root := Root()
	outer := Push(root, Set{Shift: intp(12)})
	inner := Push(outer, Set{})
	if got := inner.Shift(); got != 12 {
		t.Errorf("inner shift = %d, want inherited 12", got)
	}
	composed := Push(outer, Set{Shift: intp(-5)})
	if got := composed.Shift(); got != 7 {
		t.Errorf("composed shift = %d, want 12 + -5 = 7", got)
	}
}

func TestFrameVelocityDefaultsTo64(t *testing.T) {
	if got := Root().Velocity(); got != 64 {
		t.Errorf("root velocity = %d, want 64", got)
	}
}

func intp(n int) *int { return &n }
