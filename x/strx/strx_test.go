package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "ranged"); got != "ranged" {
		t.Fatalf("got %q", got)
	}
	if got := Coalesce("direct", "ranged"); got != "direct" {
		t.Fatalf("got %q", got)
	}
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"armed":       "armed",
		" Armed\n":    "armed",
		"DIRECT":      "direct",
		"\tdisArmed ": "disarmed",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q)=%q want %q", in, got, want)
		}
	}
}
