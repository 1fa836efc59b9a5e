package hash

import (
	"strings"
	"testing"
)

func TestCanonicalSortsKeys(t *testing.T) {
	got, err := Canonical(map[string]any{"b": 2, "a": []any{true, nil}, "c": "x<y"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":[true,null],"b":2,"c":"x<y"}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCanonicalStructMatchesMap(t *testing.T) {
	type pair struct {
		Z float64 `json:"z"`
		A string  `json:"a"`
	}
	fromStruct, err := Canonical(pair{Z: 0.045, A: "g"})
	if err != nil {
		t.Fatal(err)
	}
	fromMap, err := Canonical(map[string]any{"a": "g", "z": 0.045})
	if err != nil {
		t.Fatal(err)
	}
	if string(fromStruct) != string(fromMap) {
		t.Fatalf("struct %s != map %s", fromStruct, fromMap)
	}
}

func TestDigestDeterministic(t *testing.T) {
	a, err := Digest(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Digest(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected same digest, got %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "sha256:") || len(a) != len("sha256:")+64 {
		t.Fatalf("unexpected digest format %q", a)
	}

	c, err := Digest(map[string]any{"a": 1, "b": 3})
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatal("different values produced the same digest")
	}
}

func TestDigestRejectsUnencodable(t *testing.T) {
	if _, err := Digest(map[string]any{"f": func() {}}); err == nil {
		t.Fatal("expected error for unencodable value")
	}
}
