package irc

import "testing"

func collect(segment string) []string {
	it := newParamIterator(segment)
	var out []string
	for {
		f, ok := it.next()
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out
}

func TestParamIteratorMiddleFields(t *testing.T) {
	got := collect("#chan1 #chan2")
	want := []string{"#chan1", "#chan2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParamIteratorTrailingField(t *testing.T) {
	got := collect("#chan :hello world, how are you?")
	want := []string{"#chan", "hello world, how are you?"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParamIteratorTrailingConsumesFurtherSpaces(t *testing.T) {
	got := collect(": a  b   c")
	if len(got) != 1 || got[0] != " a  b   c" {
		t.Fatalf("trailing field should swallow the rest verbatim, got %v", got)
	}
}

func TestParamIteratorEmptySegment(t *testing.T) {
	if got := collect(""); got != nil {
		t.Fatalf("expected no fields, got %v", got)
	}
}

func TestParamIteratorTrailingWhitespaceIsNotAField(t *testing.T) {
	// "a " ends in a space with nothing after it: per the resolved Open
	// Question, that is not an empty trailing field.
	got := collect("a ")
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v, want [\"a\"]", got)
	}
}

func TestParamIteratorIsPureAndRestartable(t *testing.T) {
	segment := "#a #b :trailing text here"
	first := collect(segment)
	second := collect(segment)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic length: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic field %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestDecomposePrefixNickOnly(t *testing.T) {
	p := decomposePrefix("irc.server.net")
	if p.Nick != "irc.server.net" || p.User != "" || p.Host != "" {
		t.Fatalf("got %+v", p)
	}
}

func TestDecomposePrefixFull(t *testing.T) {
	p := decomposePrefix("nick!user@host")
	if p.Nick != "nick" || p.User != "user" || p.Host != "host" {
		t.Fatalf("got %+v", p)
	}
}

func TestDecomposePrefixUserOnly(t *testing.T) {
	p := decomposePrefix("nick!user")
	if p.Nick != "nick" || p.User != "user" || p.Host != "" {
		t.Fatalf("got %+v", p)
	}
}

func TestDecomposePrefixHostOnly(t *testing.T) {
	p := decomposePrefix("nick@host")
	if p.Nick != "nick" || p.User != "" || p.Host != "host" {
		t.Fatalf("got %+v", p)
	}
}

func TestDecomposePrefixEmpty(t *testing.T) {
	if p := decomposePrefix(""); p.Present() {
		t.Fatalf("expected absent prefix, got %+v", p)
	}
}

func TestDecomposePrefixWhitespaceIsAbsent(t *testing.T) {
	if p := decomposePrefix("nick user@host"); p.Present() {
		t.Fatalf("expected absent prefix for whitespace-containing token, got %+v", p)
	}
}

func TestDecomposePrefixBangAfterAtIsAbsent(t *testing.T) {
	// '@' before '!' is malformed order.
	if p := decomposePrefix("nick@host!user"); p.Present() {
		t.Fatalf("expected absent prefix for malformed delimiter order, got %+v", p)
	}
}
