package bbpe

import (
	"testing"

	"github.com/dlclark/regexp2"
)

func TestByteLevelPrefixNode_AddsSpaceToEveryChunk(t *testing.T) {
	n := &byteLevelPrefixNode{addPrefixSpace: true}
	in := []Chunk{{Text: "foo", Start: 0}, {Text: "bar", Start: 3}}
	out, err := n.apply(in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out) != 2 || out[0].Text != " foo" || out[1].Text != " bar" {
		t.Fatalf("apply = %+v, want prefixed chunks", out)
	}
	// Start offsets are untouched; they describe position in the
	// original segment, not the prefixed text.
	if out[0].Start != 0 || out[1].Start != 3 {
		t.Fatalf("apply changed Start offsets: %+v", out)
	}
}

func TestByteLevelPrefixNode_NoOpWhenDisabled(t *testing.T) {
	n := &byteLevelPrefixNode{addPrefixSpace: false}
	in := []Chunk{{Text: "foo", Start: 0}}
	out, err := n.apply(in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out) != 1 || out[0].Text != "foo" {
		t.Fatalf("apply = %+v, want unchanged", out)
	}
}

func mustCompile(t *testing.T, pattern string) *regexp2.Regexp {
	t.Helper()
	re, err := regexp2.Compile(pattern, regexp2.Unicode)
	if err != nil {
		t.Fatalf("regexp2.Compile(%q): %v", pattern, err)
	}
	return re
}

func TestRegexSplitNode_PreservesAllContent(t *testing.T) {
	n := &regexSplitNode{re: mustCompile(t, `\s+`)}
	text := "hello   world\tfoo"
	out, err := n.apply([]Chunk{{Text: text, Start: 0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var rebuilt string
	for _, c := range out {
		rebuilt += c.Text
	}
	if rebuilt != text {
		t.Fatalf("rebuilt = %q, want %q (content lost)", rebuilt, text)
	}
}

func TestRegexSplitNode_OffsetsMatchOriginalBytePositions(t *testing.T) {
	n := &regexSplitNode{re: mustCompile(t, `\s+`)}
	text := "ab cd"
	out, err := n.apply([]Chunk{{Text: text, Start: 10}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	for _, c := range out {
		if text[c.Start-10:c.Start-10+len(c.Text)] != c.Text {
			t.Fatalf("chunk %+v does not match source text at its reported Start", c)
		}
	}
}

func TestRegexSplitNode_MultibyteRunesOffsetCorrectly(t *testing.T) {
	// "café " has a 2-byte rune (é) before the split point; Start must
	// be a byte offset, not a rune offset, or the offset will be wrong
	// past that point.
	n := &regexSplitNode{re: mustCompile(t, `\s+`)}
	text := "café hello"
	out, err := n.apply([]Chunk{{Text: text, Start: 0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	found := false
	for _, c := range out {
		if c.Text == "hello" {
			found = true
			if text[c.Start:c.Start+len("hello")] != "hello" {
				t.Fatalf("byte offset %d does not point at %q in %q", c.Start, "hello", text)
			}
		}
	}
	if !found {
		t.Fatal("expected a chunk with text \"hello\"")
	}
}

func TestRegexSplitNode_EmptyMatchAdvancesAndTerminates(t *testing.T) {
	// A pattern that can match zero-width (lookahead only) must not
	// hang the scan.
	n := &regexSplitNode{re: mustCompile(t, `(?=x)`)}
	text := "axbxc"
	out, err := n.apply([]Chunk{{Text: text, Start: 0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var rebuilt string
	for _, c := range out {
		rebuilt += c.Text
	}
	if rebuilt != text {
		t.Fatalf("rebuilt = %q, want %q", rebuilt, text)
	}
}

func TestRegexSplitNode_NoMatchReturnsWholeChunk(t *testing.T) {
	n := &regexSplitNode{re: mustCompile(t, `zzz`)}
	out, err := n.apply([]Chunk{{Text: "hello", Start: 0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out) != 1 || out[0].Text != "hello" {
		t.Fatalf("apply = %+v, want single unsplit chunk", out)
	}
}

func TestRegexSplitNode_InvalidUTF8PassesThroughUnmodified(t *testing.T) {
	// 0xff is never valid as a UTF-8 lead byte; converting to []rune and
	// back (the lossy path) would turn it into the 3-byte sequence
	// EF BF BD. Byte-offset re-slicing must not do that.
	n := &regexSplitNode{re: mustCompile(t, `\s+`)}
	text := "a\xff b"
	out, err := n.apply([]Chunk{{Text: text, Start: 0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var rebuilt string
	for _, c := range out {
		rebuilt += c.Text
	}
	if rebuilt != text {
		t.Fatalf("rebuilt = %q (% x), want %q (% x) — invalid byte corrupted", rebuilt, rebuilt, text, text)
	}
}

func TestRegexSplitNode_EmptyChunk(t *testing.T) {
	n := &regexSplitNode{re: mustCompile(t, `\s+`)}
	out, err := n.apply([]Chunk{{Text: "", Start: 0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out) != 1 || out[0].Text != "" {
		t.Fatalf("apply = %+v, want single empty chunk", out)
	}
}
