package bbpe

import (
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// Chunk is one fragment produced by the pre-tokenizer chain. Start is
// the byte offset in the original input where Text's source bytes
// begin, carried through purely so EncodeWithOffsets can report which
// slice of the original input a token group came from — it plays no
// part in BPE merging itself.
type Chunk struct {
	Text  string
	Start int
}

// preTokenizerNode is one stage of the chain described in spec.md §4.3:
// it consumes the previous stage's chunk list and produces the next
// one, independently per chunk.
type preTokenizerNode interface {
	apply(chunks []Chunk) ([]Chunk, error)
}

// byteLevelPrefixNode implements the "ByteLevel" pre-tokenizer variant:
// it never splits, it only optionally prepends a leading space.
type byteLevelPrefixNode struct {
	addPrefixSpace bool
}

func (n *byteLevelPrefixNode) apply(chunks []Chunk) ([]Chunk, error) {
	if !n.addPrefixSpace {
		return chunks, nil
	}
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = Chunk{Text: " " + c.Text, Start: c.Start}
	}
	return out, nil
}

// regexSplitNode implements the "Split" pre-tokenizer variant: it splits
// a chunk into alternating between-match and matched pieces, in order,
// never dropping text (spec.md §4.3's invariant).
type regexSplitNode struct {
	re *regexp2.Regexp
}

// regexp2 matches are indexed in runes, not bytes (it matches against
// the .NET-style rune view of the string). splitOne therefore needs a
// rune-index → byte-offset table to translate match positions back to
// byte spans — but it must re-slice c.Text by those byte offsets, never
// rebuild text from the decoded runes themselves: converting to []rune
// replaces every invalid UTF-8 byte with U+FFFD, and re-encoding that
// back to a string would corrupt the original bytes before byte
// expansion ever sees them, breaking encode's "process as raw bytes,
// guaranteed to succeed" guarantee (spec.md §6) for any text containing
// invalid UTF-8 once a Split pre-tokenizer is configured.
func (n *regexSplitNode) apply(chunks []Chunk) ([]Chunk, error) {
	var out []Chunk
	for _, c := range chunks {
		pieces, err := n.splitOne(c)
		if err != nil {
			return nil, err
		}
		out = append(out, pieces...)
	}
	return out, nil
}

// runeByteOffsets walks s exactly as Go's (and regexp2's) rune decoding
// does — one U+FFFD of width 1 per invalid byte, via
// utf8.DecodeRuneInString — and records each rune index's byte offset
// in s, so callers can map a regexp2 match's rune-based Index/Length
// back to a byte span without ever re-encoding a decoded rune.
func runeByteOffsets(s string) []int {
	offsets := make([]int, 1, len(s)+1)
	offsets[0] = 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		offsets = append(offsets, i)
	}
	return offsets
}

func (n *regexSplitNode) splitOne(c Chunk) ([]Chunk, error) {
	if c.Text == "" {
		return []Chunk{c}, nil
	}

	byteOffset := runeByteOffsets(c.Text)
	nRunes := len(byteOffset) - 1

	var out []Chunk
	pos := 0
	matched := false

	m, err := n.re.FindStringMatch(c.Text)
	if err != nil {
		return nil, errors.Wrap(err, "bbpe: regex match failed")
	}
	for m != nil {
		matched = true
		start := m.Index
		length := m.Length

		if length == 0 {
			// A zero-width match (lookahead-only pattern) consumes no
			// text, so it must not advance pos or it would drop the
			// rune under the lookahead. regexp2 advances its own scan
			// position past a zero-length match on the next
			// FindNextMatch call, which is what keeps this loop from
			// matching the same spot forever.
			m, err = n.re.FindNextMatch(m)
			if err != nil {
				return nil, errors.Wrap(err, "bbpe: regex match failed")
			}
			continue
		}

		end := start + length
		if start > pos {
			out = append(out, Chunk{Text: c.Text[byteOffset[pos]:byteOffset[start]], Start: c.Start + byteOffset[pos]})
		}
		out = append(out, Chunk{Text: c.Text[byteOffset[start]:byteOffset[end]], Start: c.Start + byteOffset[start]})
		pos = end

		m, err = n.re.FindNextMatch(m)
		if err != nil {
			return nil, errors.Wrap(err, "bbpe: regex match failed")
		}
	}

	if !matched {
		return []Chunk{c}, nil
	}
	if pos < nRunes {
		out = append(out, Chunk{Text: c.Text[byteOffset[pos]:], Start: c.Start + byteOffset[pos]})
	}
	if len(out) == 0 {
		// The whole chunk was consumed by zero-length matches with
		// nothing emitted: never return an empty chunk list, the chain
		// must never lose text (spec.md §4.3's invariant).
		return []Chunk{c}, nil
	}
	return out, nil
}
