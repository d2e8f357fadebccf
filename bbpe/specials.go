package bbpe

import "sort"

// specialSegment is one piece of the alternating Normal/Special sequence
// the splitter produces (spec.md §4.2).
type specialSegment struct {
	special bool
	id      int32
	text    string
	start   int
	end     int
}

// SpecialTokens matches literal special-token strings before any
// pre-tokenization runs. Candidates are bucketed by first byte, each
// bucket sorted longest-first, so the common case — no special token
// begins at this position — costs one map lookup instead of scanning
// every registered special (spec.md §9's open question on scan cost,
// resolved here without reaching for a full Aho-Corasick automaton).
type SpecialTokens struct {
	byText      map[string]int32
	byFirstByte map[byte][]string
}

func newSpecialTokens() *SpecialTokens {
	return &SpecialTokens{
		byText:      make(map[string]int32),
		byFirstByte: make(map[byte][]string),
	}
}

func (s *SpecialTokens) add(text string, id int32) {
	if text == "" {
		return
	}
	if _, exists := s.byText[text]; exists {
		return
	}
	s.byText[text] = id
	b := text[0]
	list := append(s.byFirstByte[b], text)
	sort.Slice(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
	s.byFirstByte[b] = list
}

func (s *SpecialTokens) longestMatchAt(text string, pos int) (string, int32, bool) {
	candidates := s.byFirstByte[text[pos]]
	for _, cand := range candidates {
		end := pos + len(cand)
		if end <= len(text) && text[pos:end] == cand {
			return cand, s.byText[cand], true
		}
	}
	return "", 0, false
}

// split walks text byte by byte, retaining the longest literal special
// token match at each position, and returns the alternating Normal/
// Special sequence covering the whole input with no gaps or overlaps
// (spec.md §4.2).
func (s *SpecialTokens) split(text string) []specialSegment {
	var segments []specialSegment
	normalStart := 0
	i := 0
	for i < len(text) {
		if cand, id, ok := s.longestMatchAt(text, i); ok {
			if i > normalStart {
				segments = append(segments, specialSegment{text: text[normalStart:i], start: normalStart, end: i})
			}
			segments = append(segments, specialSegment{special: true, id: id, text: cand, start: i, end: i + len(cand)})
			i += len(cand)
			normalStart = i
			continue
		}
		i++
	}
	if normalStart < len(text) {
		segments = append(segments, specialSegment{text: text[normalStart:], start: normalStart, end: len(text)})
	}
	return segments
}
