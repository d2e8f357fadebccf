package bbpe

import "github.com/nwdxlgzs/bbpe-go/tokenizers/api"

// Offset is the byte span in the original input a token (or group of
// tokens) was derived from. It marks the pre-tokenizer chunk a token
// came from, not the finer-grained byte range a single BPE merge step
// consumed — spec.md has no notion of sub-chunk offsets, this is an
// additive convenience for callers doing token classification.
//
// Aliased to api.Offset so *Tokenizer satisfies api.TokenizerWithOffsets
// without a conversion step at the boundary.
type Offset = api.Offset

// EncodingResult pairs ids with their chunk-level offsets.
type EncodingResult = api.EncodingResult

var (
	_ api.Tokenizer            = (*Tokenizer)(nil)
	_ api.TokenizerWithOffsets = (*Tokenizer)(nil)
)

// Encode implements spec.md §4.4: special-split the input, then for
// each normal segment run the pre-tokenizer chain and BPE-merge each
// resulting chunk, appending ids in strict segment order. It never
// fails on malformed UTF-8 — byte expansion walks raw bytes, not runes,
// so every byte 0..255 always finds its vocabulary entry (spec.md §6).
func (t *Tokenizer) Encode(text string) ([]int32, error) {
	result, err := t.encode(text, false)
	if err != nil {
		return nil, err
	}
	return result.IDs, nil
}

// EncodeWithOffsets is Encode plus the chunk-level Offset of each id.
func (t *Tokenizer) EncodeWithOffsets(text string) (EncodingResult, error) {
	return t.encode(text, true)
}

func (t *Tokenizer) encode(text string, withOffsets bool) (EncodingResult, error) {
	var result EncodingResult
	for _, seg := range t.specials.split(text) {
		if seg.special {
			result.IDs = append(result.IDs, seg.id)
			if withOffsets {
				result.Offsets = append(result.Offsets, Offset{Start: seg.start, End: seg.end})
			}
			continue
		}

		chunks := []Chunk{{Text: seg.text, Start: seg.start}}
		for _, node := range t.preTokenizers {
			var err error
			chunks, err = node.apply(chunks)
			if err != nil {
				return EncodingResult{}, err
			}
		}

		for _, c := range chunks {
			ids, err := t.encodeChunk(c.Text)
			if err != nil {
				return EncodingResult{}, err
			}
			result.IDs = append(result.IDs, ids...)
			if withOffsets {
				end := c.Start + len(c.Text)
				for range ids {
					result.Offsets = append(result.Offsets, Offset{Start: c.Start, End: end})
				}
			}
		}
	}
	return result, nil
}

// encodeChunk is the BPE merger of spec.md §4.5: byte-expand the chunk
// (phase A) then iteratively merge (phase B).
func (t *Tokenizer) encodeChunk(chunk string) ([]int32, error) {
	if chunk == "" {
		return nil, nil
	}
	ids := make([]int32, 0, len(chunk))
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		text := t.alphabet.UTF8(b)
		id, ok := t.vocab.IDByText(text)
		if !ok {
			return nil, newError(ErrTokenNotFound, "no vocabulary entry for byte %d (alphabet image %q)", b, text)
		}
		ids = append(ids, id)
	}
	return mergeHeap(t.merges, ids), nil
}
