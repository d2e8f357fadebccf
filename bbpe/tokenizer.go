// Package bbpe implements a byte-level byte-pair-encoding tokenizer
// compatible with HuggingFace's tokenizer.json serialization: load a
// JSON description into efficient in-memory indices, then Encode and
// Decode text against it with the exact splits the reference
// implementation produces, priority-based tie-breaking included.
package bbpe

// Tokenizer is an immutable handle built by Load. Every interior
// structure (alphabet, vocabulary, merge rows, special tokens,
// pre-tokenizer chain) is populated once and never mutated afterwards,
// so a *Tokenizer is safe for concurrent Encode/Decode calls as long as
// each call's output slice is private to that call (spec.md §5) — there
// is no package-level mutable state to race on.
type Tokenizer struct {
	alphabet      *Alphabet
	vocab         *Vocab
	merges        *MergeTable
	specials      *SpecialTokens
	preTokenizers []preTokenizerNode
}

// VocabSize returns the size of the id-indexed array (max id + 1),
// which counts both regular vocabulary entries and added/special
// tokens.
func (t *Tokenizer) VocabSize() int {
	return t.vocab.Len()
}

// TokenToID resolves a token's exact text to its id, checking special
// tokens first (mirrors the priority special tokens get during
// encoding).
func (t *Tokenizer) TokenToID(text string) (int32, bool) {
	if id, ok := t.specials.byText[text]; ok {
		return id, true
	}
	return t.vocab.IDByText(text)
}

// IDToToken resolves an id back to its token text, regular or special.
func (t *Tokenizer) IDToToken(id int32) (string, bool) {
	return t.vocab.TextByID(id)
}
