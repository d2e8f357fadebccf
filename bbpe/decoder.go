package bbpe

import "strings"

// Decode implements spec.md §4.6: look up each id's token string,
// concatenate, then walk the result code point by code point, emitting
// the original byte for anything in the alphabet's image and passing
// other code points through as their literal UTF-8 (special-token texts
// such as "<|endoftext|>" round-trip this way).
func (t *Tokenizer) Decode(ids []int32) (string, error) {
	if len(ids) == 0 {
		return "", newError(ErrInvalidInput, "decode requires at least one token id")
	}

	var sb strings.Builder
	for _, id := range ids {
		text, ok := t.vocab.TextByID(id)
		if !ok {
			return "", newError(ErrTokenNotFound, "no vocabulary entry for token id %d", id)
		}
		for _, cp := range text {
			if b, ok := t.alphabet.ToByte(cp); ok {
				sb.WriteByte(b)
			} else {
				sb.WriteRune(cp)
			}
		}
	}
	return sb.String(), nil
}
