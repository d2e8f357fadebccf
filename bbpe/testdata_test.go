package bbpe

import "encoding/json"

// byteVocab returns the 256 byte-alphabet singletons, keyed by their
// UTF-8 image and assigned ids 0..255 in byte order, satisfying the
// closure check every Load call performs.
func byteVocab() map[string]int32 {
	a := newAlphabet()
	vocab := make(map[string]int32, 256)
	for b := 0; b < 256; b++ {
		vocab[a.UTF8(byte(b))] = int32(b)
	}
	return vocab
}

type testTokenizerJSON struct {
	Model struct {
		Type   string           `json:"type"`
		Vocab  map[string]int32 `json:"vocab"`
		Merges []string         `json:"merges"`
	} `json:"model"`
	PreTokenizer any `json:"pre_tokenizer,omitempty"`
	AddedTokens  []struct {
		Content string `json:"content"`
		ID      int32  `json:"id"`
	} `json:"added_tokens,omitempty"`
}

// buildTokenizerJSON assembles a minimal but closure-satisfying
// tokenizer.json, starting from the 256-byte base vocabulary, adding
// extraVocab entries (merge results), merges rules ("L R" strings) and
// added tokens, then marshals it — exercising Load exactly as it would
// parse a file on disk, not the in-memory structs directly.
func buildTokenizerJSON(extraVocab map[string]int32, merges []string, preTok any, added map[string]int32) []byte {
	var doc testTokenizerJSON
	doc.Model.Type = "BPE"
	doc.Model.Vocab = byteVocab()
	for text, id := range extraVocab {
		doc.Model.Vocab[text] = id
	}
	doc.Model.Merges = merges
	doc.PreTokenizer = preTok
	for text, id := range added {
		doc.AddedTokens = append(doc.AddedTokens, struct {
			Content string `json:"content"`
			ID      int32  `json:"id"`
		}{Content: text, ID: id})
	}
	out, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return out
}
