package bbpe

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// tokenizerJSON mirrors the minimum fields spec.md §6 requires the
// loader to recognize. The other standard top-level keys (normalizer,
// post_processor, decoder, truncation, padding, version) are ignored
// without a log line; any top-level key outside that known set is
// logged at klog.V(2) and ignored (spec.md §7's forward-compatibility
// policy) — this package has no normalizer or post-processor stage to
// feed them into (spec.md's Non-goals).
type tokenizerJSON struct {
	Model        modelJSON         `json:"model"`
	PreTokenizer *preTokenizerJSON `json:"pre_tokenizer"`
	AddedTokens  []addedTokenJSON  `json:"added_tokens"`
}

type modelJSON struct {
	Type   string            `json:"type"`
	Vocab  map[string]int32  `json:"vocab"`
	Merges []json.RawMessage `json:"merges"`
}

type preTokenizerJSON struct {
	Type          string             `json:"type"`
	AddPrefixSpace bool              `json:"add_prefix_space"`
	Pretokenizers []preTokenizerJSON `json:"pretokenizers"`
	Pattern       *patternJSON       `json:"pattern"`
}

type patternJSON struct {
	Regex string `json:"Regex"`
}

type addedTokenJSON struct {
	Content string `json:"content"`
	ID      int32  `json:"id"`
}

var knownTopLevelKeys = map[string]bool{
	"version":        true,
	"truncation":     true,
	"padding":        true,
	"added_tokens":   true,
	"normalizer":     true,
	"pre_tokenizer":  true,
	"post_processor": true,
	"decoder":        true,
	"model":          true,
}

// Load parses jsonText and builds a fully populated Tokenizer handle,
// following the six ordered steps of spec.md §4.1. Any failure returns
// one of the closed ErrorCode values from errors.go, recoverable with
// CodeOf even after github.com/pkg/errors wrapping.
func Load(jsonText []byte) (*Tokenizer, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonText, &raw); err != nil {
		return nil, errors.Wrap(newError(ErrJSONParse, "%v", err), "bbpe.Load: invalid JSON")
	}
	logUnrecognizedTopLevelKeys(raw)

	var tj tokenizerJSON
	if err := json.Unmarshal(jsonText, &tj); err != nil {
		return nil, errors.Wrap(newError(ErrJSONParse, "%v", err), "bbpe.Load: invalid tokenizer.json shape")
	}

	alphabet := newAlphabet()

	if tj.Model.Vocab == nil {
		return nil, newError(ErrVocabMissing, "bbpe.Load: model.vocab is missing")
	}
	vocab := buildVocab(tj.Model.Vocab)

	if err := checkByteAlphabetClosure(alphabet, vocab); err != nil {
		return nil, err
	}

	merges := buildMergeTable(vocab, tj.Model.Merges)

	preTokenizers, err := loadPreTokenizerChain(tj.PreTokenizer)
	if err != nil {
		return nil, err
	}

	specials := loadAddedTokens(vocab, merges, tj.AddedTokens)

	return &Tokenizer{
		alphabet:      alphabet,
		vocab:         vocab,
		merges:        merges,
		specials:      specials,
		preTokenizers: preTokenizers,
	}, nil
}

func logUnrecognizedTopLevelKeys(raw map[string]json.RawMessage) {
	for k := range raw {
		if !knownTopLevelKeys[k] {
			klog.V(2).Infof("bbpe: ignoring unrecognized tokenizer.json key %q", k)
		}
	}
}

func buildVocab(rawVocab map[string]int32) *Vocab {
	var maxID int32 = -1
	for _, id := range rawVocab {
		if id > maxID {
			maxID = id
		}
	}
	vocab := newVocab(int(maxID) + 1)
	for text, id := range rawVocab {
		vocab.set(text, id)
	}
	return vocab
}

// checkByteAlphabetClosure enforces spec.md §3's invariant that every
// byte-alphabet singleton is present in the vocabulary — byte expansion
// (spec.md §4.5 phase A) can never fail on a well-formed tokenizer.
func checkByteAlphabetClosure(alphabet *Alphabet, vocab *Vocab) error {
	for b := 0; b < 256; b++ {
		text := alphabet.UTF8(byte(b))
		if _, ok := vocab.IDByText(text); !ok {
			return errors.Wrapf(newError(ErrVocabMissing, "byte-alphabet singleton missing from vocabulary"), "byte %d (alphabet image %q)", b, text)
		}
	}
	return nil
}

// buildMergeTable walks model.merges (spec.md §4.1 step 4): each rule
// may be a "L R" string or a two-element array; rules referencing
// unknown tokens are silently skipped (reference-compatible, spec.md
// §7), then rows are bucketed by left-id and sorted by right-id.
func buildMergeTable(vocab *Vocab, raw []json.RawMessage) *MergeTable {
	type bucketed struct {
		rightID  int32
		newID    int32
		priority int32
	}
	buckets := make(map[int32][]bucketed)

	for i, rm := range raw {
		left, right, ok := parseMergeRule(rm)
		if !ok {
			klog.V(2).Infof("bbpe: skipping malformed merge rule at index %d", i)
			continue
		}
		leftID, lok := vocab.IDByText(left)
		rightID, rok := vocab.IDByText(right)
		if !lok || !rok {
			klog.V(2).Infof("bbpe: skipping merge rule %q %q: references unknown token", left, right)
			continue
		}
		newText := left + right
		newID, nok := vocab.IDByText(newText)
		if !nok {
			klog.V(2).Infof("bbpe: skipping merge rule %q %q: result %q not in vocabulary", left, right, newText)
			continue
		}
		buckets[leftID] = append(buckets[leftID], bucketed{rightID: rightID, newID: newID, priority: int32(i)})
	}

	merges := newMergeTable(vocab.Len())
	for leftID, entries := range buckets {
		sort.Slice(entries, func(i, j int) bool { return entries[i].rightID < entries[j].rightID })
		row := make([]mergeEntry, len(entries))
		for i, e := range entries {
			row[i] = mergeEntry{rightID: e.rightID, newID: e.newID, priority: e.priority}
		}
		merges.setRow(leftID, row)
	}
	return merges
}

// parseMergeRule accepts either a "L R" string or a ["L","R"] array,
// per spec.md §4.1 step 4.
func parseMergeRule(rm json.RawMessage) (left, right string, ok bool) {
	var asString string
	if err := json.Unmarshal(rm, &asString); err == nil {
		parts := strings.SplitN(asString, " ", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		return parts[0], parts[1], true
	}
	var asPair [2]string
	if err := json.Unmarshal(rm, &asPair); err == nil {
		return asPair[0], asPair[1], true
	}
	return "", "", false
}

// loadPreTokenizerChain walks the top-level pre_tokenizer node
// (spec.md §4.1 step 5): a "Sequence" flattens its children into the
// chain, a bare node becomes a single-element chain, and an
// unrecognized type is fatal.
func loadPreTokenizerChain(node *preTokenizerJSON) ([]preTokenizerNode, error) {
	if node == nil {
		return nil, nil
	}
	if node.Type == "Sequence" {
		var chain []preTokenizerNode
		for i := range node.Pretokenizers {
			nodes, err := loadPreTokenizerChain(&node.Pretokenizers[i])
			if err != nil {
				return nil, err
			}
			chain = append(chain, nodes...)
		}
		return chain, nil
	}
	built, err := buildPreTokenizerNode(node)
	if err != nil {
		return nil, err
	}
	return []preTokenizerNode{built}, nil
}

func buildPreTokenizerNode(node *preTokenizerJSON) (preTokenizerNode, error) {
	switch node.Type {
	case "ByteLevel":
		return &byteLevelPrefixNode{addPrefixSpace: node.AddPrefixSpace}, nil
	case "Split":
		if node.Pattern == nil || node.Pattern.Regex == "" {
			return nil, newError(ErrRegexCompile, "Split pre-tokenizer missing pattern.Regex")
		}
		compiled, err := regexp2.Compile(node.Pattern.Regex, regexp2.Unicode)
		if err != nil {
			return nil, errors.Wrapf(newError(ErrRegexCompile, "%v", err), "compiling pattern %q", node.Pattern.Regex)
		}
		return &regexSplitNode{re: compiled}, nil
	default:
		return nil, newError(ErrUnsupportedType, "unsupported pre_tokenizer type %q", node.Type)
	}
}

// loadAddedTokens walks added_tokens (spec.md §4.1 step 6): ids beyond
// the current vocabulary size grow both the id-indexed array and the
// merge-row array; an id whose slot already holds a vocabulary string
// is left untouched so vocabulary entries take precedence.
func loadAddedTokens(vocab *Vocab, merges *MergeTable, addedTokens []addedTokenJSON) *SpecialTokens {
	specials := newSpecialTokens()
	for _, at := range addedTokens {
		if int(at.ID) >= vocab.Len() {
			vocab.grow(int(at.ID) + 1)
			merges.grow(int(at.ID) + 1)
		}
		if _, ok := vocab.TextByID(at.ID); ok {
			continue
		}
		vocab.setIDOnly(at.ID, at.Content)
		specials.add(at.Content, at.ID)
	}
	return specials
}
