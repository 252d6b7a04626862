// Package corpus_bpe converts text to sequences of integer token ids and
// back. Three interchangeable tokenizer variants are provided: one id per
// Unicode code point, one id per UTF-8 byte, and byte-level BPE driven by
// an externally trained vocabulary and ordered merge list.
package corpus_bpe

import (
	"fmt"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"

	"github.com/corpustools/corpus_bpe/types"
)

const BPE_LRU_SZ = 65536

// Tokenizer is the capability contract shared by all variants: encode text
// to an ordered id sequence, decode an id sequence back to text. The
// implementer set is closed; no fourth variant is anticipated.
type Tokenizer interface {
	Encode(text string) (types.Tokens, error)
	Decode(tokens types.Tokens) (string, error)
}

// CharacterTokenizer represents a string as a sequence of Unicode code
// points.
type CharacterTokenizer struct{}

// Encode maps each Unicode scalar value to its code point. It cannot fail
// on a well-formed string.
func (ct CharacterTokenizer) Encode(text string) (types.Tokens, error) {
	encoded := make(types.Tokens, 0, len(text))
	for _, r := range text {
		encoded = append(encoded, types.Token(r))
	}
	return encoded, nil
}

func (ct CharacterTokenizer) Decode(tokens types.Tokens) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tokens))
	for _, tok := range tokens {
		r := rune(tok)
		if !utf8.ValidRune(r) {
			return "", &DecodeError{Reason: fmt.Sprintf(
				"token id %d is not a valid code point", tok)}
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// ByteTokenizer represents a string as its UTF-8 bytes, one id in [0,255]
// per byte.
type ByteTokenizer struct{}

func (bt ByteTokenizer) Encode(text string) (types.Tokens, error) {
	encoded := make(types.Tokens, len(text))
	for idx := 0; idx < len(text); idx++ {
		encoded[idx] = types.Token(text[idx])
	}
	return encoded, nil
}

func (bt ByteTokenizer) Decode(tokens types.Tokens) (string, error) {
	decoded := make([]byte, len(tokens))
	for idx, tok := range tokens {
		if tok > 255 {
			return "", &DecodeError{Reason: fmt.Sprintf(
				"token id %d outside byte range", tok)}
		}
		decoded[idx] = byte(tok)
	}
	if !utf8.Valid(decoded) {
		return "", &DecodeError{
			Reason: "byte sequence is not valid UTF-8"}
	}
	return string(decoded), nil
}

// BPETokenizer applies an ordered merge rule list to the raw byte ids of
// the input. The vocabulary and merge list are read-only for the lifetime
// of the tokenizer and may be shared across instances; the cache counters
// make a single instance unsafe for concurrent use, so concurrent workers
// each construct their own instance over the shared data.
type BPETokenizer struct {
	Decoder   map[types.Token][]byte
	Merges    []types.MergeRule
	Cache     *lru.ARCCache
	LruHits   int
	LruMisses int
}

// NewBPETokenizer constructs a tokenizer over an already-trained
// vocabulary (id to byte sequence) and merge list. An empty merge list
// makes Encode the identity over raw UTF-8 byte values.
func NewBPETokenizer(vocab map[types.Token][]byte,
	merges []types.MergeRule) *BPETokenizer {
	cache, _ := lru.NewARC(BPE_LRU_SZ)
	return &BPETokenizer{
		Decoder: vocab,
		Merges:  merges,
		Cache:   cache,
	}
}

// Encode seeds a working sequence with one id per UTF-8 byte, then applies
// each merge rule in list order as a single non-overlapping left-to-right
// pass. Deliberately O(len(text) * len(merges)): replaying merges in
// training order is what keeps output identical across implementations
// consuming the same merge list.
func (bpe *BPETokenizer) Encode(text string) (types.Tokens, error) {
	if lookup, ok := bpe.Cache.Get(text); ok {
		bpe.LruHits++
		return lookup.(types.Tokens), nil
	}
	bpe.LruMisses++
	ids := make(types.Tokens, len(text))
	for idx := 0; idx < len(text); idx++ {
		ids[idx] = types.Token(text[idx])
	}
	for _, rule := range bpe.Merges {
		ids = applyMerge(ids, rule)
	}
	bpe.Cache.Add(text, ids)
	return ids, nil
}

// applyMerge builds a fresh sequence with every adjacent (Left, Right)
// occurrence collapsed to the rule's merged id. A match at i consumes i
// and i+1 and scanning resumes at i+2, so matches never overlap.
func applyMerge(ids types.Tokens, rule types.MergeRule) types.Tokens {
	merged := make(types.Tokens, 0, len(ids))
	for idx := 0; idx < len(ids); {
		if idx+1 < len(ids) &&
			ids[idx] == rule.Pair.Left &&
			ids[idx+1] == rule.Pair.Right {
			merged = append(merged, rule.Merged)
			idx += 2
		} else {
			merged = append(merged, ids[idx])
			idx += 1
		}
	}
	return merged
}

// Decode looks each id up in the vocabulary, concatenates the byte
// sequences in order, and parses the result as UTF-8. No other
// transformation occurs.
func (bpe *BPETokenizer) Decode(tokens types.Tokens) (string, error) {
	decoded := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		seq, ok := bpe.Decoder[tok]
		if !ok {
			return "", &UnknownTokenError{Token: tok}
		}
		decoded = append(decoded, seq...)
	}
	if !utf8.Valid(decoded) {
		return "", &DecodeError{
			Reason: "byte sequence is not valid UTF-8"}
	}
	return string(decoded), nil
}

// CompressionRatio reports how many input bytes each token stands for:
// the UTF-8 byte length of text divided by the token count. An empty token
// sequence returns ErrUndefinedRatio rather than a defined-zero value.
func CompressionRatio(text string, tokens types.Tokens) (float64, error) {
	if len(tokens) == 0 {
		return 0, ErrUndefinedRatio
	}
	return float64(len(text)) / float64(len(tokens)), nil
}
