package corpus_bpe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpustools/corpus_bpe/types"
)

const hindiSentence = "व्याकरण शास्त्रीय परिभाषाएँ : डॉ. पर्णदत्त सिंह" +
	" द्वारा हिंदी पीडीऍफ़ पुस्तक"

var roundTripStrings = []string{
	"",
	"hello world",
	"naïve café",
	hindiSentence,
	"mixed 🙂 content\nwith newlines\tand tabs",
}

// byteVocab covers ids 0-255 with their own byte values, the base layer
// every trained vocabulary extends.
func byteVocab() map[types.Token][]byte {
	vocab := make(map[types.Token][]byte, 256)
	for b := 0; b < 256; b++ {
		vocab[types.Token(b)] = []byte{byte(b)}
	}
	return vocab
}

// helloVocab extends the byte layer with the merges that collapse "hello"
// down to two tokens: he, hel, hell.
func helloVocab() (map[types.Token][]byte, []types.MergeRule) {
	vocab := byteVocab()
	vocab[256] = []byte("he")
	vocab[257] = []byte("hel")
	vocab[258] = []byte("hell")
	merges := []types.MergeRule{
		{Pair: types.TokenPair{Left: 'h', Right: 'e'}, Merged: 256},
		{Pair: types.TokenPair{Left: 256, Right: 'l'}, Merged: 257},
		{Pair: types.TokenPair{Left: 257, Right: 'l'}, Merged: 258},
	}
	return vocab, merges
}

func TestCharacterTokenizer_RoundTrip(t *testing.T) {
	tokenizer := CharacterTokenizer{}
	for _, input := range roundTripStrings {
		encoded, err := tokenizer.Encode(input)
		require.NoError(t, err)
		decoded, err := tokenizer.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, input, decoded)
	}
}

func TestCharacterTokenizer_Encode(t *testing.T) {
	tokenizer := CharacterTokenizer{}
	encoded, err := tokenizer.Encode("a¡🙂")
	require.NoError(t, err)
	assert.Equal(t, types.Tokens{0x61, 0xa1, 0x1f642}, encoded)
}

func TestCharacterTokenizer_DecodeInvalidCodePoint(t *testing.T) {
	tokenizer := CharacterTokenizer{}
	// UTF-16 surrogate halves are not scalar values.
	_, err := tokenizer.Decode(types.Tokens{0xd800})
	var decodeErr *DecodeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &decodeErr))
}

func TestByteTokenizer_RoundTrip(t *testing.T) {
	tokenizer := ByteTokenizer{}
	for _, input := range roundTripStrings {
		encoded, err := tokenizer.Encode(input)
		require.NoError(t, err)
		for _, tok := range encoded {
			assert.LessOrEqual(t, tok, types.Token(255))
		}
		decoded, err := tokenizer.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, input, decoded)
	}
}

func TestByteTokenizer_DecodeErrors(t *testing.T) {
	tokenizer := ByteTokenizer{}
	var decodeErr *DecodeError

	// A stray continuation byte is not valid UTF-8.
	_, err := tokenizer.Decode(types.Tokens{0x80})
	require.Error(t, err)
	assert.True(t, errors.As(err, &decodeErr))

	_, err = tokenizer.Decode(types.Tokens{256})
	require.Error(t, err)
	assert.True(t, errors.As(err, &decodeErr))
}

func TestBPETokenizer_EmptyMergesMatchesBytes(t *testing.T) {
	bpe := NewBPETokenizer(byteVocab(), nil)
	bytesTokenizer := ByteTokenizer{}
	for _, input := range roundTripStrings {
		bpeEncoded, err := bpe.Encode(input)
		require.NoError(t, err)
		byteEncoded, err := bytesTokenizer.Encode(input)
		require.NoError(t, err)
		assert.Equal(t, byteEncoded, bpeEncoded)
	}
}

func TestBPETokenizer_NonOverlap(t *testing.T) {
	// Input bytes [5,5,5] with merge (5,5)->9 must yield [9,5]: the first
	// match consumes both fives and scanning resumes past them.
	merges := []types.MergeRule{
		{Pair: types.TokenPair{Left: 5, Right: 5}, Merged: 9},
	}
	bpe := NewBPETokenizer(byteVocab(), merges)
	encoded, err := bpe.Encode("\x05\x05\x05")
	require.NoError(t, err)
	assert.Equal(t, types.Tokens{9, 5}, encoded)
}

func TestBPETokenizer_MergeOrderMatters(t *testing.T) {
	ruleHE := types.MergeRule{
		Pair: types.TokenPair{Left: 'h', Right: 'e'}, Merged: 256}
	ruleHEL := types.MergeRule{
		Pair: types.TokenPair{Left: 256, Right: 'l'}, Merged: 257}

	forward := NewBPETokenizer(byteVocab(),
		[]types.MergeRule{ruleHE, ruleHEL})
	reversed := NewBPETokenizer(byteVocab(),
		[]types.MergeRule{ruleHEL, ruleHE})

	forwardEncoded, err := forward.Encode("hel")
	require.NoError(t, err)
	reversedEncoded, err := reversed.Encode("hel")
	require.NoError(t, err)

	assert.Equal(t, types.Tokens{257}, forwardEncoded)
	assert.Equal(t, types.Tokens{256, 'l'}, reversedEncoded)
	assert.NotEqual(t, forwardEncoded, reversedEncoded)
}

func TestBPETokenizer_Deterministic(t *testing.T) {
	vocab, merges := helloVocab()
	first := NewBPETokenizer(vocab, merges)
	second := NewBPETokenizer(vocab, merges)
	firstEncoded, err := first.Encode("hello hello")
	require.NoError(t, err)
	secondEncoded, err := second.Encode("hello hello")
	require.NoError(t, err)
	assert.Equal(t, firstEncoded, secondEncoded)
}

func TestBPETokenizer_RoundTrip(t *testing.T) {
	vocab, merges := helloVocab()
	bpe := NewBPETokenizer(vocab, merges)
	encoded, err := bpe.Encode("hello")
	require.NoError(t, err)
	assert.Equal(t, types.Tokens{258, 'o'}, encoded)
	decoded, err := bpe.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)
}

func TestBPETokenizer_UnknownToken(t *testing.T) {
	bpe := NewBPETokenizer(byteVocab(), nil)
	_, err := bpe.Decode(types.Tokens{60000})
	var unknownErr *UnknownTokenError
	require.Error(t, err)
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, types.Token(60000), unknownErr.Token)
}

func TestBPETokenizer_DecodeInvalidUTF8(t *testing.T) {
	vocab := map[types.Token][]byte{0: {0xff}}
	bpe := NewBPETokenizer(vocab, nil)
	_, err := bpe.Decode(types.Tokens{0})
	var decodeErr *DecodeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &decodeErr))
}

func TestBPETokenizer_CacheCounters(t *testing.T) {
	vocab, merges := helloVocab()
	bpe := NewBPETokenizer(vocab, merges)
	first, err := bpe.Encode("hello")
	require.NoError(t, err)
	second, err := bpe.Encode("hello")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, bpe.LruMisses)
	assert.Equal(t, 1, bpe.LruHits)
}

func TestCompressionRatio(t *testing.T) {
	vocab, merges := helloVocab()
	bpe := NewBPETokenizer(vocab, merges)
	encoded, err := bpe.Encode("hello")
	require.NoError(t, err)
	require.Len(t, encoded, 2)
	ratio, err := CompressionRatio("hello", encoded)
	require.NoError(t, err)
	assert.Equal(t, 2.5, ratio)
}

func TestCompressionRatio_Empty(t *testing.T) {
	_, err := CompressionRatio("", types.Tokens{})
	assert.ErrorIs(t, err, ErrUndefinedRatio)
}
