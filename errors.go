package corpus_bpe

import (
	"errors"
	"fmt"

	"github.com/corpustools/corpus_bpe/types"
)

// ErrUndefinedRatio is returned by CompressionRatio for an empty token
// sequence, where the ratio has no defined value.
var ErrUndefinedRatio = errors.New(
	"compression ratio undefined for an empty token sequence")

// UnknownTokenError reports a token id with no vocabulary entry. Decode
// never substitutes a placeholder for such an id.
type UnknownTokenError struct {
	Token types.Token
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown token id %d", e.Token)
}

// DecodeError reports a token sequence whose byte concatenation does not
// form valid text in the tokenizer's domain.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Reason
}
