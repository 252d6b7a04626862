package types

type Token uint32
type Tokens []Token

// TokenMap maps token text, as it appears in a vocabulary file, to its id.
type TokenMap map[string]Token

type TokenPair struct {
	Left  Token
	Right Token
}

// MergeRule collapses an adjacent (Left, Right) token pair into Merged.
// The position of a rule in a merge list is the order in which the merge
// was learned during training; encode replays rules in exactly that order.
type MergeRule struct {
	Pair   TokenPair
	Merged Token
}
