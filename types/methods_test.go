package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_ToBinUint16RoundTrip(t *testing.T) {
	tokens := Tokens{0, 1, 255, 65535}
	bin, err := tokens.ToBin(false)
	require.NoError(t, err)
	require.Len(t, bin, len(tokens)*2)
	assert.Equal(t, tokens, TokensFromBin(bin))
}

func TestTokens_ToBinUint16Overflow(t *testing.T) {
	tokens := Tokens{70000}
	_, err := tokens.ToBin(false)
	assert.Error(t, err)
}

func TestTokens_ToBinUint32RoundTrip(t *testing.T) {
	tokens := Tokens{0, 70000, 4294967295}
	bin, err := tokens.ToBin(true)
	require.NoError(t, err)
	require.Len(t, bin, len(tokens)*4)
	assert.Equal(t, tokens, TokensFromBin32(bin))
}

func TestTokens_ToBinEmpty(t *testing.T) {
	bin, err := Tokens{}.ToBin(false)
	require.NoError(t, err)
	assert.Empty(t, bin)
	assert.Empty(t, TokensFromBin(bin))
}
