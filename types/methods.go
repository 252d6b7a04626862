package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ToBin serializes the token sequence as little-endian integers. The wide
// flag selects 32-bit tokens; otherwise each token must fit in 16 bits.
func (tokens Tokens) ToBin(wide bool) ([]byte, error) {
	if wide {
		return tokens.ToBinUint32()
	}
	return tokens.ToBinUint16()
}

func (tokens Tokens) ToBinUint16() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(tokens)*2))
	for _, tok := range tokens {
		if tok > 65535 {
			return nil, fmt.Errorf(
				"integer overflow: token id %d does not fit in unsigned"+
					" 16 bits", tok)
		}
		if err := binary.Write(buf, binary.LittleEndian,
			uint16(tok)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (tokens Tokens) ToBinUint32() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(tokens)*4))
	for _, tok := range tokens {
		if err := binary.Write(buf, binary.LittleEndian,
			uint32(tok)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// TokensFromBin deserializes little-endian 16-bit tokens. Trailing bytes
// that do not form a whole token are dropped.
func TokensFromBin(bin []byte) Tokens {
	tokens := make(Tokens, 0, len(bin)/2)
	buf := bytes.NewReader(bin)
	for {
		var tok uint16
		if err := binary.Read(buf, binary.LittleEndian, &tok); err != nil {
			break
		}
		tokens = append(tokens, Token(tok))
	}
	return tokens
}

// TokensFromBin32 deserializes little-endian 32-bit tokens.
func TokensFromBin32(bin []byte) Tokens {
	tokens := make(Tokens, 0, len(bin)/4)
	buf := bytes.NewReader(bin)
	for {
		var tok uint32
		if err := binary.Read(buf, binary.LittleEndian, &tok); err != nil {
			break
		}
		tokens = append(tokens, Token(tok))
	}
	return tokens
}
