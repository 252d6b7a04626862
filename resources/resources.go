// Package resources loads trained tokenizer data from its on-disk formats:
// vocab.json mapping escaped token text to ids, and merges.txt or
// merges.json holding symbol pairs in the order the merges were learned.
// The loaded data is materialized into the id-keyed structures the
// tokenizer core consumes; no remote resolution happens here.
package resources

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/corpustools/corpus_bpe/types"
)

// LoadVocab reads a vocab.json file mapping token text to token id.
func LoadVocab(path string) (types.TokenMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	vocab := make(types.TokenMap)
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", path, err)
	}
	return vocab, nil
}

// DecodeVocab converts a token-text mapping into the id to byte sequence
// mapping consumed by decode. Keys of the form 0xNN (length 4) denote
// single raw bytes; all other keys are unescaped through the GPT-2
// byte-to-unicode table.
func DecodeVocab(vocab types.TokenMap) (map[types.Token][]byte, error) {
	decoder := make(map[types.Token][]byte, len(vocab))
	runeToByte := unicodeByteTable()
	for text, token := range vocab {
		if strings.HasPrefix(text, "0x") && len(text) == 4 {
			byteValue, err := strconv.ParseUint(text[2:], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("vocab entry %q: %v", text, err)
			}
			decoder[token] = []byte{byte(byteValue)}
			continue
		}
		decoder[token] = unescapeTokenText(text, runeToByte)
	}
	return decoder, nil
}

// LoadMerges reads an ordered merge list and resolves each symbol pair
// against vocab. merges.txt carries one space-separated pair per line
// after a header line; merges.json is an array of [left, right] pairs.
// A pair whose symbols, or whose concatenation, are missing from the
// vocabulary is an error rather than a silently skipped rule.
func LoadMerges(path string, vocab types.TokenMap) ([]types.MergeRule,
	error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".json") {
		return parseMergesJson(data, vocab)
	}
	return parseMergesTxt(data, vocab)
}

func parseMergesTxt(data []byte, vocab types.TokenMap) ([]types.MergeRule,
	error) {
	merges := make([]types.MergeRule, 0)
	scanner := bufio.NewScanner(bytes.NewBuffer(data))
	firstLine := true
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if firstLine {
			firstLine = false
			continue
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		leftRight := strings.SplitN(line, " ", 2)
		if len(leftRight) != 2 {
			return nil, fmt.Errorf(
				"merges line %d: expected two symbols, got %q",
				lineNo, line)
		}
		rule, err := resolveMerge(leftRight[0], leftRight[1], vocab)
		if err != nil {
			return nil, fmt.Errorf("merges line %d: %v", lineNo, err)
		}
		merges = append(merges, rule)
	}
	return merges, scanner.Err()
}

func parseMergesJson(data []byte, vocab types.TokenMap) ([]types.MergeRule,
	error) {
	var mergesTable [][]string
	if err := json.Unmarshal(data, &mergesTable); err != nil {
		return nil, err
	}
	merges := make([]types.MergeRule, 0, len(mergesTable))
	for rank, pair := range mergesTable {
		if len(pair) != 2 {
			return nil, fmt.Errorf(
				"merge %d: expected two symbols, got %d entries",
				rank, len(pair))
		}
		rule, err := resolveMerge(pair[0], pair[1], vocab)
		if err != nil {
			return nil, fmt.Errorf("merge %d: %v", rank, err)
		}
		merges = append(merges, rule)
	}
	return merges, nil
}

func resolveMerge(left, right string, vocab types.TokenMap) (
	types.MergeRule, error) {
	leftTok, ok := vocab[left]
	if !ok {
		return types.MergeRule{}, fmt.Errorf(
			"symbol %q not in vocabulary", left)
	}
	rightTok, ok := vocab[right]
	if !ok {
		return types.MergeRule{}, fmt.Errorf(
			"symbol %q not in vocabulary", right)
	}
	mergedTok, ok := vocab[left+right]
	if !ok {
		return types.MergeRule{}, fmt.Errorf(
			"merged symbol %q not in vocabulary", left+right)
	}
	return types.MergeRule{
		Pair:   types.TokenPair{Left: leftTok, Right: rightTok},
		Merged: mergedTok,
	}, nil
}

// unescapeTokenText recovers the raw bytes a vocabulary key stands for.
// Runes present in the byte table map back to single bytes; anything else
// is meant literally and contributes its UTF-8 encoding.
func unescapeTokenText(text string, runeToByte map[rune]byte) []byte {
	decoded := make([]byte, 0, len(text))
	for _, r := range text {
		if b, ok := runeToByte[r]; ok {
			decoded = append(decoded, b)
		} else {
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			decoded = append(decoded, buf[:n]...)
		}
	}
	return decoded
}

// unicodeByteTable replays the GPT-2 byte-to-unicode assignment and
// returns its inverse. Printable latin-1 bytes map to themselves; the
// remaining bytes get stand-in runes from 256 upward, in byte order.
func unicodeByteTable() map[rune]byte {
	runeToByte := make(map[rune]byte, 256)
	assigned := make(map[byte]bool, 256)
	for b := uint16('!'); b <= uint16('~'); b++ {
		runeToByte[rune(b)] = byte(b)
		assigned[byte(b)] = true
	}
	for b := uint16('¡'); b <= uint16('¬'); b++ {
		runeToByte[rune(b)] = byte(b)
		assigned[byte(b)] = true
	}
	for b := uint16('®'); b <= uint16('ÿ'); b++ {
		runeToByte[rune(b)] = byte(b)
		assigned[byte(b)] = true
	}
	standIn := 0
	for b := 0; b < 256; b++ {
		if !assigned[byte(b)] {
			runeToByte[rune(256+standIn)] = byte(b)
			standIn++
		}
	}
	return runeToByte
}
