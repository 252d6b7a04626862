package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/corpustools/corpus_bpe"
	"github.com/corpustools/corpus_bpe/chunker"
	"github.com/corpustools/corpus_bpe/resources"
	"github.com/corpustools/corpus_bpe/types"
)

// makeTokenizerFactory returns a constructor invoked once per worker, so
// that each chunk is tokenized by a private instance over the shared
// read-only vocabulary and merge list. Without a vocabulary the raw-byte
// variant is used, which needs no shared state at all.
func makeTokenizerFactory(vocabPath, mergesPath string) (
	func() corpus_bpe.Tokenizer, error) {
	if vocabPath == "" {
		return func() corpus_bpe.Tokenizer {
			return corpus_bpe.ByteTokenizer{}
		}, nil
	}
	vocab, err := resources.LoadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	decoder, err := resources.DecodeVocab(vocab)
	if err != nil {
		return nil, err
	}
	var merges []types.MergeRule
	if mergesPath != "" {
		merges, err = resources.LoadMerges(mergesPath, vocab)
		if err != nil {
			return nil, err
		}
	}
	return func() corpus_bpe.Tokenizer {
		return corpus_bpe.NewBPETokenizer(decoder, merges)
	}, nil
}

func printBoundaries(boundaries []int64) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Chunk", "Start", "End", "Size"})
	for idx, chunkRange := range chunker.Ranges(boundaries) {
		start, end := chunkRange[0], chunkRange[1]
		table.Append([]string{
			strconv.Itoa(idx),
			strconv.FormatInt(start, 10),
			strconv.FormatInt(end, 10),
			humanize.Bytes(uint64(end - start)),
		})
	}
	table.Render()
}

func writeTokens(path string, chunkTokens []types.Tokens,
	wide bool) (int, error) {
	outFile, err := os.OpenFile(path, os.O_TRUNC|os.O_RDWR|os.O_CREATE,
		0755)
	if err != nil {
		return 0, err
	}
	defer outFile.Close()
	written := 0
	for _, tokens := range chunkTokens {
		bin, binErr := tokens.ToBin(wide)
		if binErr != nil {
			return written, binErr
		}
		if _, writeErr := outFile.Write(bin); writeErr != nil {
			return written, writeErr
		}
		written += len(tokens)
	}
	return written, nil
}

func main() {
	inputFile := flag.String("input", "",
		"input file to chunk and tokenize")
	numChunks := flag.Int("n", 4,
		"desired number of chunks")
	delimiter := flag.String("delimiter", "<|endoftext|>",
		"delimiter byte sequence to split chunks on")
	windowSize := flag.Int("window", chunker.DefaultWindowSize,
		"look-ahead window size in bytes for boundary snapping")
	vocabPath := flag.String("vocab", "",
		"vocab.json for the BPE tokenizer; raw byte ids if omitted")
	mergesPath := flag.String("merges", "",
		"merges.txt or merges.json for the BPE tokenizer")
	outputFile := flag.String("output", "",
		"optional binary token output file")
	useUint32 := flag.Bool("uint32", false,
		"write 32-bit tokens to -output instead of 16-bit")
	showText := flag.Bool("show_text", false,
		"print each chunk's text along with its token ids")
	flag.Parse()
	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input file")
	}

	newTokenizer, err := makeTokenizerFactory(*vocabPath, *mergesPath)
	if err != nil {
		log.Fatal(err)
	}

	source, err := chunker.OpenMmap(*inputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer source.Close()
	log.Printf("Input: %s (%s)", *inputFile,
		humanize.Bytes(uint64(source.Size())))
	log.Printf("Delimiter: %q, desired chunks: %d", *delimiter, *numChunks)

	boundaries, err := chunker.FindChunkBoundariesSize(source, *numChunks,
		[]byte(*delimiter), *windowSize)
	if err != nil {
		log.Fatal(err)
	}
	printBoundaries(boundaries)

	chunkRanges := chunker.Ranges(boundaries)
	chunkTokens := make([]types.Tokens, len(chunkRanges))
	begin := time.Now()
	var group errgroup.Group
	for idx, chunkRange := range chunkRanges {
		idx, start, end := idx, chunkRange[0], chunkRange[1]
		group.Go(func() error {
			tokenizer := newTokenizer()
			encoded, encodeErr := tokenizer.Encode(
				string(source.Slice(start, end)))
			if encodeErr != nil {
				return fmt.Errorf("chunk %d: %w", idx, encodeErr)
			}
			chunkTokens[idx] = encoded
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		log.Fatal(waitErr)
	}
	duration := time.Since(begin).Seconds()

	totalTokens := 0
	for idx, tokens := range chunkTokens {
		start, end := chunkRanges[idx][0], chunkRanges[idx][1]
		if *showText {
			fmt.Printf("chunk %d [%d:%d]:\n%s\n", idx, start, end,
				string(source.Slice(start, end)))
		}
		fmt.Printf("chunk %d [%d:%d]: %d tokens\n%v\n", idx, start, end,
			len(tokens), tokens)
		if ratio, ratioErr := corpus_bpe.CompressionRatio(
			string(source.Slice(start, end)), tokens); ratioErr == nil {
			fmt.Printf("chunk %d compression ratio: %0.2f\n", idx, ratio)
		}
		totalTokens += len(tokens)
	}

	if *outputFile != "" {
		written, writeErr := writeTokens(*outputFile, chunkTokens,
			*useUint32)
		if writeErr != nil {
			log.Fatal(writeErr)
		}
		log.Printf("Wrote %d tokens to %s", written, *outputFile)
	}
	log.Printf("%d tokens in %0.2fs, %0.2f tokens/s", totalTokens,
		duration, float64(totalTokens)/duration)
}
