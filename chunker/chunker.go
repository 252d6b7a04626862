// Package chunker partitions a seekable byte source into contiguous ranges
// whose interior boundaries land on occurrences of a delimiter byte
// sequence, so large corpora can be pre-tokenized in parallel without
// splitting a document across workers.
package chunker

import (
	"bytes"
	"errors"
	"io"
	"sort"
)

// DefaultWindowSize is the per-read look-ahead used while scanning forward
// from a naive boundary guess for the next delimiter occurrence.
const DefaultWindowSize = 4096

var ErrInvalidChunkCount = errors.New(
	"chunker: desired chunk count must be positive")
var ErrEmptyDelimiter = errors.New(
	"chunker: delimiter must not be empty")

// FindChunkBoundaries computes up to desiredChunks+1 byte offsets into
// source using the default look-ahead window.
func FindChunkBoundaries(source io.ReadSeeker, desiredChunks int,
	delimiter []byte) ([]int64, error) {
	return FindChunkBoundariesSize(source, desiredChunks, delimiter,
		DefaultWindowSize)
}

// FindChunkBoundariesSize places naive boundaries at uniform multiples of
// size/desiredChunks, then snaps each interior boundary forward to the
// start of the next delimiter occurrence, or to the end of the source if
// none follows. The returned offsets are strictly increasing, begin at 0,
// and end at the source's total length; duplicates collapse, so fewer than
// desiredChunks+1 offsets may come back. The delimiter is compared as raw
// bytes throughout.
func FindChunkBoundariesSize(source io.ReadSeeker, desiredChunks int,
	delimiter []byte, windowSize int) ([]int64, error) {
	if desiredChunks <= 0 {
		return nil, ErrInvalidChunkCount
	}
	if len(delimiter) == 0 {
		return nil, ErrEmptyDelimiter
	}
	// A window must be able to contain one whole delimiter.
	if windowSize < len(delimiter) {
		windowSize = len(delimiter)
	}

	size, err := source.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	chunkSize := size / int64(desiredChunks)
	boundaries := make([]int64, desiredChunks+1)
	for idx := range boundaries {
		boundaries[idx] = int64(idx) * chunkSize
	}
	boundaries[desiredChunks] = size

	window := make([]byte, windowSize)
	for bi := 1; bi < desiredChunks; bi++ {
		snapped, snapErr := snapForward(source, boundaries[bi], size,
			delimiter, window)
		if snapErr != nil {
			return nil, snapErr
		}
		boundaries[bi] = snapped
	}

	sort.Slice(boundaries, func(i, j int) bool {
		return boundaries[i] < boundaries[j]
	})
	unique := boundaries[:1]
	for _, boundary := range boundaries[1:] {
		if boundary != unique[len(unique)-1] {
			unique = append(unique, boundary)
		}
	}
	return unique, nil
}

// snapForward scans forward from guess in fixed-size windows and returns
// the start offset of the first delimiter occurrence, or size when the
// source is exhausted first. Successive windows overlap by one byte less
// than the delimiter length, so an occurrence straddling a window edge is
// still found. The loop is bounded by the read position reaching size.
func snapForward(source io.ReadSeeker, guess, size int64, delimiter []byte,
	window []byte) (int64, error) {
	if _, err := source.Seek(guess, io.SeekStart); err != nil {
		return 0, err
	}
	overlap := len(delimiter) - 1
	pos := guess
	for pos < size {
		n, err := io.ReadFull(source, window)
		if n == 0 {
			break
		}
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if found := bytes.Index(window[:n], delimiter); found != -1 {
			return pos + int64(found), nil
		}
		if n <= overlap {
			// Too few bytes remain for another occurrence.
			break
		}
		pos += int64(n - overlap)
		if _, err := source.Seek(pos, io.SeekStart); err != nil {
			return 0, err
		}
	}
	return size, nil
}

// Ranges pairs up consecutive boundaries into [start, end) chunks.
func Ranges(boundaries []int64) [][2]int64 {
	if len(boundaries) < 2 {
		return nil
	}
	ranges := make([][2]int64, len(boundaries)-1)
	for idx := 0; idx < len(boundaries)-1; idx++ {
		ranges[idx] = [2]int64{boundaries[idx], boundaries[idx+1]}
	}
	return ranges
}
