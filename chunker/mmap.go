package chunker

import (
	"bytes"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapSource is a read-only memory-mapped byte source. The embedded
// bytes.Reader provides the seek/read capability set the boundary finder
// needs, and Slice hands workers zero-copy views of their chunk ranges.
type MmapSource struct {
	*bytes.Reader
	file    *os.File
	mapping mmap.MMap
}

// OpenMmap maps path read-only. A zero-length file degrades to an empty
// reader with no mapping.
func OpenMmap(path string) (*MmapSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if stat.Size() == 0 {
		return &MmapSource{Reader: bytes.NewReader(nil), file: file}, nil
	}
	mapping, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &MmapSource{
		Reader:  bytes.NewReader(mapping),
		file:    file,
		mapping: mapping,
	}, nil
}

// Size returns the total length of the source in bytes.
func (source *MmapSource) Size() int64 {
	return source.Reader.Size()
}

// Slice returns the [start, end) byte range of the source. The slice
// aliases the mapping and must be treated as read-only.
func (source *MmapSource) Slice(start, end int64) []byte {
	return source.mapping[start:end]
}

func (source *MmapSource) Close() error {
	var err error
	if source.mapping != nil {
		err = source.mapping.Unmap()
	}
	if closeErr := source.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
