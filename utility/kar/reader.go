// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	size := readerSize(r)

	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}
	if !bytes.Equal(prefix[:MagicLength], Magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize := binaryToint64(prefix[MagicLength:])
	dataOffset := int64(len(prefix)) + headerSize
	if headerSize <= 0 || headerSize > MaxHeaderSize || (size >= 0 && dataOffset > size) {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, int64(len(prefix))); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}

	index := make(map[string]int, len(header.Index))
	for i, e := range header.Index {
		end := dataOffset + e.Offset + e.CompressedSize
		if e.Offset < 0 || e.CompressedSize < 0 || e.Size < 0 || (size >= 0 && end > size) {
			return nil, fmt.Errorf("%w: entry %s out of bounds", ErrFileFormat, e.Name)
		}
		index[e.Name] = i
	}

	return &Archive{
		reader:     r,
		header:     header,
		dataOffset: dataOffset,
		index:      index,
	}, nil
}

// readerSize returns the size of r when it can tell, -1 otherwise
func readerSize(r io.ReaderAt) int64 {
	switch s := r.(type) {
	case interface{ Size() int64 }:
		return s.Size()
	case interface{ Len() int }:
		return int64(s.Len())
	default:
		return -1
	}
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
	index      map[string]int

	closer io.Closer
}

// Header returns the archive header
func (a *Archive) Header() Header {
	return a.header
}

// Names returns the names of all files in archive order
func (a *Archive) Names() []string {
	names := make([]string, len(a.header.Index))
	for i, e := range a.header.Index {
		names[i] = e.Name
	}
	return names
}

// Stat returns the index entry of a file
func (a *Archive) Stat(name string) (IndexEntry, error) {
	i, ok := a.index[name]
	if !ok {
		return IndexEntry{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return a.header.Index[i], nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, f.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrFileFormat, err)
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Close releases the underlying file of archives opened with OpenFile
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Name returns the file name
func (r *Reader) Name() string {
	return r.entry.Name
}

// Size returns the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
