// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pack is an lz4 backed archive format for shader and asset
// delivery. The index is stored up front, so (unlike tar) every entry
// is addressable before anything is read, and entries are compressed
// individually so each one can be decompressed straight from its
// place in the file. The archive can be read from concurrently.
package pack

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"io"

	"github.com/pierrec/lz4"
)

// Package errors.
var (
	// ErrFormat means the input is corrupted or not a pack archive.
	ErrFormat = errors.New("pack: corrupted or not a pack archive")

	// ErrNotFound means the archive has no entry under that name.
	ErrNotFound = errors.New("pack: entry not found")
)

var magic = [4]byte{'A', 'L', 'P', 'K'}

const headerSizeLength = 8

// IndexEntry locates one entry inside the archive. Offset is relative
// to the start of the data section that follows the header.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the archive header, gob-encoded right after the magic.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Builder accumulates entries in memory and writes them out as one
// archive. Do not fill the Index of the header, it is overwritten.
// Safe to Add from one goroutine only.
type Builder struct {
	header  Header
	names   []string
	blobs   map[string]builderEntry
	written bool
}

type builderEntry struct {
	size       int64
	compressed []byte
}

// NewBuilder creates a Builder for an archive with the given header.
func NewBuilder(header Header) *Builder {
	header.Index = nil
	return &Builder{
		header: header,
		blobs:  make(map[string]builderEntry),
	}
}

// Add compresses data and stages it under name. Adding the same name
// twice replaces the earlier entry.
func (b *Builder) Add(name string, data []byte) error {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if _, exists := b.blobs[name]; !exists {
		b.names = append(b.names, name)
	}
	b.blobs[name] = builderEntry{
		size:       int64(len(data)),
		compressed: buf.Bytes(),
	}
	return nil
}

// WriteTo lays out the index and writes the finished archive to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	header := b.header
	var offset int64
	for _, name := range b.names {
		entry := b.blobs[name]
		header.Index = append(header.Index, IndexEntry{
			Name:           name,
			Offset:         offset,
			Size:           entry.size,
			CompressedSize: int64(len(entry.compressed)),
		})
		offset += int64(len(entry.compressed))
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var written int64
	n, err := w.Write(magic[:])
	written += int64(n)
	if err != nil {
		return written, err
	}

	headerSize := make([]byte, headerSizeLength)
	binary.LittleEndian.PutUint64(headerSize, uint64(len(rawHeader)))
	n, err = w.Write(headerSize)
	written += int64(n)
	if err != nil {
		return written, err
	}

	n, err = w.Write(rawHeader)
	written += int64(n)
	if err != nil {
		return written, err
	}

	for _, name := range b.names {
		n, err := w.Write(b.blobs[name].compressed)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Archive provides concurrent reads of a pack file. Every entry gets
// its own decompressing reader, so entries can be consumed in
// parallel from different goroutines.
type Archive struct {
	reader    io.ReaderAt
	header    Header
	dataStart int64
	index     map[string]IndexEntry
}

// Open reads and verifies the archive header from r.
func Open(r io.ReaderAt) (*Archive, error) {
	head := make([]byte, len(magic)+headerSizeLength)
	if _, err := r.ReadAt(head, 0); err != nil {
		return nil, ErrFormat
	}
	if !bytes.Equal(head[:len(magic)], magic[:]) {
		return nil, ErrFormat
	}

	headerSize := int64(binary.LittleEndian.Uint64(head[len(magic):]))
	rawHeader := make([]byte, headerSize)
	if _, err := r.ReadAt(rawHeader, int64(len(head))); err != nil {
		return nil, ErrFormat
	}

	var header Header
	if err := gobDecode(&header, rawHeader); err != nil {
		return nil, ErrFormat
	}

	index := make(map[string]IndexEntry, len(header.Index))
	for _, entry := range header.Index {
		index[entry.Name] = entry
	}

	return &Archive{
		reader:    r,
		header:    header,
		dataStart: int64(len(head)) + headerSize,
		index:     index,
	}, nil
}

// Header returns the archive header, index included.
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the entry names in archive order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, entry := range a.header.Index {
		names = append(names, entry.Name)
	}
	return names
}

// Open returns a decompressing reader for one entry.
func (a *Archive) Open(name string) (io.Reader, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, a.dataStart+entry.Offset, entry.CompressedSize)
	return lz4.NewReader(section), nil
}

// ReadAll returns the entire decompressed contents of one entry.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, ErrNotFound
	}
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, entry.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, raw []byte) error {
	return gob.NewDecoder(bytes.NewReader(raw)).Decode(obj)
}
