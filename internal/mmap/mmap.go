// Package mmap provides read-only memory-mapped file access for local
// artifact reads. On platforms without mmap support the file is read into
// memory instead, with identical semantics.
package mmap

import (
	"errors"
	"io"
	"os"
)

// ErrClosed is returned when accessing a closed mapping.
var ErrClosed = errors.New("mmap: closed")

// File represents a memory-mapped (or in-memory) read-only file.
type File struct {
	data   []byte
	unmap  func([]byte) error
	closed bool
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &File{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &File{data: data, unmap: unmap}, nil
}

// Bytes returns the underlying byte slice.
// The slice is valid only until Close is called.
func (m *File) Bytes() []byte {
	if m.closed {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *File) Size() int64 {
	return int64(len(m.data))
}

// ReadAt implements io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the memory. It is idempotent.
func (m *File) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.unmap != nil && m.data != nil {
		err := m.unmap(m.data)
		m.data = nil
		return err
	}
	m.data = nil
	return nil
}
