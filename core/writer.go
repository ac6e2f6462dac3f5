package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// failFileSize is the absolute ceiling on a section file's length. It's
// chosen so an in-section byte offset always fits a signed 32-bit integer,
// which keeps component tuples and resume tokens interoperable with
// runtimes that don't have unsigned 32-bit arithmetic.
const failFileSize int64 = 2147483647

// sectionWriter owns the open file handle for one section and appends
// encoded records to it. It is not safe for concurrent use; a Queue owns
// exactly one at a time.
type sectionWriter struct {
	file    *os.File
	buf     *bufio.Writer
	cursor  int64
	lastID  int64
	hasLast bool

	maxFileSize int64
	maxItemSize int64

	scratch []byte
}

// openSectionWriter opens path in read-write mode, creating it if absent,
// and repairs a crash-truncated tail record before returning, per the
// recovery algorithm: a file not ending in sepByte is padded with either a
// single sepByte (if it already ends in two failByte) or failByte failByte
// sepByte, then flushed.
func openSectionWriter(path string, maxFileSize, maxItemSize, writeChunkSize, readChunkSize int64) (*sectionWriter, error) {
	f, err := createSectionFileDurable(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}

	cursor, err := recoverSection(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	lastID, hasLast, err := scanLastID(f, cursor, readChunkSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if _, err := f.Seek(cursor, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek section %q: %w", path, err)
	}

	return &sectionWriter{
		file:        f,
		buf:         bufio.NewWriterSize(f, int(writeChunkSize)),
		cursor:      cursor,
		lastID:      lastID,
		hasLast:     hasLast,
		maxFileSize: maxFileSize,
		maxItemSize: maxItemSize,
	}, nil
}

// recoverSection inspects the existing length of f and, if it doesn't end
// in a clean record terminator, pads it so that it does. It returns the
// byte offset at which subsequent writes should resume.
func recoverSection(f *os.File, path string) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat section %q: %w", path, err)
	}

	length := info.Size()
	if length > failFileSize {
		return 0, fmt.Errorf("section %q is %d bytes: %w", path, length, ErrCorrupt)
	}
	if length == 0 {
		return 0, nil
	}

	var last [1]byte
	if _, err := f.ReadAt(last[:], length-1); err != nil {
		return 0, fmt.Errorf("read tail of section %q: %w", path, err)
	}
	if last[0] == sepByte {
		return length, nil
	}

	// We crashed before the tail record's terminator was flushed. Two
	// failByte bytes are needed in case the crash happened immediately
	// after writing escByte, which would otherwise let a lone failByte be
	// misread as failRemapByte on the next decode.
	n := int64(3)
	if length < n {
		n = length
	}
	tail := make([]byte, n)
	if _, err := f.ReadAt(tail, length-n); err != nil {
		return 0, fmt.Errorf("read recovery tail of section %q: %w", path, err)
	}

	var pad []byte
	if len(tail) >= 2 && tail[len(tail)-1] == failByte && tail[len(tail)-2] == failByte {
		pad = []byte{sepByte}
	} else {
		pad = []byte{failByte, failByte, sepByte}
	}

	if _, err := f.WriteAt(pad, length); err != nil {
		return 0, fmt.Errorf("write recovery pad to section %q: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("sync recovery pad to section %q: %w", path, err)
	}

	return length + int64(len(pad)), nil
}

// scanLastID locates the start offset of the most recently written
// complete record by scanning backward, in chunks of readChunkSize, for
// the second-to-last sepByte in the file (the final sepByte always
// terminates the tail record after recovery). If only one record exists,
// its start offset is 0.
func scanLastID(f *os.File, cursor, readChunkSize int64) (int64, bool, error) {
	if cursor == 0 {
		return 0, false, nil
	}

	buf := make([]byte, readChunkSize)
	seen := 0
	pos := cursor - 1 // exclude the file's final sepByte from the scan

	for pos > 0 {
		start := pos - readChunkSize
		if start < 0 {
			start = 0
		}
		n := pos - start
		if _, err := f.ReadAt(buf[:n], start); err != nil {
			return 0, false, fmt.Errorf("scan for last record boundary: %w", err)
		}
		for i := n - 1; i >= 0; i-- {
			if buf[i] == sepByte {
				seen++
				if seen == 1 {
					return start + i + 1, true, nil
				}
			}
		}
		pos = start
	}

	return 0, true, nil
}

// isEmpty reports whether any record has ever been appended to this section.
func (w *sectionWriter) isEmpty() bool { return !w.hasLast }

// isFull reports whether the section has reached its capacity and can no
// longer accept appends.
func (w *sectionWriter) isFull() bool { return w.cursor >= w.maxFileSize }

// append encodes and writes data, returning the offset at which it starts.
// It fails with ErrInvalidItem if data is too large, or ErrSectionFull if
// the section has no room left.
func (w *sectionWriter) append(data []byte) (int64, error) {
	if int64(len(data)) > w.maxItemSize {
		return 0, fmt.Errorf("item of %d bytes exceeds max item size %d: %w", len(data), w.maxItemSize, ErrInvalidItem)
	}
	if w.isFull() {
		return 0, ErrSectionFull
	}

	nextID := w.cursor
	w.scratch = appendEncoded(w.scratch[:0], data)

	n, err := w.buf.Write(w.scratch)
	if err != nil {
		return 0, fmt.Errorf("write section record: %w", err)
	}
	w.cursor += int64(n)
	w.lastID, w.hasLast = nextID, true

	if w.isFull() {
		if err := w.sync(); err != nil {
			return 0, err
		}
	}

	return nextID, nil
}

// sync flushes the write buffer and the file to the underlying storage.
func (w *sectionWriter) sync() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush section: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync section: %w", err)
	}
	return nil
}

// close flushes and closes the underlying file handle.
func (w *sectionWriter) close() error {
	if err := w.sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close section: %w", err)
	}
	return nil
}
