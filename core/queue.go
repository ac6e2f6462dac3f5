package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Default tuning values, matching the most recent depot variant: a
// stack-friendly default max item size, and a section capacity clamped well under
// the signed-32-bit ceiling.
const (
	DefaultMaxItemSize    int64 = 8192
	DefaultMaxFileSize    int64 = 2_147_287_039
	DefaultReadChunkSize  int64 = 8192
	DefaultWriteChunkSize int64 = 8192
)

type config struct {
	maxFileSize    int64
	maxItemSize    int64
	readChunkSize  int64
	writeChunkSize int64
}

// Option configures a Queue at Open time.
type Option func(*config)

// WithMaxFileSize sets the section-full threshold in bytes. It is clamped
// to failFileSize - 3*maxItemSize so escape expansion can never push an
// in-section offset past the signed-32-bit range.
func WithMaxFileSize(n int64) Option { return func(c *config) { c.maxFileSize = n } }

// WithMaxItemSize sets the maximum record length in bytes.
func WithMaxItemSize(n int64) Option { return func(c *config) { c.maxItemSize = n } }

// WithReadChunkSize sets the section reader's fixed buffer size. It must be
// at least maxItemSize.
func WithReadChunkSize(n int64) Option { return func(c *config) { c.readChunkSize = n } }

// WithWriteChunkSize sets the section writer's buffer size. It must be at
// least maxItemSize.
func WithWriteChunkSize(n int64) Option { return func(c *config) { c.writeChunkSize = n } }

func newConfig(opts ...Option) (*config, error) {
	c := &config{
		maxFileSize:    DefaultMaxFileSize,
		maxItemSize:    DefaultMaxItemSize,
		readChunkSize:  DefaultReadChunkSize,
		writeChunkSize: DefaultWriteChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if clamp := failFileSize - 3*c.maxItemSize; c.maxFileSize > clamp {
		c.maxFileSize = clamp
	}
	if c.readChunkSize < c.maxItemSize {
		return nil, fmt.Errorf("read chunk size %d is smaller than max item size %d", c.readChunkSize, c.maxItemSize)
	}
	if c.writeChunkSize < c.maxItemSize {
		return nil, fmt.Errorf("write chunk size %d is smaller than max item size %d", c.writeChunkSize, c.maxItemSize)
	}

	return c, nil
}

// Queue composes an unbounded sequence of sections into a single logical
// append-only log. It lazily discovers its current write position on
// first use, and is safe for concurrent Append/Sync/IsEmpty/IsFull/LastID
// calls from multiple goroutines (but not from multiple processes: a queue
// has at most one writer).
type Queue struct {
	dir string
	cfg *config

	mu     sync.Mutex
	cur    Component
	writer *sectionWriter
}

// Open returns a Queue rooted at dir. No file I/O happens in Open: dir is
// created, if absent, and the current section opened on the first
// Append/Sync/IsEmpty/IsFull/LastID call. Stream does not trigger this.
func Open(dir string, opts ...Option) (*Queue, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Queue{dir: dir, cfg: cfg}, nil
}

// ensureOpen performs the lazy discovery described by the queue's design:
// descend the directory tree, creating "d0" at any empty intermediate
// level, and open (creating if needed) the current section file.
func (q *Queue) ensureOpen() error {
	if q.writer != nil {
		return nil
	}

	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", q.dir, err)
	}

	c0dir, c0, err := latestInitDir(q.dir)
	if err != nil {
		return err
	}
	c1dir, c1, err := latestInitDir(c0dir)
	if err != nil {
		return err
	}
	c2dir, c2, err := latestInitDir(c1dir)
	if err != nil {
		return err
	}
	c3, err := latestFileDigit(c2dir)
	if err != nil {
		return err
	}

	comp, err := ComponentFrom(c0, c1, c2, c3)
	if err != nil {
		return err
	}

	_, path := comp.Paths(q.dir)
	w, err := openSectionWriter(path, q.cfg.maxFileSize, q.cfg.maxItemSize, q.cfg.writeChunkSize, q.cfg.readChunkSize)
	if err != nil {
		return err
	}

	q.cur = comp
	q.writer = w
	return nil
}

// latestInitDir finds the subdirectory of dir with the largest "d<n>" name,
// creating "d0" if none exists yet.
func latestInitDir(dir string) (string, uint32, error) {
	name, n, found, err := findLatestEntry(dir)
	if err != nil {
		return "", 0, err
	}
	if found {
		return filepath.Join(dir, name), n, nil
	}

	path := filepath.Join(dir, "d0")
	if err := os.Mkdir(path, 0o755); err != nil && !os.IsExist(err) {
		return "", 0, fmt.Errorf("mkdir %q: %w", path, err)
	}
	return path, 0, nil
}

// latestFileDigit finds the largest "d<n>" file name in dir without
// creating anything; the section writer creates the file itself.
func latestFileDigit(dir string) (uint32, error) {
	_, n, _, err := findLatestEntry(dir)
	return n, err
}

// Append writes data as a new record, rolling over to a fresh section
// first if the current one is full.
func (q *Queue) Append(data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureOpen(); err != nil {
		return err
	}

	_, err := q.writer.append(data)
	if errors.Is(err, ErrSectionFull) {
		if err := q.advanceLocked(); err != nil {
			return err
		}
		_, err = q.writer.append(data)
	}
	return err
}

// advanceLocked syncs the current section, opens the successor section
// (creating intermediate directories as needed), and makes it current.
func (q *Queue) advanceLocked() error {
	if err := q.writer.sync(); err != nil {
		return err
	}

	next, ok := q.cur.Next()
	if !ok {
		return ErrQueueFull
	}

	dir, path := next.Paths(q.dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", dir, err)
	}

	w, err := openSectionWriter(path, q.cfg.maxFileSize, q.cfg.maxItemSize, q.cfg.writeChunkSize, q.cfg.readChunkSize)
	if err != nil {
		return err
	}

	if err := q.writer.close(); err != nil {
		_ = w.close()
		return err
	}

	q.cur = next
	q.writer = w
	return nil
}

// IsEmpty reports whether the queue has never had a record appended to it.
func (q *Queue) IsEmpty() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureOpen(); err != nil {
		return false, err
	}
	return q.cur == NewComponent() && q.writer.isEmpty(), nil
}

// IsFull reports whether the queue can accept no further records: its
// current component has no successor and its current section is full.
func (q *Queue) IsFull() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureOpen(); err != nil {
		return false, err
	}
	return q.cur.IsFull() && q.writer.isFull(), nil
}

// LastID returns the resume token for the most recently appended record's
// start offset, or false if the queue is empty.
func (q *Queue) LastID() (uint64, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureOpen(); err != nil {
		return 0, false, err
	}
	if !q.writer.hasLast {
		return 0, false, nil
	}
	return EncodeToken(q.cur, uint32(q.writer.lastID)), true, nil
}

// Sync flushes the current section's write buffer and file to disk.
func (q *Queue) Sync() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureOpen(); err != nil {
		return err
	}
	return q.writer.sync()
}

// Close flushes and releases the current section's file handle. The Queue
// must not be used afterward.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.writer == nil {
		return nil
	}
	return q.writer.close()
}

// Stream returns a Streamer over the queue's records in write order,
// starting from the record identified by token, or from the very
// beginning if token is nil.
func (q *Queue) Stream(token *uint64) (*Streamer, error) {
	comp := NewComponent()
	var offset uint32

	if token != nil {
		c, off, err := DecodeToken(*token)
		if err != nil {
			return nil, err
		}
		comp, offset = c, off
	}

	return newStreamer(q.dir, q.cfg, comp, offset), nil
}
