package core

import (
	"fmt"
	"os"
)

// Item is one record delivered by a Streamer. ID is the 64-bit resume
// token for the record that follows this one, not a dense sequence
// number, so callers can hand it straight back to Queue.Stream to resume.
// Data is only valid until the next call to Advance.
type Item struct {
	ID        uint64
	Data      []byte
	Truncated bool
}

// Streamer is a pull-based iterator over a Queue's records, transparently
// rolling from one section to the next as they fill up. It is not safe
// for concurrent use.
type Streamer struct {
	dir string
	cfg *config

	component Component
	offset    uint32
	knownEOF  bool

	reader  *sectionReader
	current *Item
	err     error
}

func newStreamer(dir string, cfg *config, comp Component, offset uint32) *Streamer {
	// An offset at or past the section capacity means the token pointed
	// past the last record of a full section, so roll on the first Advance.
	return &Streamer{dir: dir, cfg: cfg, component: comp, offset: offset, knownEOF: int64(offset) >= cfg.maxFileSize}
}

// Advance attempts to produce the next item, skipping truncated records
// unless includeTruncated is set. It returns false with a nil error when
// there's nothing more available right now (the caller should poll again
// later); the queue may still be growing.
func (s *Streamer) Advance(includeTruncated bool) (bool, error) {
	s.current = nil

	if s.err != nil {
		return false, fmt.Errorf("%w", ErrHalted)
	}

	for {
		if s.knownEOF {
			next, ok := s.component.Next()
			if !ok {
				return false, nil
			}
			s.component = next
			s.knownEOF = false
			s.offset = 0
			if s.reader != nil {
				_ = s.reader.close()
				s.reader = nil
			}
		}

		if s.reader == nil {
			_, path := s.component.Paths(s.dir)
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					return false, nil
				}
				s.err = fmt.Errorf("stat section %q: %w", path, err)
				return false, s.err
			}

			r, err := openSectionReader(path, s.offset, s.cfg.maxFileSize, s.cfg.maxItemSize, s.cfg.readChunkSize)
			if err != nil {
				s.err = err
				return false, err
			}
			s.reader = r
		}

		ok, err := s.reader.advance(includeTruncated)
		if err != nil {
			s.err = err
			return false, err
		}
		if !ok {
			return false, nil
		}

		item := s.reader.current
		s.knownEOF = item.KnownEOF
		s.offset = item.ID
		s.current = &Item{
			ID:        EncodeToken(s.component, item.ID),
			Data:      item.Data,
			Truncated: item.Truncated,
		}
		return true, nil
	}
}

// Current returns the item most recently produced by Advance, without
// consuming another one.
func (s *Streamer) Current() (*Item, bool) {
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}

// Next advances past truncated records and returns the next item, if any.
func (s *Streamer) Next() (*Item, bool, error) {
	ok, err := s.Advance(false)
	if err != nil || !ok {
		return nil, false, err
	}
	item, _ := s.Current()
	return item, true, nil
}

// NextAll advances including truncated records and returns the next item,
// if any.
func (s *Streamer) NextAll() (*Item, bool, error) {
	ok, err := s.Advance(true)
	if err != nil || !ok {
		return nil, false, err
	}
	item, _ := s.Current()
	return item, true, nil
}

// Close releases the streamer's open section file handle, if any.
func (s *Streamer) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.close()
	s.reader = nil
	return err
}
