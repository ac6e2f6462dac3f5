package core

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// SectionDigest returns the xxh3 hash of a section file's full contents.
// It is a diagnostic helper only: Queue and Streamer never call it, and it
// plays no part in the wire format, recovery, or decoding. It's meant for
// an operator to confirm a rolled-over section hasn't changed since it
// stopped being the active write target, e.g. after copying it elsewhere.
func SectionDigest(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open section %q: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("digest section %q: %w", path, err)
	}
	return h.Sum64(), nil
}
