package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// createSectionFileDurable opens (creating if absent) the section file at
// dir/name in read-write mode, then fsyncs both the file and its parent
// directory so the file's existence survives a crash immediately after
// creation, not just its eventual contents.
func createSectionFileDurable(dir, name string) (*os.File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create section %q: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sync section %q: %w", path, err)
	}

	d, err := os.Open(dir)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open section dir %q: %w", dir, err)
	}
	defer d.Close() // nolint:errcheck

	if err := d.Sync(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sync section dir %q: %w", dir, err)
	}

	return f, nil
}
