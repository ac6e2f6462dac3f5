package core

import (
	"fmt"
	"os"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// AuditDirectory lists one level of the depot tree and returns the names
// of entries that don't parse as a valid "d<digits>" component, the same
// shape of check as checking a manifest against what's actually on disk,
// but here applied against the directory structure itself since the
// component tree carries no separate manifest. It's purely diagnostic;
// neither Queue nor Streamer consult it.
func AuditDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	all := mapset.NewSet[string]()
	valid := mapset.NewSet[string]()

	for _, e := range entries {
		all.Add(e.Name())
		if _, ok := parseComponentEntry(e.Name()); ok {
			valid.Add(e.Name())
		}
	}

	stray := all.Difference(valid).ToSlice()
	sort.Strings(stray)
	return stray, nil
}
