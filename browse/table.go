package browse

import (
	"sort"
	"strings"

	"github.com/rstms/sdfs"
)

const (
	// MaxEntries bounds the table; directory records beyond it are
	// silently dropped.
	MaxEntries = 128
	// MaxNameLen bounds a canonical entry name in characters.
	MaxNameLen = 47
	// MaxPathLen bounds the navigation path.
	MaxPathLen = 255
)

// Entry is one filesystem-agnostic directory row.
type Entry struct {
	Name  string
	Size  uint32
	IsDir bool
}

// Table is the fixed-capacity entry table backing the navigator. It
// is replaced wholesale on every load, never patched.
type Table struct {
	entries   [MaxEntries]Entry
	count     int
	truncated bool
}

// Load replaces the table with the directory at path. A failing read
// yields an empty table; once a volume is mounted, loading is total.
func (t *Table) Load(volume sdfs.Volume, path string) {
	t.count = 0
	t.truncated = false

	records, err := volume.ReadDir(path)
	if err != nil {
		return
	}

	for i := range records {
		if t.count >= MaxEntries {
			t.truncated = true
			break
		}
		t.entries[t.count] = Entry{
			Name:  truncateName(records[i].Name),
			Size:  uint32(records[i].Size),
			IsDir: records[i].IsDir,
		}
		t.count++
	}

	t.sort()
}

// Entries returns the live table contents, valid until the next Load.
func (t *Table) Entries() []Entry {
	return t.entries[:t.count]
}

func (t *Table) Len() int {
	return t.count
}

// Truncated reports whether records were dropped at the capacity
// bound. Not surfaced to the user; recorded so a later UI decision
// can be.
func (t *Table) Truncated() bool {
	return t.truncated
}

// sort orders directories before files, then case-insensitive name
// ascending. Stable, so equal keys keep enumeration order regardless
// of backend.
func (t *Table) sort() {
	entries := t.entries[:t.count]
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= MaxNameLen {
		return name
	}
	return string(runes[:MaxNameLen])
}
