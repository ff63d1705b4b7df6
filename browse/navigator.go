package browse

import (
	"strings"

	"github.com/rstms/sdfs"
)

// FileInfo is the read-only inspect event emitted by SelectFile.
type FileInfo struct {
	Name string
	Size uint32
}

// RenderModel is what the presentation layer draws after every
// transition.
type RenderModel struct {
	Path         string
	Entries      []Entry // visible slice of the table
	Scroll       int
	HasMoreAbove bool
	HasMoreBelow bool
	Files        int
	Dirs         int
}

// Navigator owns the current path, scroll offset, and entry table,
// and defines the transition rules for user actions. All transitions
// are synchronous and run to completion.
type Navigator struct {
	volume sdfs.Volume
	path   string
	scroll int
	table  Table
}

// NewNavigator starts navigation at the root.
func NewNavigator(volume sdfs.Volume) *Navigator {
	n := &Navigator{
		volume: volume,
		path:   "/",
	}
	n.table.Load(volume, n.path)
	return n
}

func (n *Navigator) Path() string {
	return n.path
}

func (n *Navigator) Table() *Table {
	return &n.table
}

// Refresh reloads the current directory, keeping the scroll position
// (clamped to the new table).
func (n *Navigator) Refresh() {
	n.table.Load(n.volume, n.path)
	n.clampScroll()
}

func (n *Navigator) clampScroll() {
	if n.scroll >= n.table.Len() {
		n.scroll = n.table.Len() - 1
	}
	if n.scroll < 0 {
		n.scroll = 0
	}
}

func (n *Navigator) find(name string) *Entry {
	entries := n.table.Entries()
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

// Enter descends into the named directory. Naming a file or an absent
// entry is a caller error.
func (n *Navigator) Enter(name string) error {
	entry := n.find(name)
	if entry == nil {
		return Fatalf("no such entry: %s", name)
	}
	if !entry.IsDir {
		return Fatalf("not a directory: %s", name)
	}

	path := n.path
	if path == "/" {
		path += name
	} else {
		path += "/" + name
	}
	if len(path) > MaxPathLen {
		return Fatalf("path too long: %s", path)
	}

	n.path = path
	n.scroll = 0
	n.table.Load(n.volume, n.path)
	return nil
}

// Up strips the last path component and reloads. At the root it
// returns false: the defined exit transition, not an error.
func (n *Navigator) Up() bool {
	if n.path == "/" {
		return false
	}

	idx := strings.LastIndexByte(n.path, '/')
	if idx <= 0 {
		n.path = "/"
	} else {
		n.path = n.path[:idx]
	}

	n.scroll = 0
	n.table.Load(n.volume, n.path)
	return true
}

// PageUp scrolls back one page. No reload.
func (n *Navigator) PageUp(pageSize int) {
	n.scroll -= pageSize
	if n.scroll < 0 {
		n.scroll = 0
	}
}

// PageDown scrolls forward one page, clamped so the last page stays
// full. No reload.
func (n *Navigator) PageDown(pageSize int) {
	max := n.table.Len() - pageSize
	if max < 0 {
		max = 0
	}
	n.scroll += pageSize
	if n.scroll > max {
		n.scroll = max
	}
}

// SelectFile emits the inspect event for the named file. No path
// mutation.
func (n *Navigator) SelectFile(name string) (FileInfo, error) {
	entry := n.find(name)
	if entry == nil {
		return FileInfo{}, Fatalf("no such entry: %s", name)
	}
	if entry.IsDir {
		return FileInfo{}, Fatalf("is a directory: %s", name)
	}
	return FileInfo{Name: entry.Name, Size: entry.Size}, nil
}

// Render produces the model for one page of pageSize rows.
func (n *Navigator) Render(pageSize int) RenderModel {
	entries := n.table.Entries()

	end := n.scroll + pageSize
	if end > len(entries) {
		end = len(entries)
	}
	start := n.scroll
	if start > end {
		start = end
	}

	model := RenderModel{
		Path:         n.path,
		Entries:      entries[start:end],
		Scroll:       n.scroll,
		HasMoreAbove: start > 0,
		HasMoreBelow: end < len(entries),
	}
	for i := range entries {
		if entries[i].IsDir {
			model.Dirs++
		} else {
			model.Files++
		}
	}
	return model
}
