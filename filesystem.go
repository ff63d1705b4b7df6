package sdfs

// A Volume provides read-only access to the directory tree of a
// mounted filesystem. Exactly one Volume is active per session; it is
// created by the mount step and never re-tagged afterward.
type Volume interface {
	// ReadDir enumerates the directory at path ("/" for the root).
	ReadDir(path string) ([]DirInfo, error)
	// ReadFile reads an entire file into memory.
	ReadFile(path string) ([]byte, error)
	// Label returns the volume label, or "" if none is set.
	Label() string
	// VolumeInfo returns total and free space in bytes.
	VolumeInfo() (total uint64, free uint64, err error)
	// Unmount releases any resources held by the volume. The volume
	// must not be used afterward.
	Unmount()
}

// DirInfo is the shared directory-record shape both backends decode
// their native entries into.
type DirInfo struct {
	Name  string
	Size  uint64
	IsDir bool
}
