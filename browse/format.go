package browse

import (
	"fmt"
)

// FormatSize renders a byte count into a fixed 4-character column.
func FormatSize(size uint32) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%4d", size)
	case size < 1024*1024:
		return fmt.Sprintf("%3dK", size/1024)
	case size < 1024*1024*1024:
		return fmt.Sprintf("%3dM", size/(1024*1024))
	default:
		return fmt.Sprintf("%3dG", size/(1024*1024*1024))
	}
}
