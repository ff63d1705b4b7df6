package fat32

import (
	"github.com/rstms/sdfs"
)

// ReadFile reads an entire file into memory.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	entry, err := v.resolve(path)
	if err != nil {
		return nil, Fatal(err)
	}
	if entry.isDir() {
		return nil, Fatalf("is a directory: %s", path)
	}
	if entry.size == 0 {
		return []byte{}, nil
	}

	clusterBytes := v.spc * sdfs.SectorSize
	data := make([]byte, 0, entry.size)
	buf := make([]byte, clusterBytes)
	cluster := entry.cluster
	walked := uint32(0)

	for uint32(len(data)) < entry.size {
		if cluster < 2 || cluster >= fatEOC {
			return nil, Fatalf("truncated cluster chain: %s", path)
		}
		if walked > v.totalClusters {
			return nil, Fatalf("cyclic cluster chain: %s", path)
		}
		walked++

		if err := v.device.ReadSectors(v.clusterToLBA(cluster), v.spc, buf); err != nil {
			return nil, Fatal(err)
		}
		remaining := entry.size - uint32(len(data))
		if remaining < clusterBytes {
			data = append(data, buf[:remaining]...)
		} else {
			data = append(data, buf...)
		}

		next, err := v.fatEntry(cluster)
		if err != nil {
			return nil, Fatal(err)
		}
		cluster = next
	}

	return data, nil
}
