package exfat

// readChain reads length bytes from the cluster chain at cluster.
// NoFatChain entries occupy contiguous clusters and never touch the
// FAT.
func (v *Volume) readChain(cluster uint32, noFatChain bool, length uint64) ([]byte, error) {
	data := make([]byte, 0, length)
	walked := uint32(0)

	for uint64(len(data)) < length {
		if cluster < 2 || cluster == fatEOC || cluster == fatBad {
			return nil, Fatalf("truncated cluster chain")
		}
		if walked > v.clusterCount {
			return nil, Fatalf("cyclic cluster chain")
		}
		walked++

		base := v.clusterToSector(cluster)
		for sec := uint32(0); sec < v.sectorsPerCluster && uint64(len(data)) < length; sec++ {
			sector, err := v.readSector(base + uint64(sec))
			if err != nil {
				return nil, Fatal(err)
			}
			remaining := length - uint64(len(data))
			if remaining < uint64(v.bytesPerSector) {
				data = append(data, sector[:remaining]...)
			} else {
				data = append(data, sector...)
			}
		}

		if noFatChain {
			cluster++
		} else {
			next, err := v.fatEntry(cluster)
			if err != nil {
				return nil, Fatal(err)
			}
			cluster = next
		}
	}

	return data, nil
}

// ReadFile reads an entire file into memory.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	entry, err := v.resolve(path)
	if err != nil {
		return nil, Fatal(err)
	}
	if entry.isDir() {
		return nil, Fatalf("is a directory: %s", path)
	}
	if entry.dataLength == 0 {
		return []byte{}, nil
	}

	data, err := v.readChain(entry.firstCluster, entry.noFatChain, entry.dataLength)
	if err != nil {
		return nil, Fatal(err)
	}
	return data, nil
}
