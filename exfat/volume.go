package exfat

import (
	"encoding/binary"
	"math/bits"
	"unicode/utf16"

	"github.com/rstms/sdfs"
)

const (
	fatEOC = 0xFFFFFFFF
	fatBad = 0xFFFFFFF7

	cacheSlots = 16
)

type cacheEntry struct {
	sector uint64
	data   []byte
	stamp  uint32
}

// Volume is a read-only exFAT filesystem on a block device, offset by
// the partition start. Unlike the FAT32 backend it owns allocated
// state (sector cache, allocation bitmap) released by Unmount.
type Volume struct {
	device sdfs.BlockDevice
	start  uint32

	bytesPerSector    uint32
	sectorsPerCluster uint32
	clusterCount      uint32
	fatOffset         uint32
	clusterHeapOffset uint32
	rootCluster       uint32

	bitmap []byte
	label  string

	cache [cacheSlots]cacheEntry
	clock uint32
}

// ensure Volume implements sdfs.Volume
var _ sdfs.Volume = (*Volume)(nil)

// New mounts an exFAT volume at startLBA.
func New(device sdfs.BlockDevice, startLBA uint32) (*Volume, error) {
	bs, err := DecodeBootSector(device, startLBA)
	if err != nil {
		return nil, Fatal(err)
	}

	v := &Volume{
		device:            device,
		start:             startLBA,
		bytesPerSector:    1 << bs.BytesPerSectorShift,
		sectorsPerCluster: 1 << bs.SectorsPerClusterShift,
		clusterCount:      bs.ClusterCount,
		fatOffset:         bs.FATOffset,
		clusterHeapOffset: bs.ClusterHeapOffset,
		rootCluster:       bs.RootCluster,
	}

	if err := v.loadMetadata(); err != nil {
		return nil, Fatal(err)
	}
	return v, nil
}

// Unmount drops the cache and bitmap. The volume must not be used
// afterward.
func (v *Volume) Unmount() {
	v.bitmap = nil
	v.cache = [cacheSlots]cacheEntry{}
}

func (v *Volume) Label() string {
	return v.label
}

// readSector returns a cached volume sector (volume sectors may be
// larger than device sectors; the shift fields decide).
func (v *Volume) readSector(sector uint64) ([]byte, error) {
	v.clock++
	oldest := 0
	for i := range v.cache {
		if v.cache[i].data != nil && v.cache[i].sector == sector {
			v.cache[i].stamp = v.clock
			return v.cache[i].data, nil
		}
		if v.cache[i].stamp < v.cache[oldest].stamp {
			oldest = i
		}
	}

	devPerSector := v.bytesPerSector / sdfs.SectorSize
	data := make([]byte, v.bytesPerSector)
	lba := v.start + uint32(sector)*devPerSector
	if err := v.device.ReadSectors(lba, devPerSector, data); err != nil {
		return nil, Fatal(err)
	}

	v.cache[oldest] = cacheEntry{sector: sector, data: data, stamp: v.clock}
	return data, nil
}

func (v *Volume) clusterToSector(cluster uint32) uint64 {
	return uint64(v.clusterHeapOffset) +
		uint64(cluster-2)*uint64(v.sectorsPerCluster)
}

func (v *Volume) fatEntry(cluster uint32) (uint32, error) {
	offset := uint64(cluster) * 4
	sector, err := v.readSector(uint64(v.fatOffset) + offset/uint64(v.bytesPerSector))
	if err != nil {
		return 0, Fatal(err)
	}
	return binary.LittleEndian.Uint32(sector[offset%uint64(v.bytesPerSector):]), nil
}

// loadMetadata walks the root directory for the volume label (0x83)
// and the allocation bitmap (0x81), loading the bitmap into memory.
func (v *Volume) loadMetadata() error {
	it, err := newDirIter(v, v.rootCluster, false, 0)
	if err != nil {
		return Fatal(err)
	}

	var bitmapCluster uint32
	var bitmapLength uint64

	for {
		entry, err := it.get()
		if err != nil || entry == nil {
			break
		}
		switch entry[0] {
		case entryTypeLabel:
			n := int(entry[1])
			if n > 11 {
				n = 11
			}
			chars := make([]uint16, n)
			for i := 0; i < n; i++ {
				chars[i] = binary.LittleEndian.Uint16(entry[2+i*2:])
			}
			v.label = string(utf16.Decode(chars))
		case entryTypeBitmap:
			if entry[1]&0x01 == 0 { // first bitmap only
				bitmapCluster = binary.LittleEndian.Uint32(entry[20:])
				bitmapLength = binary.LittleEndian.Uint64(entry[24:])
			}
		case entryTypeEOD:
			goto done
		}
		if it.next() != nil {
			break
		}
	}
done:

	if bitmapCluster >= 2 && bitmapLength > 0 {
		maxLength := (uint64(v.clusterCount) + 7) / 8
		if bitmapLength > maxLength {
			bitmapLength = maxLength
		}
		bitmap, err := v.readChain(bitmapCluster, false, bitmapLength)
		if err != nil {
			return Fatal(err)
		}
		v.bitmap = bitmap
	}
	return nil
}

// VolumeInfo computes totals from the cluster heap and the allocation
// bitmap.
func (v *Volume) VolumeInfo() (uint64, uint64, error) {
	clusterSize := uint64(v.sectorsPerCluster) * uint64(v.bytesPerSector)
	total := uint64(v.clusterCount) * clusterSize

	if v.bitmap == nil {
		return total, 0, nil
	}
	var used uint64
	for _, b := range v.bitmap {
		used += uint64(bits.OnesCount8(b))
	}
	if used > uint64(v.clusterCount) {
		used = uint64(v.clusterCount)
	}
	return total, (uint64(v.clusterCount) - used) * clusterSize, nil
}
