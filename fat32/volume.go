package fat32

import (
	"encoding/binary"

	"github.com/rstms/sdfs"
)

const (
	// fatEOC marks end-of-chain; FAT entries at or above are terminal.
	fatEOC = 0x0FFFFFF8
	// fatMask strips the reserved top nibble of a FAT32 entry.
	fatMask = 0x0FFFFFFF
)

// Volume is a read-only FAT32 filesystem on a block device, offset by
// the partition start.
type Volume struct {
	device        sdfs.BlockDevice
	start         uint32
	spc           uint32
	fatStart      uint32 // absolute LBA
	fatSectors    uint32
	dataStart     uint32 // absolute LBA
	rootCluster   uint32
	totalClusters uint32
	label         string
}

// ensure Volume implements sdfs.Volume
var _ sdfs.Volume = (*Volume)(nil)

// New mounts a FAT32 volume at startLBA.
func New(device sdfs.BlockDevice, startLBA uint32) (*Volume, error) {
	bs, err := DecodeBootSector(device, startLBA)
	if err != nil {
		return nil, Fatal(err)
	}

	v := &Volume{
		device:      device,
		start:       startLBA,
		spc:         uint32(bs.SectorsPerCluster),
		fatSectors:  bs.FATSize,
		rootCluster: bs.RootCluster,
		label:       bs.VolumeLabel,
	}
	v.fatStart = startLBA + uint32(bs.ReservedSectors)
	v.dataStart = v.fatStart + v.fatSectors*uint32(bs.NumFATs)
	v.totalClusters = (bs.TotalSectors - uint32(bs.ReservedSectors) -
		v.fatSectors*uint32(bs.NumFATs)) / v.spc

	// a FAT entry exists for every addressable cluster; a short FAT
	// bounds the cluster heap
	fatCapacity := v.fatSectors*(sdfs.SectorSize/4) - 2
	if v.totalClusters > fatCapacity {
		v.totalClusters = fatCapacity
	}

	return v, nil
}

func (v *Volume) Label() string {
	return v.label
}

// Unmount is a no-op: the FAT32 backend holds no resources beyond the
// device reference.
func (v *Volume) Unmount() {}

func (v *Volume) clusterToLBA(cluster uint32) uint32 {
	return v.dataStart + (cluster-2)*v.spc
}

// fatEntry returns the FAT entry for cluster, masked to 28 bits.
func (v *Volume) fatEntry(cluster uint32) (uint32, error) {
	offset := cluster * 4
	var sector [sdfs.SectorSize]byte
	err := v.device.ReadSectors(v.fatStart+offset/sdfs.SectorSize, 1, sector[:])
	if err != nil {
		return 0, Fatal(err)
	}
	return binary.LittleEndian.Uint32(sector[offset%sdfs.SectorSize:]) & fatMask, nil
}

// VolumeInfo scans the FAT counting free clusters.
func (v *Volume) VolumeInfo() (uint64, uint64, error) {
	clusterSize := uint64(v.spc) * sdfs.SectorSize
	total := uint64(v.totalClusters) * clusterSize

	var free uint64
	var sector [sdfs.SectorSize]byte
	cluster := uint32(2)
	for sec := uint32(0); sec < v.fatSectors && cluster < v.totalClusters+2; sec++ {
		if err := v.device.ReadSectors(v.fatStart+sec, 1, sector[:]); err != nil {
			return 0, 0, Fatal(err)
		}
		start := uint32(0)
		if sec == 0 {
			start = 2 // entries 0 and 1 are reserved
		}
		for i := start; i < sdfs.SectorSize/4 && cluster < v.totalClusters+2; i, cluster = i+1, cluster+1 {
			if binary.LittleEndian.Uint32(sector[i*4:])&fatMask == 0 {
				free++
			}
		}
	}

	return total, free * clusterSize, nil
}
