package fat32

import (
	"encoding/binary"
	"strings"

	"github.com/rstms/sdfs"
)

// BootSector holds the BPB fields the read path needs.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	TotalSectors      uint32
	FATSize           uint32
	RootCluster       uint32
	VolumeLabel       string
}

// DecodeBootSector reads and validates the FAT32 BPB at startLBA.
// A structural mismatch (bad signature, zero FAT32 size, unsupported
// geometry) means the media is not FAT32; the caller falls back to the
// next mount candidate.
func DecodeBootSector(device sdfs.BlockDevice, startLBA uint32) (*BootSector, error) {
	var sector [sdfs.SectorSize]byte
	if err := device.ReadSectors(startLBA, 1, sector[:]); err != nil {
		return nil, Fatal(err)
	}

	if binary.LittleEndian.Uint16(sector[510:]) != 0xAA55 {
		return nil, Fatalf("bad boot signature")
	}

	bs := &BootSector{
		BytesPerSector:    binary.LittleEndian.Uint16(sector[11:]),
		SectorsPerCluster: sector[13],
		ReservedSectors:   binary.LittleEndian.Uint16(sector[14:]),
		NumFATs:           sector[16],
		TotalSectors:      binary.LittleEndian.Uint32(sector[32:]),
		FATSize:           binary.LittleEndian.Uint32(sector[36:]),
		RootCluster:       binary.LittleEndian.Uint32(sector[44:]),
		VolumeLabel:       strings.TrimRight(string(sector[71:82]), " \x00"),
	}

	// FATSize is the FAT32 field; zero means FAT12/16 or not FAT at all.
	if bs.FATSize == 0 {
		return nil, Fatalf("not a FAT32 volume")
	}
	if bs.BytesPerSector != sdfs.SectorSize {
		return nil, Fatalf("unsupported sector size %d", bs.BytesPerSector)
	}
	if bs.SectorsPerCluster == 0 {
		return nil, Fatalf("zero sectors per cluster")
	}
	if bs.RootCluster < 2 {
		return nil, Fatalf("invalid root cluster %d", bs.RootCluster)
	}

	return bs, nil
}
