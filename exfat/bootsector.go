package exfat

import (
	"bytes"
	"encoding/binary"

	"github.com/rstms/sdfs"
)

var exfatSignature = []byte("EXFAT   ")

// BootSector holds the exFAT boot region fields the read path needs.
type BootSector struct {
	VolumeLength           uint64
	FATOffset              uint32 // in volume sectors
	FATLength              uint32
	ClusterHeapOffset      uint32
	ClusterCount           uint32
	RootCluster            uint32
	BytesPerSectorShift    uint8
	SectorsPerClusterShift uint8
}

// DecodeBootSector reads and validates the exFAT boot sector at
// startLBA. Failure means the media is not exFAT.
func DecodeBootSector(device sdfs.BlockDevice, startLBA uint32) (*BootSector, error) {
	var sector [sdfs.SectorSize]byte
	if err := device.ReadSectors(startLBA, 1, sector[:]); err != nil {
		return nil, Fatal(err)
	}

	if !bytes.Equal(sector[3:11], exfatSignature) {
		return nil, Fatalf("no exFAT signature")
	}
	if binary.LittleEndian.Uint16(sector[510:]) != 0xAA55 {
		return nil, Fatalf("bad boot signature")
	}
	for _, b := range sector[11:64] {
		if b != 0 {
			return nil, Fatalf("MustBeZero region not zero")
		}
	}

	bs := &BootSector{
		VolumeLength:           binary.LittleEndian.Uint64(sector[72:]),
		FATOffset:              binary.LittleEndian.Uint32(sector[80:]),
		FATLength:              binary.LittleEndian.Uint32(sector[84:]),
		ClusterHeapOffset:      binary.LittleEndian.Uint32(sector[88:]),
		ClusterCount:           binary.LittleEndian.Uint32(sector[92:]),
		RootCluster:            binary.LittleEndian.Uint32(sector[96:]),
		BytesPerSectorShift:    sector[108],
		SectorsPerClusterShift: sector[109],
	}

	if bs.BytesPerSectorShift < 9 || bs.BytesPerSectorShift > 12 {
		return nil, Fatalf("unsupported sector shift %d", bs.BytesPerSectorShift)
	}
	if bs.SectorsPerClusterShift > 25 {
		return nil, Fatalf("unsupported cluster shift %d", bs.SectorsPerClusterShift)
	}
	if bs.RootCluster < 2 {
		return nil, Fatalf("invalid root cluster %d", bs.RootCluster)
	}

	return bs, nil
}
