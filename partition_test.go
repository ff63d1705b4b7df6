package sdfs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func mbrSector(ptype byte, startLBA uint32) []byte {
	sector := make([]byte, SectorSize)
	sector[mbrSignatureOffset] = 0x55
	sector[mbrSignatureOffset+1] = 0xAA
	sector[mbrEntryOffset+4] = ptype
	binary.LittleEndian.PutUint32(sector[mbrEntryOffset+8:], startLBA)
	return sector
}

func TestLocateSuperfloppy(t *testing.T) {
	device := NewMemDevice(1024)
	// all-zero sector 0: no boot signature
	require.Equal(t, uint32(0), LocatePartition(device))
}

func TestLocateReadFailure(t *testing.T) {
	device := NewMemDevice(1024)
	device.FailLBA = map[uint32]bool{0: true}
	require.Equal(t, uint32(0), LocatePartition(device))
}

func TestLocateMBRFAT32(t *testing.T) {
	device := NewMemDevice(1 << 20)
	device.SetSector(0, mbrSector(PartTypeFAT32LBA, 8192))
	require.Equal(t, uint32(8192), LocatePartition(device))
}

func TestLocateMBRExFAT(t *testing.T) {
	device := NewMemDevice(1 << 20)
	device.SetSector(0, mbrSector(PartTypeExFAT, 2048))
	require.Equal(t, uint32(2048), LocatePartition(device))
}

func TestLocateUnknownType(t *testing.T) {
	device := NewMemDevice(1024)
	device.SetSector(0, mbrSector(0x83, 4096))
	require.Equal(t, uint32(0), LocatePartition(device))
}

func TestLocateGPT(t *testing.T) {
	device := NewMemDevice(1 << 20)
	device.SetSector(0, mbrSector(PartTypeGPTProtect, 1))

	header := make([]byte, SectorSize)
	copy(header, "EFI PART")
	binary.LittleEndian.PutUint32(header[gptEntryArrayLBA:], 2)
	device.SetSector(1, header)

	entries := make([]byte, SectorSize)
	binary.LittleEndian.PutUint32(entries[gptFirstLBAOffset:], 2048)
	device.SetSector(2, entries)

	require.Equal(t, uint32(2048), LocatePartition(device))
}

func TestLocateGPTBadSignature(t *testing.T) {
	device := NewMemDevice(1024)
	device.SetSector(0, mbrSector(PartTypeGPTProtect, 1))
	// LBA 1 left zeroed: no "EFI PART"
	require.Equal(t, uint32(0), LocatePartition(device))
}

func TestLocateGPTEntryReadFailure(t *testing.T) {
	device := NewMemDevice(1024)
	device.SetSector(0, mbrSector(PartTypeGPTProtect, 1))

	header := make([]byte, SectorSize)
	copy(header, "EFI PART")
	binary.LittleEndian.PutUint32(header[gptEntryArrayLBA:], 2)
	device.SetSector(1, header)
	device.FailLBA = map[uint32]bool{2: true}

	require.Equal(t, uint32(0), LocatePartition(device))
}

// LocatePartition is total: every sector-0 content yields a value.
func TestLocateTotality(t *testing.T) {
	device := NewMemDevice(4)
	sector := make([]byte, SectorSize)
	for i := range sector {
		sector[i] = byte(i * 7)
	}
	sector[mbrSignatureOffset] = 0x55
	sector[mbrSignatureOffset+1] = 0xAA
	for ptype := 0; ptype < 256; ptype++ {
		sector[mbrEntryOffset+4] = byte(ptype)
		device.SetSector(0, sector)
		LocatePartition(device) // must not panic
	}
}
