package sdfs

import (
	"bytes"
	"encoding/binary"
)

// MBR partition types that carry a filesystem this module can mount.
const (
	PartTypeFAT32CHS   = 0x0B
	PartTypeFAT32LBA   = 0x0C
	PartTypeExFAT      = 0x07 // also NTFS; disambiguated at mount
	PartTypeGPTProtect = 0xEE
)

const (
	mbrSignatureOffset = 510
	mbrEntryOffset     = 446
	gptEntryArrayLBA   = 72 // u32 LE within GPT header
	gptFirstLBAOffset  = 32 // u32 LE within a GPT partition entry
)

var gptSignature = []byte("EFI PART")

// LocatePartition returns the starting LBA of the first usable
// partition on the device. It is a total function: unreadable media,
// a missing partition table, an unrecognized partition type, and a
// corrupt GPT chain all collapse to 0, meaning the filesystem is
// assumed to start at sector 0 (superfloppy). Validation of whatever
// lives at the returned offset is the mount step's job.
func LocatePartition(device BlockDevice) uint32 {
	var sector [SectorSize]byte
	if err := device.ReadSectors(0, 1, sector[:]); err != nil {
		return 0
	}

	if sector[mbrSignatureOffset] != 0x55 || sector[mbrSignatureOffset+1] != 0xAA {
		return 0
	}

	// First MBR table entry only; multiple partitions are out of scope.
	entry := sector[mbrEntryOffset:]
	ptype := entry[4]
	startLBA := binary.LittleEndian.Uint32(entry[8:12])

	switch ptype {
	case PartTypeGPTProtect:
		return locateGPT(device)
	case PartTypeFAT32CHS, PartTypeFAT32LBA, PartTypeExFAT:
		return startLBA
	}

	return 0
}

// locateGPT follows the protective MBR to the GPT header at LBA 1 and
// returns the first usable LBA of the first partition entry. Any read
// failure or signature mismatch along the chain yields 0.
func locateGPT(device BlockDevice) uint32 {
	var header [SectorSize]byte
	if err := device.ReadSectors(1, 1, header[:]); err != nil {
		return 0
	}
	if !bytes.Equal(header[:8], gptSignature) {
		return 0
	}

	entryLBA := binary.LittleEndian.Uint32(header[gptEntryArrayLBA : gptEntryArrayLBA+4])

	var entries [SectorSize]byte
	if err := device.ReadSectors(entryLBA, 1, entries[:]); err != nil {
		return 0
	}

	return binary.LittleEndian.Uint32(entries[gptFirstLBAOffset : gptFirstLBAOffset+4])
}
