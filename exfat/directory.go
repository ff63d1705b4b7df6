package exfat

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/rstms/sdfs"
)

const (
	dirEntrySize = 32

	entryTypeEOD    = 0x00
	entryTypeBitmap = 0x81
	entryTypeLabel  = 0x83
	entryTypeFile   = 0x85
	entryTypeStream = 0xC0
	entryTypeName   = 0xC1

	streamNoFatChain = 0x02

	maxNameChars = 255
)

// dirIter walks the 32-byte records of a directory cluster chain.
type dirIter struct {
	vol         *Volume
	noFatChain  bool
	dataLength  uint64 // 0 means follow the chain to EOC
	cluster     uint32
	sectorInCl  uint32
	entryInSec  uint32
	byteOffset  uint64
	sector      []byte
	walked      uint32 // cyclic-chain guard
}

func newDirIter(v *Volume, cluster uint32, noFatChain bool, dataLength uint64) (*dirIter, error) {
	if cluster < 2 {
		return nil, Fatalf("invalid directory cluster %d", cluster)
	}
	it := &dirIter{
		vol:        v,
		noFatChain: noFatChain,
		dataLength: dataLength,
		cluster:    cluster,
	}
	sector, err := v.readSector(v.clusterToSector(cluster))
	if err != nil {
		return nil, Fatal(err)
	}
	it.sector = sector
	return it, nil
}

// get returns the current 32-byte record, or nil at end.
func (it *dirIter) get() ([]byte, error) {
	if it.sector == nil {
		return nil, nil
	}
	if it.dataLength > 0 && it.byteOffset >= it.dataLength {
		return nil, nil
	}
	off := it.entryInSec * dirEntrySize
	return it.sector[off : off+dirEntrySize], nil
}

// next advances one record, crossing sector and cluster boundaries.
func (it *dirIter) next() error {
	v := it.vol
	entriesPerSector := v.bytesPerSector / dirEntrySize

	it.entryInSec++
	it.byteOffset += dirEntrySize

	if it.dataLength > 0 && it.byteOffset >= it.dataLength {
		it.sector = nil
		return Fatalf("end of directory")
	}

	if it.entryInSec < entriesPerSector {
		return nil
	}
	it.entryInSec = 0
	it.sectorInCl++

	if it.sectorInCl >= v.sectorsPerCluster {
		it.sectorInCl = 0
		if it.noFatChain {
			it.cluster++
		} else {
			next, err := v.fatEntry(it.cluster)
			if err != nil {
				it.sector = nil
				return Fatal(err)
			}
			it.cluster = next
		}
		it.walked++
		if it.cluster < 2 || it.cluster == fatEOC || it.cluster == fatBad ||
			it.walked > v.clusterCount {
			it.sector = nil
			return Fatalf("end of directory chain")
		}
	}

	sector, err := it.vol.readSector(v.clusterToSector(it.cluster) + uint64(it.sectorInCl))
	if err != nil {
		it.sector = nil
		return Fatal(err)
	}
	it.sector = sector
	return nil
}

// entryInfo is one parsed file entry set (0x85 + 0xC0 + 0xC1...).
type entryInfo struct {
	name         string
	attributes   sdfs.DirectoryAttr
	firstCluster uint32
	dataLength   uint64
	noFatChain   bool
}

func (e *entryInfo) isDir() bool {
	return e.attributes&sdfs.AttrDirectory != 0
}

// parseEntrySet decodes the entry set at the iterator's position,
// leaving the iterator on the set's last record.
func (it *dirIter) parseEntrySet() (*entryInfo, error) {
	record, err := it.get()
	if err != nil || record == nil || record[0] != entryTypeFile {
		return nil, Fatalf("not a file entry")
	}

	secondaryCount := int(record[1])
	info := &entryInfo{
		attributes: sdfs.DirectoryAttr(binary.LittleEndian.Uint16(record[4:])),
	}
	if secondaryCount < 2 {
		return nil, Fatalf("file entry missing stream or name")
	}

	if err := it.next(); err != nil {
		return nil, Fatal(err)
	}
	record, err = it.get()
	if err != nil || record == nil || record[0] != entryTypeStream {
		return nil, Fatalf("missing stream extension")
	}

	info.noFatChain = record[1]&streamNoFatChain != 0
	nameLength := int(record[3])
	info.firstCluster = binary.LittleEndian.Uint32(record[20:])
	info.dataLength = binary.LittleEndian.Uint64(record[24:])

	var chars []uint16
	for i := 0; i < secondaryCount-1; i++ {
		if err := it.next(); err != nil {
			break
		}
		record, err = it.get()
		if err != nil || record == nil || record[0] != entryTypeName {
			break
		}
		for j := 0; j < 15 && len(chars) < nameLength && len(chars) < maxNameChars; j++ {
			chars = append(chars, binary.LittleEndian.Uint16(record[2+j*2:]))
		}
	}

	info.name = string(utf16.Decode(chars))
	return info, nil
}

// walkDir calls fn for every file entry set of the directory dir.
// NoFatChain directories occupy contiguous clusters bounded by their
// data length, so the directory's own entry set drives the iterator.
// fn returning false stops the walk.
func (v *Volume) walkDir(dir *entryInfo, fn func(*entryInfo) bool) error {
	it, err := newDirIter(v, dir.firstCluster, dir.noFatChain, dir.dataLength)
	if err != nil {
		return Fatal(err)
	}

	for {
		record, err := it.get()
		if err != nil || record == nil {
			return nil
		}
		if record[0] == entryTypeEOD {
			return nil
		}
		if record[0] == entryTypeFile {
			info, err := it.parseEntrySet()
			if err == nil && !fn(info) {
				return nil
			}
		}
		if it.next() != nil {
			return nil
		}
	}
}

// resolve walks path components from the root, matching names
// case-insensitively.
func (v *Volume) resolve(path string) (*entryInfo, error) {
	current := &entryInfo{
		name:         "/",
		attributes:   sdfs.AttrDirectory,
		firstCluster: v.rootCluster,
	}

	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		if !current.isDir() {
			return nil, Fatalf("not a directory: %s", current.name)
		}
		var found *entryInfo
		err := v.walkDir(current, func(info *entryInfo) bool {
			if strings.EqualFold(info.name, component) {
				found = info
				return false
			}
			return true
		})
		if err != nil {
			return nil, Fatal(err)
		}
		if found == nil {
			return nil, Fatalf("not found: %s", component)
		}
		current = found
	}

	return current, nil
}

// ReadDir enumerates the directory at path.
func (v *Volume) ReadDir(path string) ([]sdfs.DirInfo, error) {
	entry, err := v.resolve(path)
	if err != nil {
		return nil, Fatal(err)
	}
	if !entry.isDir() {
		return nil, Fatalf("not a directory: %s", path)
	}

	var result []sdfs.DirInfo
	err = v.walkDir(entry, func(info *entryInfo) bool {
		result = append(result, sdfs.DirInfo{
			Name:  info.name,
			Size:  info.dataLength,
			IsDir: info.isDir(),
		})
		return true
	})
	if err != nil {
		return nil, Fatal(err)
	}
	return result, nil
}
