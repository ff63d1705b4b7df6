package fat32

import (
	"strings"
	"unicode/utf16"

	"github.com/rstms/sdfs"
)

const (
	dirEntrySize = 32
	attrLongName = 0x0F

	lfnLastFlag     = 0x40
	lfnSeqMask      = 0x3F
	lfnMaxSeq       = 20
	lfnCharsPerSlot = 13
)

// rawEntry is one decoded directory record.
type rawEntry struct {
	name    string
	size    uint32
	cluster uint32
	attr    sdfs.DirectoryAttr
}

func (e *rawEntry) isDir() bool {
	return e.attr&sdfs.AttrDirectory != 0
}

// decodeShortName converts an 8.3 name field to a string, honoring the
// NT lowercase flags (0x08 base, 0x10 extension).
func decodeShortName(raw []byte, ntFlags byte) string {
	var sb strings.Builder
	for i := 0; i < 8 && raw[i] != ' '; i++ {
		c := raw[i]
		if ntFlags&0x08 != 0 && c >= 'A' && c <= 'Z' {
			c += 32
		}
		sb.WriteByte(c)
	}
	if raw[8] != ' ' {
		sb.WriteByte('.')
		for i := 8; i < 11 && raw[i] != ' '; i++ {
			c := raw[i]
			if ntFlags&0x10 != 0 && c >= 'A' && c <= 'Z' {
				c += 32
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// lfnAccum collects UCS-2 characters from VFAT long-name entries,
// which appear on disk in reverse sequence order before the 8.3 entry
// they describe.
type lfnAccum struct {
	chars  [lfnMaxSeq * lfnCharsPerSlot]uint16
	active bool
}

func (a *lfnAccum) reset() {
	a.active = false
}

func (a *lfnAccum) add(entry []byte) {
	seq := int(entry[0] & lfnSeqMask)
	if entry[0]&lfnLastFlag != 0 {
		a.chars = [lfnMaxSeq * lfnCharsPerSlot]uint16{}
		a.active = true
	}
	if !a.active || seq < 1 || seq > lfnMaxSeq {
		return
	}
	base := (seq - 1) * lfnCharsPerSlot
	for j := 0; j < 5; j++ {
		a.chars[base+j] = uint16(entry[1+j*2]) | uint16(entry[2+j*2])<<8
	}
	for j := 0; j < 6; j++ {
		a.chars[base+5+j] = uint16(entry[14+j*2]) | uint16(entry[15+j*2])<<8
	}
	for j := 0; j < 2; j++ {
		a.chars[base+11+j] = uint16(entry[28+j*2]) | uint16(entry[29+j*2])<<8
	}
}

func (a *lfnAccum) name() string {
	end := 0
	for end < len(a.chars) && a.chars[end] != 0 && a.chars[end] != 0xFFFF {
		end++
	}
	return string(utf16.Decode(a.chars[:end]))
}

// readDirectory decodes all records of the directory chain starting at
// cluster. Deleted entries, the volume label, and the dot entries are
// skipped.
func (v *Volume) readDirectory(cluster uint32) ([]rawEntry, error) {
	var result []rawEntry
	var lfn lfnAccum
	var sector [sdfs.SectorSize]byte

	// walked guards against cyclic FAT chains on corrupt media
	walked := uint32(0)

	for cluster >= 2 && cluster < fatEOC {
		if walked > v.totalClusters {
			return result, nil
		}
		walked++

		base := v.clusterToLBA(cluster)
		for sec := uint32(0); sec < v.spc; sec++ {
			if err := v.device.ReadSectors(base+sec, 1, sector[:]); err != nil {
				return nil, Fatal(err)
			}
			for off := 0; off < sdfs.SectorSize; off += dirEntrySize {
				entry := sector[off : off+dirEntrySize]

				if entry[0] == 0x00 {
					return result, nil
				}
				if entry[0] == 0xE5 {
					lfn.reset()
					continue
				}
				attr := sdfs.DirectoryAttr(entry[11])
				if attr == attrLongName {
					lfn.add(entry)
					continue
				}
				if attr&sdfs.AttrVolumeId != 0 {
					lfn.reset()
					continue
				}
				if entry[0] == '.' && (entry[1] == ' ' || entry[1] == '.') {
					lfn.reset()
					continue
				}

				name := lfn.name()
				if !lfn.active || name == "" {
					name = decodeShortName(entry[:11], entry[12])
				}
				lfn.reset()

				result = append(result, rawEntry{
					name: name,
					size: uint32(entry[28]) | uint32(entry[29])<<8 |
						uint32(entry[30])<<16 | uint32(entry[31])<<24,
					cluster: uint32(entry[26]) | uint32(entry[27])<<8 |
						uint32(entry[20])<<16 | uint32(entry[21])<<24,
					attr: attr,
				})
			}
		}

		next, err := v.fatEntry(cluster)
		if err != nil {
			return nil, Fatal(err)
		}
		cluster = next
	}

	return result, nil
}

// resolve walks path from the root, matching each component
// case-insensitively against the decoded entry names.
func (v *Volume) resolve(path string) (*rawEntry, error) {
	current := rawEntry{
		name:    "/",
		cluster: v.rootCluster,
		attr:    sdfs.AttrDirectory,
	}

	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		if !current.isDir() {
			return nil, Fatalf("not a directory: %s", current.name)
		}
		entries, err := v.readDirectory(current.cluster)
		if err != nil {
			return nil, Fatal(err)
		}
		found := false
		for i := range entries {
			if strings.EqualFold(entries[i].name, component) {
				current = entries[i]
				found = true
				break
			}
		}
		if !found {
			return nil, Fatalf("not found: %s", component)
		}
	}

	return &current, nil
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

	cluster := entry.cluster
	if cluster < 2 {
		cluster = v.rootCluster
	}
	entries, err := v.readDirectory(cluster)
	if err != nil {
		return nil, Fatal(err)
	}

	result := make([]sdfs.DirInfo, 0, len(entries))
	for i := range entries {
		result = append(result, sdfs.DirInfo{
			Name:  entries[i].name,
			Size:  uint64(entries[i].size),
			IsDir: entries[i].isDir(),
		})
	}
	return result, nil
}
