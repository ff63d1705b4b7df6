package exfat

import (
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/rstms/sdfs"
	"github.com/stretchr/testify/require"
)

// testMedia builds a minimal exFAT volume on a MemDevice: 512-byte
// volume sectors, one sector per cluster, FAT at sector 24, cluster
// heap at sector 48, bitmap in cluster 2, root directory in cluster 4.
type testMedia struct {
	t      *testing.T
	device *sdfs.MemDevice
	start  uint32
	used   map[uint32]int // records written per directory cluster
}

const (
	testFATOffset    = 24
	testHeapOffset   = 48
	testClusterCount = 256
	testRootCluster  = 4
)

func newTestMedia(t *testing.T, startLBA uint32) *testMedia {
	m := &testMedia{
		t:      t,
		device: sdfs.NewMemDevice(startLBA + 1024),
		start:  startLBA,
		used:   make(map[uint32]int),
	}

	boot := make([]byte, sdfs.SectorSize)
	copy(boot[3:], "EXFAT   ")
	binary.LittleEndian.PutUint64(boot[72:], 1024) // volume length
	binary.LittleEndian.PutUint32(boot[80:], testFATOffset)
	binary.LittleEndian.PutUint32(boot[84:], 8) // FAT length
	binary.LittleEndian.PutUint32(boot[88:], testHeapOffset)
	binary.LittleEndian.PutUint32(boot[92:], testClusterCount)
	binary.LittleEndian.PutUint32(boot[96:], testRootCluster)
	boot[108] = 9 // 512-byte sectors
	boot[109] = 0 // one sector per cluster
	binary.LittleEndian.PutUint16(boot[510:], 0xAA55)
	m.device.SetSector(startLBA, boot)

	m.setFAT(2, fatEOC)               // bitmap
	m.setFAT(testRootCluster, fatEOC) // root directory

	// allocation bitmap: clusters 2 and 4 in use
	bitmap := []byte{0x05}
	copy(m.clusterSector(2), bitmap)
	m.addRecord(testRootCluster, labelRecord("STICK"))
	m.addRecord(testRootCluster, bitmapRecord(2, (testClusterCount+7)/8))
	return m
}

func (m *testMedia) setFAT(cluster, value uint32) {
	sector := m.device.Sector(m.start + testFATOffset + cluster*4/sdfs.SectorSize)
	binary.LittleEndian.PutUint32(sector[cluster*4%sdfs.SectorSize:], value)
}

func (m *testMedia) clusterSector(cluster uint32) []byte {
	return m.device.Sector(m.start + testHeapOffset + cluster - 2)
}

func (m *testMedia) addRecord(dirCluster uint32, record []byte) {
	idx := m.used[dirCluster]
	perCluster := sdfs.SectorSize / dirEntrySize
	// directories larger than one cluster continue in the next
	// contiguous cluster
	cluster := dirCluster + uint32(idx/perCluster)
	copy(m.clusterSector(cluster)[(idx%perCluster)*dirEntrySize:], record)
	m.used[dirCluster]++
}

func labelRecord(label string) []byte {
	record := make([]byte, dirEntrySize)
	record[0] = entryTypeLabel
	chars := utf16.Encode([]rune(label))
	record[1] = byte(len(chars))
	for i, ch := range chars {
		binary.LittleEndian.PutUint16(record[2+i*2:], ch)
	}
	return record
}

func bitmapRecord(firstCluster uint32, length uint64) []byte {
	record := make([]byte, dirEntrySize)
	record[0] = entryTypeBitmap
	binary.LittleEndian.PutUint32(record[20:], firstCluster)
	binary.LittleEndian.PutUint64(record[24:], length)
	return record
}

// addFileSet writes a 0x85 + 0xC0 + 0xC1... entry set.
func (m *testMedia) addFileSet(dirCluster uint32, name string, firstCluster uint32,
	dataLength uint64, attr uint16, noFatChain bool) {

	chars := utf16.Encode([]rune(name))
	nameRecords := (len(chars) + 14) / 15

	file := make([]byte, dirEntrySize)
	file[0] = entryTypeFile
	file[1] = byte(1 + nameRecords)
	binary.LittleEndian.PutUint16(file[4:], attr)
	m.addRecord(dirCluster, file)

	stream := make([]byte, dirEntrySize)
	stream[0] = entryTypeStream
	stream[1] = 0x01
	if noFatChain {
		stream[1] |= streamNoFatChain
	}
	stream[3] = byte(len(chars))
	binary.LittleEndian.PutUint64(stream[8:], dataLength) // valid data length
	binary.LittleEndian.PutUint32(stream[20:], firstCluster)
	binary.LittleEndian.PutUint64(stream[24:], dataLength)
	m.addRecord(dirCluster, stream)

	for i := 0; i < nameRecords; i++ {
		rec := make([]byte, dirEntrySize)
		rec[0] = entryTypeName
		for j := 0; j < 15 && i*15+j < len(chars); j++ {
			binary.LittleEndian.PutUint16(rec[2+j*2:], chars[i*15+j])
		}
		m.addRecord(dirCluster, rec)
	}
}

func TestDecodeBootSectorRejectsNonExFAT(t *testing.T) {
	device := sdfs.NewMemDevice(64)
	_, err := DecodeBootSector(device, 0)
	require.NotNil(t, err)
}

func TestVolumeImplementsVolume(t *testing.T) {
	var raw interface{}
	raw = new(Volume)
	if _, ok := raw.(sdfs.Volume); !ok {
		t.Fatal("Volume should be a sdfs.Volume")
	}
}

func TestMountAndLabel(t *testing.T) {
	m := newTestMedia(t, 2048)
	v, err := New(m.device, 2048)
	require.Nil(t, err)
	require.Equal(t, "STICK", v.Label())
}

func TestReadDirRoot(t *testing.T) {
	m := newTestMedia(t, 0)
	m.setFAT(5, fatEOC)
	m.addFileSet(testRootCluster, "notes.txt", 5, 10, uint16(sdfs.AttrArchive), false)
	m.setFAT(6, fatEOC)
	m.addFileSet(testRootCluster, "photos", 6, 0, uint16(sdfs.AttrDirectory), false)

	v, err := New(m.device, 0)
	require.Nil(t, err)
	entries, err := v.ReadDir("/")
	require.Nil(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "notes.txt", entries[0].Name)
	require.Equal(t, uint64(10), entries[0].Size)
	require.False(t, entries[0].IsDir)
	require.Equal(t, "photos", entries[1].Name)
	require.True(t, entries[1].IsDir)
}

func TestReadDirLongName(t *testing.T) {
	longName := strings.Repeat("x", 40) // three 0xC1 records
	m := newTestMedia(t, 0)
	m.setFAT(5, fatEOC)
	m.addFileSet(testRootCluster, longName, 5, 1, 0, false)

	v, err := New(m.device, 0)
	require.Nil(t, err)
	entries, err := v.ReadDir("/")
	require.Nil(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, longName, entries[0].Name)
}

func TestReadDirSubdirectory(t *testing.T) {
	m := newTestMedia(t, 0)
	m.setFAT(5, fatEOC)
	m.addFileSet(testRootCluster, "Docs", 5, 0, uint16(sdfs.AttrDirectory), false)
	m.setFAT(6, fatEOC)
	m.addFileSet(5, "inner.dat", 6, 3, 0, false)

	v, err := New(m.device, 0)
	require.Nil(t, err)

	entries, err := v.ReadDir("/Docs")
	require.Nil(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "inner.dat", entries[0].Name)

	// case-insensitive lookup
	entries, err = v.ReadDir("/docs")
	require.Nil(t, err)
	require.Len(t, entries, 1)
}

func TestReadDirNoFatChainSpansClusters(t *testing.T) {
	m := newTestMedia(t, 0)
	// directory in contiguous clusters 6 and 7 with no FAT entries at
	// all: six entry sets of three records each overflow the first
	// cluster
	m.addFileSet(testRootCluster, "big", 6, uint64(2*sdfs.SectorSize),
		uint16(sdfs.AttrDirectory), true)
	names := []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"}
	for i, name := range names {
		m.addFileSet(6, name, uint32(10+i), 1, 0, true)
	}

	v, err := New(m.device, 0)
	require.Nil(t, err)
	entries, err := v.ReadDir("/big")
	require.Nil(t, err)
	require.Len(t, entries, len(names))
	for i, name := range names {
		require.Equal(t, name, entries[i].Name)
	}
}

func TestReadFileChain(t *testing.T) {
	m := newTestMedia(t, 0)
	content := make([]byte, sdfs.SectorSize+50)
	for i := range content {
		content[i] = byte(i * 3)
	}
	m.setFAT(5, 6)
	m.setFAT(6, fatEOC)
	copy(m.clusterSector(5), content[:sdfs.SectorSize])
	copy(m.clusterSector(6), content[sdfs.SectorSize:])
	m.addFileSet(testRootCluster, "data.bin", 5, uint64(len(content)), 0, false)

	v, err := New(m.device, 0)
	require.Nil(t, err)
	data, err := v.ReadFile("/data.bin")
	require.Nil(t, err)
	require.Equal(t, content, data)
}

func TestReadFileNoFatChain(t *testing.T) {
	m := newTestMedia(t, 0)
	content := make([]byte, sdfs.SectorSize*2)
	for i := range content {
		content[i] = byte(i * 7)
	}
	// contiguous clusters 8 and 9, no FAT entries at all
	copy(m.clusterSector(8), content[:sdfs.SectorSize])
	copy(m.clusterSector(9), content[sdfs.SectorSize:])
	m.addFileSet(testRootCluster, "contig.bin", 8, uint64(len(content)), 0, true)

	v, err := New(m.device, 0)
	require.Nil(t, err)
	data, err := v.ReadFile("/contig.bin")
	require.Nil(t, err)
	require.Equal(t, content, data)
}

func TestVolumeInfo(t *testing.T) {
	m := newTestMedia(t, 0)
	v, err := New(m.device, 0)
	require.Nil(t, err)

	total, free, err := v.VolumeInfo()
	require.Nil(t, err)
	clusterSize := uint64(sdfs.SectorSize)
	require.Equal(t, uint64(testClusterCount)*clusterSize, total)
	// bitmap marks clusters 2 and 4 used
	require.Equal(t, uint64(testClusterCount-2)*clusterSize, free)
}

func TestUnmountReleasesState(t *testing.T) {
	m := newTestMedia(t, 0)
	v, err := New(m.device, 0)
	require.Nil(t, err)
	require.NotNil(t, v.bitmap)
	v.Unmount()
	require.Nil(t, v.bitmap)
}
