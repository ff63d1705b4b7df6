package sdfs

// MemDevice is an in-memory BlockDevice backed by a sparse sector map.
// Unwritten sectors read as zeros. Used to build synthetic media in
// tests without image files.
type MemDevice struct {
	sectors map[uint32][]byte
	count   uint32
	// FailLBA makes reads touching the given sector fail, for
	// exercising read-error paths. Nil-safe: zero value never fails.
	FailLBA map[uint32]bool
	closed  bool
}

// ensure MemDevice implements BlockDevice
var _ BlockDevice = (*MemDevice)(nil)

// NewMemDevice creates a device with the given sector count.
func NewMemDevice(sectorCount uint32) *MemDevice {
	return &MemDevice{
		sectors: make(map[uint32][]byte),
		count:   sectorCount,
	}
}

// SetSector stores up to one sector of data at lba, zero-padded.
func (d *MemDevice) SetSector(lba uint32, data []byte) {
	sector := make([]byte, SectorSize)
	copy(sector, data)
	d.sectors[lba] = sector
}

// Sector returns a writable reference to the sector at lba,
// creating it if absent.
func (d *MemDevice) Sector(lba uint32) []byte {
	sector, ok := d.sectors[lba]
	if !ok {
		sector = make([]byte, SectorSize)
		d.sectors[lba] = sector
	}
	return sector
}

func (d *MemDevice) ReadSectors(lba uint32, count uint32, buf []byte) error {
	if d.closed {
		return Fatalf("device closed")
	}
	length := int(count) * SectorSize
	if len(buf) < length {
		return Fatalf("buffer too small: %d < %d", len(buf), length)
	}
	if lba+count > d.count {
		return Fatalf("read beyond device: lba=%d count=%d sectors=%d", lba, count, d.count)
	}
	for i := uint32(0); i < count; i++ {
		if d.FailLBA[lba+i] {
			return Fatalf("read error at lba %d", lba+i)
		}
		dst := buf[int(i)*SectorSize : int(i+1)*SectorSize]
		if sector, ok := d.sectors[lba+i]; ok {
			copy(dst, sector)
		} else {
			for j := range dst {
				dst[j] = 0
			}
		}
	}
	return nil
}

func (d *MemDevice) SectorCount() uint32 {
	return d.count
}

func (d *MemDevice) Close() error {
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *MemDevice) Closed() bool {
	return d.closed
}
