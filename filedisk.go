package sdfs

import (
	"os"
)

// FileDisk wraps a disk image file as a BlockDevice.
type FileDisk struct {
	file    *os.File
	sectors uint32
}

// ensure FileDisk implements BlockDevice
var _ BlockDevice = (*FileDisk)(nil)

// NewFileDisk opens the image at path read-only.
func NewFileDisk(path string) (*FileDisk, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Fatal(err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, Fatal(err)
	}
	return &FileDisk{
		file:    file,
		sectors: uint32(info.Size() / SectorSize),
	}, nil
}

func (d *FileDisk) ReadSectors(lba uint32, count uint32, buf []byte) error {
	if count == 0 {
		return nil
	}
	length := int(count) * SectorSize
	if len(buf) < length {
		return Fatalf("buffer too small: %d < %d", len(buf), length)
	}
	if lba+count > d.sectors {
		return Fatalf("read beyond device: lba=%d count=%d sectors=%d", lba, count, d.sectors)
	}
	_, err := d.file.ReadAt(buf[:length], int64(lba)*SectorSize)
	if err != nil {
		return Fatal(err)
	}
	return nil
}

func (d *FileDisk) SectorCount() uint32 {
	return d.sectors
}

func (d *FileDisk) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	if err != nil {
		return Fatal(err)
	}
	return nil
}
