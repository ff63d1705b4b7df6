package sdfs

// SectorSize is the fixed sector size of all supported media.
const SectorSize = 512

// BlockDevice is a synchronous, sector-addressed read capability.
// Implementations either fully populate the destination buffer or
// return an error; a failed read never leaves partial data visible.
type BlockDevice interface {
	// ReadSectors reads count sectors starting at lba into buf.
	// buf must be at least count*SectorSize bytes.
	ReadSectors(lba uint32, count uint32, buf []byte) error
	// SectorCount returns the total number of sectors on the device.
	SectorCount() uint32
	// Close releases the device.
	Close() error
}
