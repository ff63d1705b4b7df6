package browse

import (
	"errors"

	"github.com/rstms/sdfs"
	"github.com/rstms/sdfs/exfat"
	"github.com/rstms/sdfs/fat32"
)

// ErrUnrecognized is the single fatal condition: the media holds
// neither a FAT32 nor an exFAT filesystem at the located offset.
var ErrUnrecognized = errors.New("no FAT32 or exFAT filesystem found")

// Mount interprets the filesystem at startLBA, trying FAT32 first,
// then exFAT. The ordering is a resource-cost policy, not a
// disambiguation need: FAT32 is the cheap, common case.
func Mount(device sdfs.BlockDevice, startLBA uint32) (sdfs.Volume, error) {
	if volume, err := fat32.New(device, startLBA); err == nil {
		return volume, nil
	}
	if volume, err := exfat.New(device, startLBA); err == nil {
		return volume, nil
	}
	return nil, ErrUnrecognized
}

// InputKind enumerates the closed set of navigation inputs.
type InputKind int

const (
	InputBack InputKind = iota
	InputPageUp
	InputPageDown
	InputSelect
)

// Input is one discrete user action.
type Input struct {
	Kind InputKind
	// Index is the absolute entry-table index for InputSelect.
	Index int
	// PageSize is the caller's page size for paging inputs.
	PageSize int
}

// Result reports the outcome of one applied input.
type Result struct {
	// Exit is set when Back was applied at the root.
	Exit bool
	// File is set when a non-directory entry was selected.
	File *FileInfo
}

// Session owns the device and the mounted volume for one navigation
// run: locate, mount, navigate, unmount, release.
type Session struct {
	device    sdfs.BlockDevice
	volume    sdfs.Volume
	navigator *Navigator
}

// NewSession locates the first usable partition, mounts it, and
// initializes navigation at the root. On mount failure the device is
// released and no navigation state is created.
func NewSession(device sdfs.BlockDevice) (*Session, error) {
	startLBA := sdfs.LocatePartition(device)

	volume, err := Mount(device, startLBA)
	if err != nil {
		device.Close()
		return nil, err
	}

	return &Session{
		device:    device,
		volume:    volume,
		navigator: NewNavigator(volume),
	}, nil
}

func (s *Session) Navigator() *Navigator {
	return s.navigator
}

func (s *Session) Volume() sdfs.Volume {
	return s.volume
}

// Apply runs one transition. Inputs outside the current table are
// ignored.
func (s *Session) Apply(input Input) Result {
	switch input.Kind {
	case InputBack:
		if !s.navigator.Up() {
			return Result{Exit: true}
		}
	case InputPageUp:
		s.navigator.PageUp(input.PageSize)
	case InputPageDown:
		s.navigator.PageDown(input.PageSize)
	case InputSelect:
		entries := s.navigator.Table().Entries()
		if input.Index < 0 || input.Index >= len(entries) {
			break
		}
		entry := entries[input.Index]
		if entry.IsDir {
			// a refused descent (path too long) leaves the
			// navigator in place
			_ = s.navigator.Enter(entry.Name)
		} else {
			info, err := s.navigator.SelectFile(entry.Name)
			if err == nil {
				return Result{File: &info}
			}
		}
	}
	return Result{}
}

// Close unmounts the volume and releases the device.
func (s *Session) Close() error {
	if s.volume != nil {
		s.volume.Unmount()
		s.volume = nil
	}
	if s.device != nil {
		err := s.device.Close()
		s.device = nil
		if err != nil {
			return Fatal(err)
		}
	}
	return nil
}
