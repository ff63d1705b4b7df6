package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rstms/sdfs"
	"github.com/rstms/sdfs/browse"
)

func newLsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List a directory on the media",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 1 {
				path = args[1]
			}
			return runLs(args[0], path)
		},
	}
}

func openMedia(filename string) (sdfs.BlockDevice, sdfs.Volume, error) {
	if !IsFile(filename) {
		return nil, nil, Fatalf("not a file: %s", filename)
	}
	device, err := sdfs.NewFileDisk(filename)
	if err != nil {
		return nil, nil, Fatal(err)
	}
	startLBA := sdfs.LocatePartition(device)
	volume, err := browse.Mount(device, startLBA)
	if err != nil {
		device.Close()
		return nil, nil, Fatal(err)
	}
	return device, volume, nil
}

func runLs(filename, path string) error {
	device, volume, err := openMedia(filename)
	if err != nil {
		return Fatal(err)
	}
	defer device.Close()
	defer volume.Unmount()

	var table browse.Table
	table.Load(volume, path)

	for _, entry := range table.Entries() {
		size := browse.FormatSize(entry.Size)
		if entry.IsDir {
			size = " DIR"
		}
		fmt.Printf("%s  %s\n", size, entry.Name)
	}
	return nil
}
