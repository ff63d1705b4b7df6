package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rstms/sdfs"
	"github.com/rstms/sdfs/browse"
	"github.com/rstms/sdfs/exfat"
	"github.com/rstms/sdfs/fat32"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Show partition and volume information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

func runInfo(filename string) error {
	if !IsFile(filename) {
		return Fatalf("not a file: %s", filename)
	}
	device, err := sdfs.NewFileDisk(filename)
	if err != nil {
		return Fatal(err)
	}
	defer device.Close()

	startLBA := sdfs.LocatePartition(device)
	fmt.Printf("partition start: LBA %d\n", startLBA)

	volume, err := browse.Mount(device, startLBA)
	if err != nil {
		return Fatal(err)
	}
	defer volume.Unmount()

	switch volume.(type) {
	case *fat32.Volume:
		fmt.Println("filesystem: FAT32")
	case *exfat.Volume:
		fmt.Println("filesystem: exFAT")
	}
	if label := volume.Label(); label != "" {
		fmt.Printf("label: %s\n", label)
	}

	total, free, err := volume.VolumeInfo()
	if err != nil {
		return Fatal(err)
	}
	fmt.Printf("size: %d bytes, free: %d bytes\n", total, free)
	return nil
}
