package main

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"
)

func newDevicesCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List candidate removable block devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include non-removable devices")
	return cmd
}

func removable(device string) bool {
	return strings.HasPrefix(device, "/dev/sd") ||
		strings.HasPrefix(device, "/dev/mmcblk") ||
		strings.HasPrefix(device, "/dev/disk")
}

func runDevices(all bool) error {
	partitions, err := disk.Partitions(all)
	if err != nil {
		return Fatal(err)
	}

	for _, partition := range partitions {
		if !all && !removable(partition.Device) {
			continue
		}
		mount := partition.Mountpoint
		if mount == "" {
			mount = "(not mounted)"
		}
		fmt.Printf("%-20s %-8s %s\n", partition.Device, partition.Fstype, mount)
	}
	return nil
}
