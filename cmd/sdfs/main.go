package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sdfs",
	Short: "Browse FAT32/exFAT removable media and disk images",
	Long: "sdfs locates the first usable partition on removable media or a\n" +
		"disk image (MBR, GPT, or superfloppy), mounts the FAT32 or exFAT\n" +
		"filesystem read-only, and navigates its directory tree.",
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(
		newBrowseCommand(),
		newLsCommand(),
		newInfoCommand(),
		newDevicesCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
