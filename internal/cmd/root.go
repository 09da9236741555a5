package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dendrascience/mockzfs/version"
)

// NewRootCmd creates and returns the root cobra command for the
// mockzfs CLI. It sets up all subcommands, command groups, and basic
// configuration.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mockzfs",
		Short: "mockzfs - an in-memory mock ZFS dataset engine",
		Long: `mockzfs emulates the externally observable behavior of ZFS pools,
datasets, snapshots, clones, holds, and properties entirely in memory.

It exists so software that issues zfs/zpool commands can be unit tested
deterministically, without a kernel or disks.

Use subcommands to poke at the engine:
  - simulate: run a script of zfs/zpool commands against a fresh engine
  - layout: plan a zpool vdev layout from a JSON disk inventory
  - mount: FUSE-mount the mock host filesystem a script produced`,
		Version: version.GetFullVersion(),
	}

	groupEngine := "engine"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupEngine,
		Title: "Engine Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	simulateCmd := NewSimulateCmd()
	mountCmd := NewMountCmd()
	layoutCmd := NewLayoutCmd()

	simulateCmd.GroupID = groupEngine
	mountCmd.GroupID = groupEngine
	layoutCmd.GroupID = groupUtilities

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(layoutCmd)

	return rootCmd
}
