package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dendrascience/mockzfs/layout"
)

// NewLayoutCmd creates and returns the layout subcommand for the
// mockzfs CLI. It runs the disk-layout planner over a JSON inventory.
func NewLayoutCmd() *cobra.Command {
	var layoutName string

	cmd := &cobra.Command{
		Use:   "layout INVENTORY",
		Short: "Plan a zpool vdev layout from a JSON disk inventory",
		Long: `Plan a zpool vdev layout from a JSON disk inventory.

INVENTORY is a JSON file holding an array of disks:

  [{"name": "c0d0", "vid": "ACME", "pid": "HD", "size": 150000,
    "type": "scsi", "removable": false, "solid_state": false}, ...]

Sizes are in megabytes. Without --layout the planner picks single,
mirror, or raidz2 from the storage disk count. The resulting plan is
printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var disks []layout.Disk
			if err := json.Unmarshal(data, &disks); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			plan, err := layout.PlanLayout(disks, layoutName)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	cmd.Flags().StringVarP(&layoutName, "layout", "l", "", "Layout to apply: single, mirror, or raidz2 (default: auto)")
	return cmd
}
