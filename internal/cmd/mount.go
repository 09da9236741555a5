package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	_ "bazil.org/fuse/fs/fstestutil"
	"github.com/spf13/cobra"

	"github.com/dendrascience/mockzfs/version"
	"github.com/dendrascience/mockzfs/zfuse"
)

// NewMountCmd creates and returns the mount subcommand for the
// mockzfs CLI. It FUSE-mounts the mock host filesystem, optionally
// after running a simulate script to populate it.
func NewMountCmd() *cobra.Command {
	var script string

	cmd := &cobra.Command{
		Use:   "mount MOUNTPOINT",
		Short: "FUSE-mount the mock host filesystem",
		Long: `FUSE-mount the mock host filesystem for read-only inspection.

MOUNTPOINT is the directory where the filesystem will be mounted.
With --script, the named simulate script is run first so the mounted
tree shows what the scenario produced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMount(args[0], script)
		},
	}
	cmd.Flags().StringVarP(&script, "script", "s", "", "Simulate script to run before mounting")
	return cmd
}

func runMount(mountpoint, script string) error {
	fmt.Printf("mockzfs %s starting...\n", version.GetFullVersion())

	sim := newSimulator(os.Stdout, false)
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return err
		}
		err = sim.run(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("mockzfs"),
		fuse.Subtype("mockzfs"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		fuse.Unmount(mountpoint)
		c.Close()
		log.Println("Shutdown complete")
		os.Exit(0)
	}()

	log.Printf("mockzfs %s mounted at %s", version.GetVersion(), mountpoint)
	return fs.Serve(c, zfuse.NewFS(sim.host()))
}
