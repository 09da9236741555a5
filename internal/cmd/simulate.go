package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/taigrr/colorhash"

	"github.com/dendrascience/mockzfs/engine"
	"github.com/dendrascience/mockzfs/mockfs"
	"github.com/dendrascience/mockzfs/zfsmock"
)

// NewSimulateCmd creates and returns the simulate subcommand for the
// mockzfs CLI. It runs newline-separated zfs/zpool commands from a
// script file against a fresh engine and prints each outcome.
func NewSimulateCmd() *cobra.Command {
	var (
		noColor bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "simulate SCRIPT",
		Short: "Run a script of zfs/zpool commands against a fresh engine",
		Long: `Run a script of zfs/zpool commands against a fresh engine.

SCRIPT is a text file with one command per line. Supported commands:

  zpool create|destroy|list|status ...
  zfs create|snapshot|clone|destroy|rename|set|get|list|hold|release|holds ...
  write PATH DATA    write a file into the mock host filesystem
  cat PATH           print a mock host file

Lines starting with '#' are comments. The engine starts empty and is
discarded when the script ends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			sim := newSimulator(cmd.OutOrStdout(), !noColor)
			if verbose {
				log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
					Level(zerolog.DebugLevel).With().Timestamp().Logger()
				sim.eng.SetLogger(log)
			}
			return sim.run(f)
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colorized dataset names")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Trace engine operations to stderr")
	return cmd
}

type simulator struct {
	eng   *engine.Engine
	mock  *mockfs.FS
	zfs   *zfsmock.ZFS
	zpool *zfsmock.Zpool
	out   io.Writer
	color bool
}

func newSimulator(out io.Writer, color bool) *simulator {
	mock := mockfs.New()
	eng := engine.New(mock)
	zfs, zpool := zfsmock.New(eng)
	return &simulator{eng: eng, mock: mock, zfs: zfs, zpool: zpool, out: out, color: color}
}

// host exposes the mock filesystem backing the simulation.
func (s *simulator) host() *mockfs.FS { return s.mock }

// paint colors a dataset name deterministically by its hash, so the
// same dataset is recognizable across script output.
func (s *simulator) paint(name string) string {
	if !s.color {
		return name
	}
	c := 31 + colorhash.HashString(name)%6
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", c, name)
}

func (s *simulator) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.exec(line); err != nil {
			return fmt.Errorf("line %d: %q: %w", lineno, line, err)
		}
	}
	return scanner.Err()
}

func (s *simulator) exec(line string) error {
	args := strings.Fields(line)
	var err error
	switch args[0] {
	case "zpool":
		err = s.execZpool(args[1:])
	case "zfs":
		err = s.execZfs(args[1:])
	case "write":
		if len(args) < 3 {
			return fmt.Errorf("usage: write PATH DATA")
		}
		err = s.eng.Host().WriteFile(args[1], []byte(strings.Join(args[2:], " ")), 0o644)
		if err == nil {
			fmt.Fprintf(s.out, "wrote %s\n", args[1])
		}
	case "cat":
		if len(args) != 2 {
			return fmt.Errorf("usage: cat PATH")
		}
		var data []byte
		data, err = s.eng.Host().ReadFile(args[1])
		if err == nil {
			fmt.Fprintf(s.out, "%s\n", data)
		}
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return err
}

func (s *simulator) execZpool(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("zpool: missing subcommand")
	}
	var out error
	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("zpool create: missing pool name")
		}
		s.zpool.Create(args[1], nil, func(err error) {
			out = err
			if err == nil {
				fmt.Fprintf(s.out, "created pool %s\n", s.paint(args[1]))
			}
		})
	case "destroy":
		if len(args) < 2 {
			return fmt.Errorf("zpool destroy: missing pool name")
		}
		s.zpool.Destroy(args[1], func(err error) {
			out = err
			if err == nil {
				fmt.Fprintf(s.out, "destroyed pool %s\n", s.paint(args[1]))
			}
		})
	case "list":
		s.zpool.List("", nil, func(err error, _ []string, rows [][]string) {
			out = err
			for _, row := range rows {
				fmt.Fprintln(s.out, s.paint(row[0]))
			}
		})
	case "status":
		if len(args) < 2 {
			return fmt.Errorf("zpool status: missing pool name")
		}
		s.zpool.Status(args[1], func(err error, status string) {
			out = err
			if err == nil {
				fmt.Fprintf(s.out, "%s: %s\n", s.paint(args[1]), status)
			}
		})
	default:
		return fmt.Errorf("zpool: unknown subcommand %q", args[0])
	}
	return out
}

func (s *simulator) execZfs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("zfs: missing subcommand")
	}
	done := func(verb, name string) func(error) {
		return func(err error) {
			if err == nil {
				fmt.Fprintf(s.out, "%s %s\n", verb, s.paint(name))
			}
		}
	}
	var out error
	wrap := func(cb func(error)) zfsmock.DoneCallback {
		return func(err error) {
			out = err
			if err == nil {
				cb(nil)
			}
		}
	}
	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("zfs create: missing name")
		}
		s.zfs.Create(args[1], wrap(done("created", args[1])))
	case "snapshot":
		if len(args) < 2 {
			return fmt.Errorf("zfs snapshot: missing name")
		}
		s.zfs.Snapshot(args[1], wrap(done("snapshotted", args[1])))
	case "clone":
		if len(args) < 3 {
			return fmt.Errorf("zfs clone: missing names")
		}
		s.zfs.Clone(args[1], args[2], nil, wrap(done("cloned to", args[2])))
	case "destroy":
		rest := args[1:]
		recursive := false
		if len(rest) > 0 && rest[0] == "-r" {
			recursive = true
			rest = rest[1:]
		}
		if len(rest) < 1 {
			return fmt.Errorf("zfs destroy: missing name")
		}
		cb := wrap(done("destroyed", rest[0]))
		if recursive {
			s.zfs.DestroyAll(rest[0], cb)
		} else {
			s.zfs.Destroy(rest[0], cb)
		}
	case "rename":
		if len(args) < 3 {
			return fmt.Errorf("zfs rename: missing names")
		}
		ds := s.eng.Get(args[1])
		if ds == nil {
			return fmt.Errorf("cannot open '%s': dataset does not exist", args[1])
		}
		out = ds.Rename(args[2])
		if out == nil {
			fmt.Fprintf(s.out, "renamed %s to %s\n", s.paint(args[1]), s.paint(args[2]))
		}
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("zfs set: usage: zfs set prop=value name")
		}
		prop, value, ok := strings.Cut(args[1], "=")
		if !ok {
			return fmt.Errorf("zfs set: bad property %q", args[1])
		}
		s.zfs.Set(args[2], map[string]any{prop: value}, wrap(done("set on", args[2])))
	case "get":
		if len(args) < 3 {
			return fmt.Errorf("zfs get: usage: zfs get prop name")
		}
		s.zfs.Get(args[2], strings.Split(args[1], ","), true, func(err error, rows [][]string) {
			out = err
			for _, row := range rows {
				fmt.Fprintf(s.out, "%s\t%s\t%s\n", s.paint(row[0]), row[1], row[2])
			}
		})
	case "list":
		rest := args[1:]
		opts := &zfsmock.ListOptions{Fields: []string{"name", "type", "mountpoint"}}
		for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
			switch rest[0] {
			case "-r":
				opts.Recursive = true
				rest = rest[1:]
			case "-t":
				if len(rest) < 2 {
					return fmt.Errorf("zfs list: -t needs a type list")
				}
				opts.Type = rest[1]
				rest = rest[2:]
			default:
				return fmt.Errorf("zfs list: unknown flag %q", rest[0])
			}
		}
		name := ""
		if len(rest) > 0 {
			name = rest[0]
		}
		s.zfs.List(name, opts, func(err error, _ []string, rows [][]string) {
			out = err
			for _, row := range rows {
				fmt.Fprintf(s.out, "%s\t%s\t%s\n", s.paint(row[0]), row[1], row[2])
			}
		})
	case "hold":
		if len(args) < 3 {
			return fmt.Errorf("zfs hold: usage: zfs hold snapshot tag")
		}
		s.zfs.Hold(args[1], args[2], wrap(done("held", args[1])))
	case "release":
		if len(args) < 3 {
			return fmt.Errorf("zfs release: usage: zfs release snapshot tag")
		}
		s.zfs.ReleaseHold(args[1], args[2], wrap(done("released", args[1])))
	case "holds":
		if len(args) < 2 {
			return fmt.Errorf("zfs holds: missing snapshot")
		}
		s.zfs.Holds(args[1], func(err error, tags []string) {
			out = err
			for _, tag := range tags {
				fmt.Fprintf(s.out, "%s\t%s\n", s.paint(args[1]), tag)
			}
		})
	default:
		return fmt.Errorf("zfs: unknown subcommand %q", args[0])
	}
	return out
}
