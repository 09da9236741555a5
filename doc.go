// Package main provides the mockzfs command-line interface.
//
// mockzfs is an in-memory mock ZFS dataset engine: pools, datasets,
// snapshots, clones, holds, and properties behave the way the real
// commands behave, without a kernel or disks, so software driving
// zfs/zpool can be unit tested deterministically.
//
// The main binary supports multiple subcommands:
//   - simulate: run a script of zfs/zpool commands against a fresh engine
//   - layout: plan a zpool vdev layout from a JSON disk inventory
//   - mount: FUSE-mount the mock host filesystem a script produced
package main
