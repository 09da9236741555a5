// Package cmd implements the mockzfs command-line interface.
//
// The CLI drives a process-local mock dataset engine: simulate runs a
// script of zfs/zpool commands against a fresh engine, layout plans a
// zpool vdev layout from a disk inventory, and mount exposes the mock
// host filesystem over FUSE for inspection.
package cmd
