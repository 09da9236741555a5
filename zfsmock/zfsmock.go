// Package zfsmock is the callback façade over the mock dataset
// engine. It mirrors the surface of a zfs/zpool command wrapper:
// every command validates its arguments, runs one engine operation,
// and continues the caller with (err, results...) where err carries
// the user-visible message a real command would print. Structured
// engine errors never cross this boundary.
package zfsmock

import (
	"errors"
	"fmt"

	"github.com/dendrascience/mockzfs/engine"
	"github.com/dendrascience/mockzfs/util"
)

// DoneCallback continues a command that yields no result.
type DoneCallback func(err error)

// ListCallback continues a listing command with the field names and
// one row of formatted values per dataset.
type ListCallback func(err error, fields []string, rows [][]string)

// New binds a ZFS and Zpool command surface to an engine.
func New(e *engine.Engine) (*ZFS, *Zpool) {
	return &ZFS{eng: e}, &Zpool{eng: e}
}

var errNotImplemented = errors.New("not implemented")

// translate strips the engine's structured error down to its message,
// so callers see plain command-style errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var e *util.Error
	if errors.As(err, &e) {
		return errors.New(e.Message)
	}
	return err
}

func cannot(verb, name, reason string) error {
	return fmt.Errorf("cannot %s '%s': %s", verb, name, reason)
}
