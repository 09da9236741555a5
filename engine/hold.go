package engine

import (
	"fmt"
	"sort"

	"github.com/dendrascience/mockzfs/util"
)

// HoldOpts controls Hold and Release. With Recursive, the operation
// applies to every same-named snapshot under the snapshot's parent
// filesystem or volume.
type HoldOpts struct {
	Recursive bool
}

// Hold tags the snapshot so it cannot be destroyed. A tag already
// present on any target is a collision and nothing is changed.
func (d *Dataset) Hold(reason string, opts HoldOpts) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if d.kind != KindSnapshot {
		return util.Errorf(util.ErrDatasetType, "%q is not a snapshot", d.Name())
	}
	targets, err := d.holdTargets(opts)
	if err != nil {
		return err
	}
	return walk(targets, nil,
		func(t *Dataset) error {
			if _, ok := t.holds[reason]; ok {
				return util.Errorf(util.ErrInvalidArgument, "hold %q already exists on %q", reason, t.Name())
			}
			return nil
		},
		func(t *Dataset) error {
			t.holds[reason] = struct{}{}
			t.eng.log.Debug().Str("snapshot", t.Name()).Str("tag", reason).Msg("held")
			return nil
		})
}

// Release removes a hold tag. Direct release of an absent tag is an
// error; in the recursive form the filter keeps only snapshots that
// carry the tag, and the do pass treats a vanished tag as fatal.
func (d *Dataset) Release(reason string, opts HoldOpts) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if d.kind != KindSnapshot {
		return util.Errorf(util.ErrDatasetType, "%q is not a snapshot", d.Name())
	}
	if !opts.Recursive {
		if _, ok := d.holds[reason]; !ok {
			return util.Errorf(util.ErrInvalidArgument, "no hold %q on %q", reason, d.Name())
		}
		delete(d.holds, reason)
		return nil
	}
	targets, err := d.holdTargets(opts)
	if err != nil {
		return err
	}
	return walk(targets,
		func(t *Dataset) bool {
			_, ok := t.holds[reason]
			return ok
		},
		nil,
		func(t *Dataset) error {
			if _, ok := t.holds[reason]; !ok {
				panic(fmt.Sprintf("hold %q vanished from %q mid-release", reason, t.Name()))
			}
			delete(t.holds, reason)
			return nil
		})
}

// holdTargets resolves which snapshots an operation applies to: the
// receiver alone, or every same-named snapshot under the receiver's
// parent subtree when recursive.
func (d *Dataset) holdTargets(opts HoldOpts) ([]*Dataset, error) {
	if !opts.Recursive {
		return []*Dataset{d}, nil
	}
	parents, err := d.parent.IterDescendants([]string{TypeFilesystem, TypeVolume}, nil)
	if err != nil {
		return nil, err
	}
	var targets []*Dataset
	for _, p := range parents {
		if snap := p.snapshot(d.name); snap != nil {
			targets = append(targets, snap)
		}
	}
	return targets, nil
}

// Holds returns a sorted copy of the snapshot's hold tags.
func (d *Dataset) Holds() ([]string, error) {
	if d.kind != KindSnapshot {
		return nil, util.Errorf(util.ErrDatasetType, "%q is not a snapshot", d.Name())
	}
	tags := make([]string, 0, len(d.holds))
	for tag := range d.holds {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}
