package engine

import "github.com/dendrascience/mockzfs/util"

// DestroyOpts controls Destroy. With Recursive, the whole subtree
// (children and snapshots) goes; without it any descendant is an
// error.
type DestroyOpts struct {
	Recursive bool
}

// Destroy removes the dataset (and, when recursive, its descendants)
// from the graph. The check pass rejects held snapshots, descendants
// without Recursive, and snapshots whose clones would be left with a
// dangling origin; only then does the do pass tear anything down, in
// reverse traversal order. Destroyed datasets end in state destroyed
// with nothing left referencing them.
func (d *Dataset) Destroy(opts DestroyOpts) error {
	if err := d.checkActive(); err != nil {
		return err
	}

	targets := []*Dataset{d}
	if opts.Recursive {
		var err error
		targets, err = d.IterDescendants([]string{TypeAll}, nil)
		if err != nil {
			return err
		}
	}
	doomed := make(map[*Dataset]struct{}, len(targets))
	for _, t := range targets {
		doomed[t] = struct{}{}
	}

	// Check pass over every target; nothing mutates until all pass.
	for _, t := range targets {
		if t.kind == KindSnapshot {
			if len(t.holds) > 0 {
				return util.Errorf(util.ErrSnapshotHold, "snapshot %q is held", t.Name())
			}
			for _, clone := range t.clones {
				if _, ok := doomed[clone]; !ok {
					err := util.Errorf(util.ErrDependant, "snapshot %q has dependent clone %q", t.Name(), clone.Name())
					err.Dataset = t.Name()
					return err
				}
			}
			continue
		}
		if !opts.Recursive && (len(t.childNames()) > 0 || len(t.snapshotNames()) > 0) {
			return util.Errorf(util.ErrDescendant, "dataset %q has children", t.Name())
		}
	}

	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		if t.mounted {
			if err := t.Unmount(); err != nil {
				return err
			}
		}
		if t.kind == KindSnapshot {
			t.parent.snapshots.Delete(t.name)
		} else {
			if t.origin != nil {
				t.origin.dropClone(t)
				t.origin = nil
			}
			t.parent.children.Delete(t.name)
		}
		t.state = StateDestroyed
		t.eng.log.Debug().Str("dataset", t.Name()).Msg("destroyed")
	}
	return nil
}

func (d *Dataset) dropClone(clone *Dataset) {
	for i, c := range d.clones {
		if c == clone {
			d.clones = append(d.clones[:i], d.clones[i+1:]...)
			return
		}
	}
}
