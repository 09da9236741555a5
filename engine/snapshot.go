package engine

import (
	"strings"

	"github.com/dendrascience/mockzfs/util"
)

// SnapshotOpts controls Snapshot. With Recursive, every filesystem and
// volume descendant is snapshotted under the same name, all sharing
// one createtxg.
type SnapshotOpts struct {
	Recursive bool
}

// Snapshot captures a named point-in-time snapshot of the filesystem
// or volume. The check pass rejects any name collision across all
// targets before a single snapshot is created; the do pass then runs
// under a shared pending txg. Returns the snapshot of the receiver.
func (d *Dataset) Snapshot(snapname string, opts SnapshotOpts, props map[string]any) (*Dataset, error) {
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	if d.kind != KindFilesystem && d.kind != KindVolume {
		return nil, util.Errorf(util.ErrDatasetType, "%q does not support snapshots", d.Name())
	}
	if err := util.NameCheck(snapname); err != nil {
		return nil, err
	}

	targets := []*Dataset{d}
	if opts.Recursive {
		var err error
		targets, err = d.IterDescendants([]string{TypeFilesystem, TypeVolume}, nil)
		if err != nil {
			return nil, err
		}
	}

	d.eng.beginPendingTxg()
	defer d.eng.endPendingTxg()

	var result *Dataset
	err := walk(targets, nil,
		func(t *Dataset) error {
			if t.snapshot(snapname) != nil {
				return util.Errorf(util.ErrDatasetExists, "snapshot %s@%s already exists", t.Name(), snapname)
			}
			return nil
		},
		func(t *Dataset) error {
			content, err := t.snapshotContent()
			if err != nil {
				return err
			}
			snap, err := t.eng.CreateDataset(t, snapname, KindSnapshot, props, content)
			if err != nil {
				return err
			}
			if t == d {
				result = snap
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// snapshotContent captures what the new snapshot should carry: the
// dataset's pending fscontent when present, otherwise an archive of
// its mountpoint.
func (d *Dataset) snapshotContent() (*Tree, error) {
	if d.fscontent != nil {
		return d.fscontent, nil
	}
	if !d.mounted {
		return nil, nil
	}
	return d.eng.Archive(d.mountPath())
}

// CloneOpts controls Clone. With Parents, missing ancestor filesystems
// of the new name are created on the way.
type CloneOpts struct {
	Parents bool
}

// Clone creates a filesystem or volume from a snapshot. The clone has
// the same kind as the snapshot's parent, shares the snapshot's
// archived content, and keeps an origin back-edge; the snapshot tracks
// it in its clone list and cannot be destroyed out from under it.
func (d *Dataset) Clone(newname string, opts CloneOpts, props map[string]any) (*Dataset, error) {
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	if d.kind != KindSnapshot {
		return nil, util.Errorf(util.ErrDatasetType, "%q is not a snapshot", d.Name())
	}
	if d.Pool() != util.PoolName(newname) {
		return nil, util.Errorf(util.ErrInvalidArgument, "clone %q must stay in pool %q", newname, d.Pool())
	}
	if strings.Contains(newname, "@") {
		return nil, util.Errorf(util.ErrInvalidArgument, "clone name %q must not name a snapshot", newname)
	}
	if d.eng.Get(newname) != nil {
		return nil, util.Errorf(util.ErrDatasetExists, "dataset %q already exists", newname)
	}

	i := strings.LastIndex(newname, "/")
	if i < 0 {
		return nil, util.Errorf(util.ErrInvalidArgument, "clone %q cannot be a top-level dataset", newname)
	}
	parentName, base := newname[:i], newname[i+1:]
	parent := d.eng.Get(parentName)
	if parent == nil {
		if !opts.Parents {
			return nil, util.Errorf(util.ErrInvalidArgument, "parent of %q does not exist", newname)
		}
		var err error
		parent, err = d.eng.createAncestors(parentName)
		if err != nil {
			return nil, err
		}
	}

	clone, err := d.eng.CreateDataset(parent, base, d.parent.kind, props, d.fscontent)
	if err != nil {
		return nil, err
	}
	clone.origin = d
	d.clones = append(d.clones, clone)
	d.eng.log.Debug().Str("snapshot", d.Name()).Str("clone", clone.Name()).Msg("cloned")
	return clone, nil
}

// createAncestors creates any missing filesystems along name, in turn,
// and returns the dataset at name.
func (e *Engine) createAncestors(name string) (*Dataset, error) {
	cur := e.root
	for _, seg := range strings.Split(name, "/") {
		next := cur.child(seg)
		if next == nil {
			var err error
			next, err = e.CreateDataset(cur, seg, KindFilesystem, nil, nil)
			if err != nil {
				return nil, err
			}
		}
		cur = next
	}
	return cur, nil
}
