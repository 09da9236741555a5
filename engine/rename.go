package engine

import (
	"strings"

	"github.com/dendrascience/mockzfs/util"
)

// Rename moves the dataset to newname. Snapshots can only be rekeyed
// within their parent ("fs@old" to "fs@new"); filesystems and volumes
// can move anywhere inside their pool as long as the new parent
// already exists and the dataset does not become top-level. A mounted
// filesystem is unmounted around the move and remounted after, which
// carries its content to the new mountpoint.
func (d *Dataset) Rename(newname string) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if d.eng.Get(newname) != nil {
		return util.Errorf(util.ErrDatasetExists, "dataset %q already exists", newname)
	}

	base, snap, hasSnap := util.SplitSnapshot(newname)
	if hasSnap {
		return d.renameSnapshot(base, snap)
	}
	return d.renameDataset(newname)
}

func (d *Dataset) renameSnapshot(base, snap string) error {
	if d.kind != KindSnapshot {
		return util.Errorf(util.ErrInvalidArgument, "%q is not a snapshot", d.Name())
	}
	if base != d.parent.Name() {
		return util.Errorf(util.ErrInvalidArgument, "snapshot rename cannot move %q out of %q", d.Name(), d.parent.Name())
	}
	if err := util.NameCheck(snap); err != nil {
		return err
	}
	oldName := d.Name()
	d.parent.snapshots.Delete(d.name)
	d.name = snap
	d.parent.snapshots.Set(snap, d)
	d.eng.log.Debug().Str("from", oldName).Str("to", d.Name()).Msg("renamed")
	return nil
}

func (d *Dataset) renameDataset(newname string) error {
	if d.kind == KindSnapshot {
		return util.Errorf(util.ErrInvalidArgument, "snapshot %q must be renamed to a snapshot name", d.Name())
	}
	if util.PoolName(newname) != d.Pool() {
		return util.Errorf(util.ErrInvalidArgument, "rename cannot move %q out of pool %q", d.Name(), d.Pool())
	}
	i := strings.LastIndex(newname, "/")
	if i < 0 {
		return util.Errorf(util.ErrInvalidArgument, "rename cannot make %q a top-level dataset", d.Name())
	}
	parentName, base := newname[:i], newname[i+1:]
	if err := util.NameCheck(base); err != nil {
		return err
	}
	newParent := d.eng.Get(parentName)
	if newParent == nil {
		return util.Errorf(util.ErrInvalidArgument, "parent of %q does not exist", newname)
	}
	if newParent.kind != KindFilesystem {
		return util.Errorf(util.ErrDatasetType, "%q cannot hold child datasets", parentName)
	}

	wasMounted := d.mounted
	if wasMounted {
		if err := d.Unmount(); err != nil {
			return err
		}
	}
	oldName := d.Name()
	d.parent.children.Delete(d.name)
	d.parent = newParent
	d.name = base
	newParent.children.Set(base, d)
	if wasMounted {
		if err := d.Mount(MountOpts{IgnoreNotMountable: true}); err != nil {
			return err
		}
	}
	d.eng.log.Debug().Str("from", oldName).Str("to", d.Name()).Msg("renamed")
	return nil
}
