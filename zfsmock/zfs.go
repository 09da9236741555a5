package zfsmock

import (
	"errors"
	"strings"

	"github.com/dendrascience/mockzfs/engine"
	"github.com/dendrascience/mockzfs/util"
)

// ZFS is the dataset-level command surface.
type ZFS struct {
	eng *engine.Engine
}

// HoldsCallback continues Holds with the snapshot's tags.
type HoldsCallback func(err error, tags []string)

// GetCallback continues Get with [dataset, property, value] triples.
type GetCallback func(err error, rows [][]string)

// Create makes a filesystem. Top-level names belong to zpool.Create.
func (z *ZFS) Create(name string, cb DoneCallback) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		cb(errors.New("missing dataset name"))
		return
	}
	parentName, base := name[:i], name[i+1:]
	parent := z.eng.Get(parentName)
	if parent == nil {
		cb(cannot("create", name, "parent does not exist"))
		return
	}
	if z.eng.Get(name) != nil {
		cb(cannot("create", name, "dataset already exists"))
		return
	}
	_, err := z.eng.CreateDataset(parent, base, engine.KindFilesystem, nil, nil)
	cb(translate(err))
}

// Snapshot captures "fs@snap".
func (z *ZFS) Snapshot(name string, cb DoneCallback) {
	base, snap, ok := util.SplitSnapshot(name)
	if !ok || snap == "" || base == "" {
		cb(cannot("snapshot", name, "empty component or misplaced '@' or '#' delimiter in name"))
		return
	}
	ds := z.eng.Get(base)
	if ds == nil {
		cb(cannot("open", base, "dataset does not exist"))
		return
	}
	if z.eng.Get(name) != nil {
		cb(cannot("create snapshot", name, "dataset already exists"))
		return
	}
	_, err := ds.Snapshot(snap, engine.SnapshotOpts{}, nil)
	cb(translate(err))
}

// Clone creates a dataset from a snapshot. props may be nil.
func (z *ZFS) Clone(snapname, name string, props map[string]any, cb DoneCallback) {
	if strings.Contains(name, "@") {
		cb(cannot("create", name, "snapshot delimiter '@' is not expected here"))
		return
	}
	snap := z.eng.Get(snapname)
	if snap == nil {
		cb(cannot("open", snapname, "dataset does not exist"))
		return
	}
	_, err := snap.Clone(name, engine.CloneOpts{}, props)
	cb(translate(err))
}

// Destroy removes a single dataset.
func (z *ZFS) Destroy(name string, cb DoneCallback) {
	z.destroy(name, false, cb)
}

// DestroyAll removes a dataset and all its descendants.
func (z *ZFS) DestroyAll(name string, cb DoneCallback) {
	z.destroy(name, true, cb)
}

func (z *ZFS) destroy(name string, recursive bool, cb DoneCallback) {
	ds := z.eng.Get(name)
	if ds == nil {
		cb(cannot("open", name, "dataset does not exist"))
		return
	}
	err := ds.Destroy(engine.DestroyOpts{Recursive: recursive})
	if err == nil {
		cb(nil)
		return
	}
	switch util.KindOf(err) {
	case util.ErrSnapshotHold:
		cb(cannot("destroy", name, "dataset is busy"))
	case util.ErrDescendant:
		cb(cannot("destroy", name, "filesystem has children"))
	case util.ErrDependant:
		var e *util.Error
		origin := name
		if errors.As(err, &e) && e.Dataset != "" {
			origin = e.Dataset
		}
		cb(cannot("destroy", origin, "snapshot has dependent clones"))
	default:
		cb(translate(err))
	}
}

// Set applies each property in props to the dataset.
func (z *ZFS) Set(name string, props map[string]any, cb DoneCallback) {
	ds := z.eng.Get(name)
	if ds == nil {
		cb(cannot("open", name, "dataset does not exist"))
		return
	}
	for prop, value := range props {
		if err := ds.SetProperty(prop, value); err != nil {
			cb(translate(err))
			return
		}
	}
	cb(nil)
}

// Get reads properties. Rows are [dataset, property, value] triples;
// only the parseable form is mocked.
func (z *ZFS) Get(name string, props []string, parseable bool, cb GetCallback) {
	if !parseable {
		cb(errNotImplemented, nil)
		return
	}
	ds := z.eng.Get(name)
	if ds == nil {
		cb(cannot("open", name, "dataset does not exist"), nil)
		return
	}
	rows := make([][]string, 0, len(props))
	for _, prop := range props {
		v, err := ds.GetProperty(prop)
		if err != nil {
			cb(translate(err), nil)
			return
		}
		rows = append(rows, []string{name, prop, formatValue(v)})
	}
	cb(nil, rows)
}

// Hold tags a snapshot.
func (z *ZFS) Hold(snapname, tag string, cb DoneCallback) {
	snap := z.eng.Get(snapname)
	if snap == nil {
		cb(cannot("open", snapname, "dataset does not exist"))
		return
	}
	cb(translate(snap.Hold(tag, engine.HoldOpts{})))
}

// ReleaseHold removes a snapshot tag.
func (z *ZFS) ReleaseHold(snapname, tag string, cb DoneCallback) {
	snap := z.eng.Get(snapname)
	if snap == nil {
		cb(cannot("open", snapname, "dataset does not exist"))
		return
	}
	cb(translate(snap.Release(tag, engine.HoldOpts{})))
}

// Holds reports a snapshot's tags.
func (z *ZFS) Holds(snapname string, cb HoldsCallback) {
	snap := z.eng.Get(snapname)
	if snap == nil {
		cb(cannot("open", snapname, "dataset does not exist"), nil)
		return
	}
	tags, err := snap.Holds()
	cb(translate(err), tags)
}

// Send is not part of the mocked surface.
func (z *ZFS) Send(name string, cb DoneCallback) { cb(errNotImplemented) }

// Receive is not part of the mocked surface.
func (z *ZFS) Receive(name string, cb DoneCallback) { cb(errNotImplemented) }

// Rollback is not part of the mocked surface.
func (z *ZFS) Rollback(name string, cb DoneCallback) { cb(errNotImplemented) }

// Upgrade is not part of the mocked surface.
func (z *ZFS) Upgrade(cb DoneCallback) { cb(errNotImplemented) }
