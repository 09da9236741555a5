package engine

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
	"github.com/iancoleman/orderedmap"

	"github.com/dendrascience/mockzfs/util"
)

// Dataset kinds.
const (
	KindFilesystem = "filesystem"
	KindVolume     = "volume"
	KindSnapshot   = "snapshot"
)

// Dataset lifecycle states. Any operation except property reads on a
// non-active dataset fails.
const (
	StateCreating      = "creating"
	StateActive        = "active"
	StateDestroyed     = "destroyed"
	StatePoolDestroyed = "pool_destroyed"
)

// DefaultVolBlockSize is the volblocksize a volume gets unless the
// creation properties say otherwise.
const DefaultVolBlockSize = 8192

// Dataset is one node in the engine graph: a filesystem, volume, or
// snapshot. Children and snapshots are insertion-ordered so every
// enumeration is deterministic.
type Dataset struct {
	eng       *Engine
	name      string
	parent    *Dataset
	kind      string
	creation  time.Time
	createTxg int64
	guid      uint64
	local     map[string]any
	state     string
	mounted   bool
	fscontent *Tree

	children  *orderedmap.OrderedMap // filesystem: name -> *Dataset
	snapshots *orderedmap.OrderedMap // filesystem, volume: name -> *Dataset
	holds     map[string]struct{}    // snapshot
	clones    []*Dataset             // snapshot
	origin    *Dataset               // clone back-edge, nil otherwise

	isRoot bool
}

// newPoolsRoot builds the pools-root sentinel carrying the default
// property map. Its children are the pools.
func newPoolsRoot(e *Engine) *Dataset {
	local := make(map[string]any, len(defaultProps))
	for k, v := range defaultProps {
		local[k] = v
	}
	return &Dataset{
		eng:      e,
		name:     "",
		kind:     KindFilesystem,
		state:    StateActive,
		local:    local,
		children: orderedmap.New(),
		isRoot:   true,
	}
}

func newGUID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}

// CreateDataset allocates, validates, and registers a dataset under
// parent. props are applied through the property setters while the
// dataset is still in state creating, which is how creation-only
// properties (volblocksize) get in. fscontent seeds the copy-on-write
// content slot; snapshot and clone use it, plain creates pass nil.
func (e *Engine) CreateDataset(parent *Dataset, name, kind string, props map[string]any, fscontent *Tree) (*Dataset, error) {
	if parent == nil {
		parent = e.root
	}
	if !parent.isRoot && parent.state != StateActive {
		return nil, util.Errorf(util.ErrInactiveDataset, "parent %q is %s", parent.Name(), parent.state)
	}
	if err := util.NameCheck(name); err != nil {
		return nil, err
	}
	switch kind {
	case KindFilesystem:
		if !parent.isRoot && parent.kind != KindFilesystem {
			return nil, util.Errorf(util.ErrDatasetType, "%q cannot have filesystem children", parent.Name())
		}
	case KindVolume:
		if parent.isRoot {
			return nil, util.Errorf(util.ErrDatasetType, "top-level dataset must be a filesystem")
		}
		if parent.kind != KindFilesystem {
			return nil, util.Errorf(util.ErrDatasetType, "%q cannot have volume children", parent.Name())
		}
	case KindSnapshot:
		if parent.isRoot || parent.kind == KindSnapshot {
			return nil, util.Errorf(util.ErrDatasetType, "snapshots require a filesystem or volume parent")
		}
	default:
		return nil, util.Errorf(util.ErrDatasetType, "unknown dataset type %q", kind)
	}
	if kind == KindSnapshot {
		if parent.snapshot(name) != nil {
			return nil, util.Errorf(util.ErrDatasetExists, "snapshot %s@%s already exists", parent.Name(), name)
		}
	} else if parent.child(name) != nil {
		return nil, util.Errorf(util.ErrDatasetExists, "dataset %q already exists", joinName(parent, name))
	}

	d := &Dataset{
		eng:       e,
		name:      name,
		parent:    parent,
		kind:      kind,
		creation:  time.Now(),
		createTxg: e.currentTxg(),
		guid:      newGUID(),
		local:     map[string]any{},
		state:     StateCreating,
		fscontent: fscontent,
	}
	switch kind {
	case KindFilesystem:
		d.children = orderedmap.New()
		d.snapshots = orderedmap.New()
	case KindVolume:
		d.snapshots = orderedmap.New()
		d.local["volblocksize"] = DefaultVolBlockSize
	case KindSnapshot:
		d.holds = map[string]struct{}{}
	}
	for k, v := range props {
		if err := d.SetProperty(k, v); err != nil {
			return nil, err
		}
	}
	d.state = StateActive
	if kind == KindSnapshot {
		parent.snapshots.Set(name, d)
	} else {
		parent.children.Set(name, d)
	}
	e.log.Debug().Str("dataset", d.Name()).Str("type", kind).Int64("txg", d.createTxg).Msg("created")

	if kind == KindFilesystem {
		v, _, err := d.GetInheritableValue("canmount")
		if err == nil && v == "on" {
			// The dataset is created either way; an overlay failure at
			// the mountpoint surfaces alongside it, like a real zfs
			// create whose mount step fails.
			if err := d.Mount(MountOpts{IgnoreNotMountable: true}); err != nil {
				return d, err
			}
		}
	}
	return d, nil
}

func joinName(parent *Dataset, name string) string {
	if parent.isRoot {
		return name
	}
	return parent.Name() + "/" + name
}

// Name returns the full dataset name, constructed by walking parents:
// "pool/fs" for filesystems and volumes, "pool/fs@snap" for snapshots.
func (d *Dataset) Name() string {
	if d.isRoot {
		return ""
	}
	if d.parent == nil || d.parent.isRoot {
		return d.name
	}
	sep := "/"
	if d.kind == KindSnapshot {
		sep = "@"
	}
	return d.parent.Name() + sep + d.name
}

// BaseName returns the last name component.
func (d *Dataset) BaseName() string { return d.name }

// Kind returns the dataset variant: filesystem, volume, or snapshot.
func (d *Dataset) Kind() string { return d.kind }

// State returns the lifecycle state.
func (d *Dataset) State() string { return d.state }

// Parent returns the owning dataset, or nil at the pools root.
func (d *Dataset) Parent() *Dataset {
	if d.parent != nil && d.parent.isRoot {
		return nil
	}
	return d.parent
}

// GUID returns the dataset's random 64-bit identity.
func (d *Dataset) GUID() uint64 { return d.guid }

// Creation returns the wall-clock instant of construction.
func (d *Dataset) Creation() time.Time { return d.creation }

// CreateTxg returns the transaction group the dataset was created in.
func (d *Dataset) CreateTxg() int64 { return d.createTxg }

// Mounted reports whether the filesystem is currently mounted.
func (d *Dataset) Mounted() bool { return d.mounted }

// Origin returns the snapshot this dataset was cloned from, or nil.
func (d *Dataset) Origin() *Dataset { return d.origin }

// Pool walks parents to the pools root and returns the pool dataset's
// name.
func (d *Dataset) Pool() string {
	cur := d
	for cur.parent != nil && !cur.parent.isRoot {
		cur = cur.parent
	}
	return cur.name
}

func (d *Dataset) checkActive() error {
	if d.state != StateActive {
		return util.Errorf(util.ErrInactiveDataset, "dataset %q is %s", d.Name(), d.state)
	}
	return nil
}

// child returns the named filesystem/volume child, or nil.
func (d *Dataset) child(name string) *Dataset {
	if d.children == nil {
		return nil
	}
	v, ok := d.children.Get(name)
	if !ok {
		return nil
	}
	return v.(*Dataset)
}

// snapshot returns the named snapshot, or nil.
func (d *Dataset) snapshot(name string) *Dataset {
	if d.snapshots == nil {
		return nil
	}
	v, ok := d.snapshots.Get(name)
	if !ok {
		return nil
	}
	return v.(*Dataset)
}

func (d *Dataset) childNames() []string {
	if d.children == nil {
		return nil
	}
	return d.children.Keys()
}

func (d *Dataset) snapshotNames() []string {
	if d.snapshots == nil {
		return nil
	}
	return d.snapshots.Keys()
}

// Children returns the filesystem/volume children in insertion order.
func (d *Dataset) Children() []*Dataset { return d.childList() }

// Snapshots returns the snapshots in insertion order.
func (d *Dataset) Snapshots() []*Dataset { return d.snapshotList() }

// childList returns children in insertion order.
func (d *Dataset) childList() []*Dataset {
	names := d.childNames()
	out := make([]*Dataset, 0, len(names))
	for _, n := range names {
		out = append(out, d.child(n))
	}
	return out
}

// snapshotList returns snapshots in insertion order.
func (d *Dataset) snapshotList() []*Dataset {
	names := d.snapshotNames()
	out := make([]*Dataset, 0, len(names))
	for _, n := range names {
		out = append(out, d.snapshot(n))
	}
	return out
}
