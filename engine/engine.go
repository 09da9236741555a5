package engine

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dendrascience/mockzfs/mockfs"
	"github.com/dendrascience/mockzfs/util"
)

// HostFS is the capability set the engine consumes from the mock host
// filesystem. mockfs.FS satisfies it.
type HostFS interface {
	Lstat(p string) (mockfs.Stat, error)
	ReadFile(p string) ([]byte, error)
	ReadLink(p string) (string, error)
	ReadDir(p string) ([]string, error)
	WriteFile(p string, data []byte, mode os.FileMode) error
	Symlink(target, p string) error
	Mkdir(p string, mode os.FileMode) error
	MkdirAll(p string, mode os.FileMode) error
	Rmdir(p string) error
	Chmod(p string, mode os.FileMode) error
	Utimes(p string, atime, mtime time.Time) error
	Unlink(p string) error
}

// Engine owns the process-wide mock state: the pools root, the mount
// table, and the transaction-group counter. All mutation goes through
// Dataset and Engine methods; the engine is single-threaded by design
// and tests reset it between cases.
type Engine struct {
	root       *Dataset
	mounts     map[string]*Dataset
	txg        int64
	pendingTxg int64
	host       HostFS
	log        zerolog.Logger
}

// New returns an engine whose archive operations run against host.
// Passing nil host leaves mount/snapshot content capture disabled
// until SetHost is called; graph-only tests do this.
func New(host HostFS) *Engine {
	e := &Engine{host: host, log: zerolog.Nop()}
	e.Reset()
	return e
}

// SetLogger installs a logger for operation tracing.
func (e *Engine) SetLogger(log zerolog.Logger) { e.log = log }

// SetHost replaces the host filesystem the engine archives against.
func (e *Engine) SetHost(host HostFS) { e.host = host }

// Host returns the engine's host filesystem.
func (e *Engine) Host() HostFS { return e.host }

// Reset recreates the pools root, mount table, and txg counter. It is
// the sanctioned way to clear engine state between tests.
func (e *Engine) Reset() {
	e.root = newPoolsRoot(e)
	e.mounts = map[string]*Dataset{}
	e.txg = 0
	e.pendingTxg = 0
	e.log.Debug().Msg("engine reset")
}

// currentTxg returns the txg to stamp into a dataset under creation.
// Outside a pending window each creation consumes a fresh txg; inside
// one, every creation shares the window's value.
func (e *Engine) currentTxg() int64 {
	if e.pendingTxg > 0 {
		return e.pendingTxg
	}
	e.txg++
	return e.txg
}

// beginPendingTxg opens a shared-txg window so datasets created by one
// recursive operation share a createtxg.
func (e *Engine) beginPendingTxg() {
	e.txg++
	e.pendingTxg = e.txg
}

func (e *Engine) endPendingTxg() {
	e.pendingTxg = 0
}

// Root returns the pools root sentinel. It is not a real dataset and
// never appears in enumeration results.
func (e *Engine) Root() *Dataset { return e.root }

// Get resolves a full dataset name ("pool/fs@snap") to its node, or
// nil when no such dataset exists.
func (e *Engine) Get(fullname string) *Dataset {
	base, snap, hasSnap := util.SplitSnapshot(fullname)
	if base == "" {
		return nil
	}
	cur := e.root
	for _, seg := range strings.Split(base, "/") {
		next := cur.child(seg)
		if next == nil {
			return nil
		}
		cur = next
	}
	if !hasSnap {
		return cur
	}
	return cur.snapshot(snap)
}

// GetPools returns the names of all pools in creation order.
func (e *Engine) GetPools() []string {
	return e.root.childNames()
}

// PoolName returns the pool component of a full dataset name. For
// resolving a Dataset's pool, use Dataset.Pool.
func (e *Engine) PoolName(name string) string {
	return util.PoolName(name)
}

// DestroyPool tears down a pool: every descendant is unmounted on a
// best-effort basis, flipped to state pool_destroyed, and the pool is
// removed from the pools root.
func (e *Engine) DestroyPool(name string) error {
	pool := e.root.child(name)
	if pool == nil {
		return util.Errorf(util.ErrNoSuchPool, "no such pool %q", name)
	}
	all, err := pool.IterDescendants([]string{TypeAll}, nil)
	if err != nil {
		return err
	}
	for i := len(all) - 1; i >= 0; i-- {
		d := all[i]
		if err := d.Unmount(); err != nil {
			e.log.Debug().Str("dataset", d.Name()).Err(err).Msg("unmount skipped during pool destroy")
		}
		d.state = StatePoolDestroyed
	}
	e.root.children.Delete(name)
	e.log.Debug().Str("pool", name).Msg("pool destroyed")
	return nil
}

// mountAt registers d in the mount table.
func (e *Engine) mountAt(path string, d *Dataset) {
	e.mounts[path] = d
}

func (e *Engine) unmountAt(path string) {
	delete(e.mounts, path)
}

// mountedAt returns the dataset mounted at path, or nil.
func (e *Engine) mountedAt(path string) *Dataset {
	return e.mounts[path]
}

// mountsBelow returns mount-table paths strictly beneath path, sorted.
func (e *Engine) mountsBelow(path string) []string {
	prefix := strings.TrimSuffix(path, "/") + "/"
	var below []string
	for p := range e.mounts {
		if p != path && strings.HasPrefix(p, prefix) {
			below = append(below, p)
		}
	}
	sort.Strings(below)
	return below
}
