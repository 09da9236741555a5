package zfsmock

import "github.com/dendrascience/mockzfs/engine"

// Zpool is the pool-level command surface.
type Zpool struct {
	eng *engine.Engine
}

// PoolListOptions narrows zpool.List output. The mock supports only
// the name field.
type PoolListOptions struct {
	Fields []string
}

// StatusCallback continues Status with the pool health string.
type StatusCallback func(err error, status string)

// Create makes a new pool. config describes the vdev layout of a real
// pool and is accepted for surface compatibility; the mock has no
// disks to lay out.
func (z *Zpool) Create(pool string, config any, cb DoneCallback) {
	_ = config
	if z.eng.Get(pool) != nil {
		cb(cannot("create", pool, "pool already exists"))
		return
	}
	_, err := z.eng.CreateDataset(nil, pool, engine.KindFilesystem, nil, nil)
	cb(translate(err))
}

// Destroy tears the pool down.
func (z *Zpool) Destroy(pool string, cb DoneCallback) {
	err := z.eng.DestroyPool(pool)
	if err != nil {
		cb(cannot("open", pool, "no such pool"))
		return
	}
	cb(nil)
}

// List reports pools. With a non-empty pool argument only that pool is
// reported. Only Fields == ["name"] is supported.
func (z *Zpool) List(pool string, opts *PoolListOptions, cb ListCallback) {
	fields := []string{"name"}
	if opts != nil && opts.Fields != nil {
		fields = opts.Fields
	}
	if len(fields) != 1 || fields[0] != "name" {
		cb(errNotImplemented, nil, nil)
		return
	}
	var pools []string
	if pool != "" {
		if z.eng.Get(pool) == nil {
			cb(cannot("open", pool, "no such pool"), nil, nil)
			return
		}
		pools = []string{pool}
	} else {
		pools = z.eng.GetPools()
	}
	rows := make([][]string, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, []string{p})
	}
	cb(nil, fields, rows)
}

// Status reports pool health: ONLINE for a pool the engine knows,
// UNKNOWN otherwise. A missing pool is deliberately not an error.
func (z *Zpool) Status(pool string, cb StatusCallback) {
	if z.eng.Get(pool) != nil {
		cb(nil, "ONLINE")
		return
	}
	cb(nil, "UNKNOWN")
}

// Upgrade is not part of the mocked surface.
func (z *Zpool) Upgrade(cb DoneCallback) {
	cb(errNotImplemented)
}

// ListDisks is not part of the mocked surface.
func (z *Zpool) ListDisks(cb ListCallback) {
	cb(errNotImplemented, nil, nil)
}
