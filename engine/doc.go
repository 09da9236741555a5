// Package engine implements the in-memory mock dataset engine: a
// copy-on-write, pooled filesystem manager emulating the externally
// observable behavior of ZFS pools, datasets, snapshots, clones,
// holds, and properties.
//
// The engine mutates a pointer graph of Dataset nodes rooted at a
// pools-root sentinel. Every recursive operation runs a check pass
// over its targets before the do pass, so operations either complete
// fully or leave the graph untouched. Content flows between mount,
// snapshot, clone, and unmount as opaque archive trees captured from
// the mock host filesystem.
//
// Nothing here touches a kernel or disk; the engine exists so code
// that drives zfs/zpool commands can be unit tested deterministically.
package engine
