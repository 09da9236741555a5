package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkGraph asserts the structural invariants that must hold between
// operations: parent/child registration symmetry, snapshot/clone
// symmetry, and mount-table bijectivity.
func checkGraph(t *testing.T, e *Engine) {
	t.Helper()
	for _, pool := range e.GetPools() {
		all, err := e.Get(pool).IterDescendants([]string{TypeAll, TypeClones}, nil)
		require.NoError(t, err)
		for _, d := range all {
			require.Equal(t, StateActive, d.State(), "%s reachable but not active", d.Name())
			if d.Kind() == KindSnapshot {
				assert.Equal(t, d, d.parent.snapshot(d.BaseName()),
					"%s not registered under its parent's snapshots", d.Name())
				for _, c := range d.clones {
					assert.Equal(t, d, c.Origin(),
						"clone %s does not point back at %s", c.Name(), d.Name())
				}
			} else {
				assert.Equal(t, d, d.parent.child(d.BaseName()),
					"%s not registered under its parent's children", d.Name())
				if d.Origin() != nil {
					assert.Contains(t, d.Origin().clones, d,
						"%s missing from its origin's clone list", d.Name())
				}
			}
			if d.Mounted() {
				mp := d.mountPath()
				assert.Equal(t, d, e.mountedAt(mp), "%s mounted but not in table", d.Name())
			}
		}
	}
	for p, d := range e.mounts {
		assert.True(t, d.Mounted(), "table entry %s for unmounted %s", p, d.Name())
	}
}

func TestGraphInvariantsAcrossOperations(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	checkGraph(t, e)

	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	mustCreate(t, e, "tank/fs", "sub", KindFilesystem)
	vol := mustCreate(t, e, "tank", "vol", KindVolume)
	checkGraph(t, e)

	snap, err := fs.Snapshot("s1", SnapshotOpts{Recursive: true}, nil)
	require.NoError(t, err)
	_, err = vol.Snapshot("v1", SnapshotOpts{}, nil)
	require.NoError(t, err)
	checkGraph(t, e)

	clone, err := snap.Clone("tank/clone", CloneOpts{}, nil)
	require.NoError(t, err)
	checkGraph(t, e)

	require.NoError(t, snap.Hold("keep", HoldOpts{}))
	require.NoError(t, clone.Rename("tank/clone2"))
	checkGraph(t, e)

	require.NoError(t, e.Get("tank/fs/sub").Destroy(DestroyOpts{Recursive: true}))
	checkGraph(t, e)

	require.NoError(t, snap.Release("keep", HoldOpts{}))
	require.NoError(t, clone.Destroy(DestroyOpts{}))
	require.NoError(t, fs.Destroy(DestroyOpts{Recursive: true}))
	checkGraph(t, e)

	require.NoError(t, e.DestroyPool("tank"))
	assert.Empty(t, e.GetPools())
	assert.Empty(t, e.mounts)
}
