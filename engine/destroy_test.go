package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/mockzfs/util"
)

func TestDestroyLeaf(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)

	require.NoError(t, fs.Destroy(DestroyOpts{}))
	assert.Equal(t, StateDestroyed, fs.State())
	assert.Nil(t, e.Get("tank/fs"))
	assert.False(t, fs.Mounted())
	assert.Nil(t, e.mountedAt("/tank/fs"))
}

func TestDestroyNonLeafRequiresRecursive(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	mustCreate(t, e, "tank/fs", "sub", KindFilesystem)

	err := fs.Destroy(DestroyOpts{})
	assert.True(t, util.IsKind(err, util.ErrDescendant))
	assert.Equal(t, StateActive, fs.State())

	require.NoError(t, fs.Destroy(DestroyOpts{Recursive: true}))
	assert.Nil(t, e.Get("tank/fs"))
	assert.Nil(t, e.Get("tank/fs/sub"))
}

func TestDestroySnapshotOnlyWithoutHolds(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)
	require.NoError(t, snap.Hold("busy", HoldOpts{}))

	err = snap.Destroy(DestroyOpts{})
	assert.True(t, util.IsKind(err, util.ErrSnapshotHold))

	require.NoError(t, snap.Release("busy", HoldOpts{}))
	require.NoError(t, snap.Destroy(DestroyOpts{}))
	assert.Nil(t, e.Get("tank/fs@s"))
	assert.Equal(t, StateDestroyed, snap.State())
}

func TestDestroyFilesystemWithSnapshotsRequiresRecursive(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	_, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)

	err = fs.Destroy(DestroyOpts{})
	assert.True(t, util.IsKind(err, util.ErrDescendant))
	require.NoError(t, fs.Destroy(DestroyOpts{Recursive: true}))
}

func TestDestroyOriginWithDanglingCloneFails(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "foo", KindFilesystem)
	snap, err := fs.Snapshot("snap1", SnapshotOpts{}, nil)
	require.NoError(t, err)
	clone, err := snap.Clone("tank/bar", CloneOpts{}, nil)
	require.NoError(t, err)

	err = fs.Destroy(DestroyOpts{Recursive: true})
	require.True(t, util.IsKind(err, util.ErrDependant))
	var structured *util.Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, "tank/foo@snap1", structured.Dataset)
	assert.Equal(t, StateActive, fs.State(), "failed destroy must not mutate")

	// Destroying the clone first clears the dependency.
	require.NoError(t, clone.Destroy(DestroyOpts{}))
	assert.Empty(t, snap.clones)
	require.NoError(t, fs.Destroy(DestroyOpts{Recursive: true}))
}

func TestDestroySubtreeLeavesRestIntact(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	keep := mustCreate(t, e, "tank", "keep", KindFilesystem)
	_, err := keep.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)
	doomed := mustCreate(t, e, "tank", "doomed", KindFilesystem)
	mustCreate(t, e, "tank/doomed", "sub", KindFilesystem)

	require.NoError(t, doomed.Destroy(DestroyOpts{Recursive: true}))

	assert.Equal(t, []string{"keep"}, e.Get("tank").childNames())
	assert.Equal(t, keep, e.Get("tank/keep"))
	assert.NotNil(t, e.Get("tank/keep@s"))
	// No destroyed dataset remains reachable from the root.
	all, err := e.Get("tank").IterDescendants([]string{TypeAll, TypeClones}, nil)
	require.NoError(t, err)
	for _, d := range all {
		assert.Equal(t, StateActive, d.State())
	}
}

func TestDestroyCloneDetachesOrigin(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)
	clone, err := snap.Clone("tank/clone", CloneOpts{}, nil)
	require.NoError(t, err)

	require.NoError(t, clone.Destroy(DestroyOpts{}))
	assert.Nil(t, clone.Origin())
	assert.Empty(t, snap.clones)
	assert.Equal(t, StateActive, snap.State())
}
