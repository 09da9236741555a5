package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/mockzfs/util"
)

func TestHoldRelease(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)

	require.NoError(t, snap.Hold("backup", HoldOpts{}))
	tags, err := snap.Holds()
	require.NoError(t, err)
	assert.Equal(t, []string{"backup"}, tags)

	// Collision
	err = snap.Hold("backup", HoldOpts{})
	assert.True(t, util.IsKind(err, util.ErrInvalidArgument))

	require.NoError(t, snap.Release("backup", HoldOpts{}))
	tags, err = snap.Holds()
	require.NoError(t, err)
	assert.Empty(t, tags)

	// Releasing a missing hold directly is an error.
	err = snap.Release("backup", HoldOpts{})
	assert.True(t, util.IsKind(err, util.ErrInvalidArgument))
}

func TestHoldOnNonSnapshot(t *testing.T) {
	e := newTestEngine(t)
	fs := mustCreate(t, e, "", "tank", KindFilesystem)
	assert.True(t, util.IsKind(fs.Hold("x", HoldOpts{}), util.ErrDatasetType))
	assert.True(t, util.IsKind(fs.Release("x", HoldOpts{}), util.ErrDatasetType))
	_, err := fs.Holds()
	assert.True(t, util.IsKind(err, util.ErrDatasetType))
}

func TestRecursiveHold(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	mustCreate(t, e, "tank/fs", "sub", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{Recursive: true}, nil)
	require.NoError(t, err)
	subSnap := e.Get("tank/fs/sub@s")
	require.NotNil(t, subSnap)

	require.NoError(t, snap.Hold("keep", HoldOpts{Recursive: true}))
	tags, err := subSnap.Holds()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, tags)

	// A collision anywhere in the set aborts the whole hold.
	require.NoError(t, subSnap.Release("keep", HoldOpts{}))
	err = snap.Hold("keep", HoldOpts{Recursive: true})
	assert.True(t, util.IsKind(err, util.ErrInvalidArgument))
	tags, err = subSnap.Holds()
	require.NoError(t, err)
	assert.Empty(t, tags, "failed recursive hold must not leave partial tags")

	// Recursive release only touches snapshots that carry the tag.
	require.NoError(t, snap.Release("keep", HoldOpts{Recursive: true}))
	tags, err = snap.Holds()
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestHoldReleaseRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)
	require.NoError(t, snap.Hold("a", HoldOpts{}))

	before, err := snap.Holds()
	require.NoError(t, err)
	require.NoError(t, snap.Hold("b", HoldOpts{}))
	require.NoError(t, snap.Release("b", HoldOpts{}))
	after, err := snap.Holds()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
