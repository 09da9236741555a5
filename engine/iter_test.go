package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/mockzfs/util"
)

func names(ds []*Dataset) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

// buildTree creates tank { fs1 { @s1, fs1a }, fs2, vol1 { @s1 } }.
func buildTree(t *testing.T, e *Engine) {
	t.Helper()
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs1 := mustCreate(t, e, "tank", "fs1", KindFilesystem)
	_, err := fs1.Snapshot("s1", SnapshotOpts{}, nil)
	require.NoError(t, err)
	mustCreate(t, e, "tank/fs1", "fs1a", KindFilesystem)
	mustCreate(t, e, "tank", "fs2", KindFilesystem)
	vol := mustCreate(t, e, "tank", "vol1", KindVolume)
	_, err = vol.Snapshot("s1", SnapshotOpts{}, nil)
	require.NoError(t, err)
}

func TestIterDescendantsPreOrder(t *testing.T) {
	e := newTestEngine(t)
	buildTree(t, e)
	tank := e.Get("tank")

	all, err := tank.IterDescendants([]string{TypeAll}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tank",
		"tank/fs1", "tank/fs1@s1", "tank/fs1/fs1a",
		"tank/fs2",
		"tank/vol1", "tank/vol1@s1",
	}, names(all))

	fsOnly, err := tank.IterDescendants([]string{TypeFilesystem}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank", "tank/fs1", "tank/fs1/fs1a", "tank/fs2"}, names(fsOnly))

	snapsOnly, err := tank.IterDescendants([]string{TypeSnapshot}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/fs1@s1", "tank/vol1@s1"}, names(snapsOnly))
}

func TestIterDescendantsRejectsBadTypes(t *testing.T) {
	e := newTestEngine(t)
	tank := mustCreate(t, e, "", "tank", KindFilesystem)

	_, err := tank.IterDescendants([]string{TypeClones}, nil)
	assert.True(t, util.IsKind(err, util.ErrInvalidArgument))
	_, err = tank.IterDescendants(nil, nil)
	assert.True(t, util.IsKind(err, util.ErrInvalidArgument))
	_, err = tank.IterDescendants([]string{"bookmark"}, nil)
	assert.True(t, util.IsKind(err, util.ErrInvalidArgument))
}

func TestIterDescendantsFollowsClones(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)
	_, err = snap.Clone("tank/clone", CloneOpts{}, nil)
	require.NoError(t, err)

	// Without "clones" the clone is reached only through its own parent.
	got, err := fs.IterDescendants([]string{TypeAll}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/fs", "tank/fs@s"}, names(got))

	// With "clones" the snapshot pulls its clones in transitively.
	got, err = fs.IterDescendants([]string{TypeAll, TypeClones}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/fs", "tank/fs@s", "tank/clone"}, names(got))
}

func TestIterDescendantsVisitsOnceDespiteCycles(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)
	clone, err := snap.Clone("tank/fs/inner", CloneOpts{}, nil)
	require.NoError(t, err)
	_, err = clone.Snapshot("s2", SnapshotOpts{}, nil)
	require.NoError(t, err)

	// The clone lives under its own origin's parent, so traversal with
	// clones enabled circles back into the subtree.
	got, err := fs.IterDescendants([]string{TypeAll, TypeClones}, nil)
	require.NoError(t, err)
	seen := map[string]int{}
	for _, n := range names(got) {
		seen[n]++
	}
	for n, c := range seen {
		assert.Equal(t, 1, c, "dataset %s visited %d times", n, c)
	}
	assert.Contains(t, seen, "tank/fs/inner")
	assert.Contains(t, seen, "tank/fs/inner@s2")
}
