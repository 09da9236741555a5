package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/mockzfs/mockfs"
	"github.com/dendrascience/mockzfs/util"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(mockfs.New())
}

// mustCreate builds a filesystem dataset under the named parent path
// ("" for the pools root).
func mustCreate(t *testing.T, e *Engine, parent, name, kind string) *Dataset {
	t.Helper()
	var p *Dataset
	if parent != "" {
		p = e.Get(parent)
		require.NotNil(t, p, "parent %s", parent)
	}
	d, err := e.CreateDataset(p, name, kind, nil, nil)
	require.NoError(t, err)
	return d
}

func TestGetResolvesFullNames(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	snap, err := fs.Snapshot("snap1", SnapshotOpts{}, nil)
	require.NoError(t, err)

	assert.Equal(t, fs, e.Get("tank/fs"))
	assert.Equal(t, snap, e.Get("tank/fs@snap1"))
	assert.Nil(t, e.Get("tank/nope"))
	assert.Nil(t, e.Get("tank/fs@nope"))
	assert.Nil(t, e.Get(""))
}

func TestGetPoolsOrdered(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "zebra", KindFilesystem)
	mustCreate(t, e, "", "alpha", KindFilesystem)
	assert.Equal(t, []string{"zebra", "alpha"}, e.GetPools())
}

func TestResetClearsEverything(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	require.Len(t, e.GetPools(), 1)
	e.Reset()
	assert.Empty(t, e.GetPools())
	assert.Nil(t, e.Get("tank"))
	assert.Empty(t, e.mounts)
}

func TestTxgMonotonicAndShared(t *testing.T) {
	e := newTestEngine(t)
	pool := mustCreate(t, e, "", "tank", KindFilesystem)
	a := mustCreate(t, e, "tank", "a", KindFilesystem)
	b := mustCreate(t, e, "tank", "b", KindFilesystem)
	assert.Less(t, pool.CreateTxg(), a.CreateTxg())
	assert.Less(t, a.CreateTxg(), b.CreateTxg())

	// Recursive snapshots share one createtxg.
	_, err := pool.Snapshot("s", SnapshotOpts{Recursive: true}, nil)
	require.NoError(t, err)
	s1 := e.Get("tank@s")
	s2 := e.Get("tank/a@s")
	s3 := e.Get("tank/b@s")
	require.NotNil(t, s1)
	require.NotNil(t, s2)
	require.NotNil(t, s3)
	assert.Equal(t, s1.CreateTxg(), s2.CreateTxg())
	assert.Equal(t, s1.CreateTxg(), s3.CreateTxg())
	assert.Greater(t, s1.CreateTxg(), b.CreateTxg())
}

func TestDestroyPool(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	_, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	require.NoError(t, err)

	require.NoError(t, e.DestroyPool("tank"))
	assert.Empty(t, e.GetPools())
	assert.Equal(t, StatePoolDestroyed, fs.State())
	assert.Empty(t, e.mounts)

	err = e.DestroyPool("tank")
	assert.True(t, util.IsKind(err, util.ErrNoSuchPool))
}

func TestOperationsOnInactiveDatasetFail(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "", "tank", KindFilesystem)
	fs := mustCreate(t, e, "tank", "fs", KindFilesystem)
	require.NoError(t, fs.Destroy(DestroyOpts{}))
	require.Equal(t, StateDestroyed, fs.State())

	_, err := fs.Snapshot("s", SnapshotOpts{}, nil)
	assert.True(t, util.IsKind(err, util.ErrInactiveDataset))
	assert.True(t, util.IsKind(fs.Rename("tank/other"), util.ErrInactiveDataset))
	assert.True(t, util.IsKind(fs.Destroy(DestroyOpts{}), util.ErrInactiveDataset))
	assert.True(t, util.IsKind(fs.Mount(MountOpts{}), util.ErrInactiveDataset))

	// Property reads still work on destroyed datasets.
	v, err := fs.GetProperty("type")
	require.NoError(t, err)
	assert.Equal(t, KindFilesystem, v)
}
