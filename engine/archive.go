package engine

import (
	"os"
	"path"

	"github.com/dendrascience/mockzfs/mockfs"
	"github.com/dendrascience/mockzfs/util"
)

// MaxArchiveFileSize bounds the size of any single file captured into
// an archive tree. The engine exists for tests; anything bigger is a
// test bug.
const MaxArchiveFileSize = 1 << 20

// Tree is an opaque archived subtree of the mock host filesystem. It
// carries copy-on-write content between mount, snapshot, clone, and
// unmount. Exactly one of FileData, Target, or Children is meaningful,
// per Stat.Mode.
type Tree struct {
	Name     string
	Stat     mockfs.Stat
	FileData []byte
	Target   string
	Children []*Tree
}

func (e *Engine) requireMock(p string) (mockfs.Stat, error) {
	if e.host == nil {
		return mockfs.Stat{}, util.Errorf(util.ErrInvalidArgument, "no host filesystem configured")
	}
	st, err := e.host.Lstat(p)
	if err != nil {
		return mockfs.Stat{}, err
	}
	if !mockfs.IsMock(st) {
		return mockfs.Stat{}, util.Errorf(util.ErrInvalidArgument, "%q is not on a mock filesystem", p)
	}
	return st, nil
}

// Archive captures the subtree rooted at p into an opaque tree value.
// Recursion stops at mount-table paths so a dataset's archive never
// swallows a submounted dataset's content. Unknown node kinds fail
// with InvalidFileTypeError.
func (e *Engine) Archive(p string) (*Tree, error) {
	st, err := e.requireMock(p)
	if err != nil {
		return nil, err
	}
	return e.archiveNode(p, st)
}

func (e *Engine) archiveNode(p string, st mockfs.Stat) (*Tree, error) {
	t := &Tree{Name: path.Base(p), Stat: st}
	switch {
	case st.Mode.IsRegular():
		if st.Size > MaxArchiveFileSize {
			return nil, util.Errorf(util.ErrInvalidArgument, "file %q exceeds %d bytes", p, MaxArchiveFileSize)
		}
		data, err := e.host.ReadFile(p)
		if err != nil {
			return nil, err
		}
		t.FileData = data
	case st.IsSymlink():
		target, err := e.host.ReadLink(p)
		if err != nil {
			return nil, err
		}
		t.Target = target
	case st.IsDir():
		names, err := e.host.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			childPath := path.Join(p, name)
			if e.mountedAt(childPath) != nil {
				continue
			}
			cst, err := e.host.Lstat(childPath)
			if err != nil {
				return nil, err
			}
			child, err := e.archiveNode(childPath, cst)
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)
		}
	default:
		return nil, util.Errorf(util.ErrInvalidFileType, "unsupported file type at %q: %v", p, st.Mode)
	}
	return t, nil
}

// Restore recreates tree's content rooted at base, preserving mode and
// atime/mtime. base must already exist as a directory on a mock FS.
func (e *Engine) Restore(base string, tree *Tree) error {
	st, err := e.requireMock(base)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return util.Errorf(util.ErrInvalidFileType, "restore target %q is not a directory", base)
	}
	for _, child := range tree.Children {
		if err := e.restoreNode(base, child); err != nil {
			return err
		}
	}
	if err := e.host.Chmod(base, tree.Stat.Mode); err != nil {
		return err
	}
	return e.host.Utimes(base, tree.Stat.Atime, tree.Stat.Mtime)
}

func (e *Engine) restoreNode(dir string, t *Tree) error {
	p := path.Join(dir, t.Name)
	switch {
	case t.Stat.Mode.IsRegular():
		if err := e.host.WriteFile(p, t.FileData, t.Stat.Mode); err != nil {
			return err
		}
	case t.Stat.IsSymlink():
		if err := e.host.Symlink(t.Target, p); err != nil {
			return err
		}
		// Symlink modes and times are fixed at creation; nothing to
		// restore beyond the target.
		return nil
	case t.Stat.IsDir():
		if err := e.host.Mkdir(p, t.Stat.Mode); err != nil && !os.IsExist(err) {
			return err
		}
		for _, child := range t.Children {
			if err := e.restoreNode(p, child); err != nil {
				return err
			}
		}
	default:
		return util.Errorf(util.ErrInvalidFileType, "unsupported file type in archive at %q", p)
	}
	if err := e.host.Chmod(p, t.Stat.Mode); err != nil {
		return err
	}
	return e.host.Utimes(p, t.Stat.Atime, t.Stat.Mtime)
}

// ClearDir removes everything under dir without removing dir itself.
// Entries that are mount points are left alone; their content belongs
// to the dataset mounted there.
func (e *Engine) ClearDir(dir string) error {
	if _, err := e.requireMock(dir); err != nil {
		return err
	}
	names, err := e.host.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		p := path.Join(dir, name)
		if e.mountedAt(p) != nil {
			continue
		}
		st, err := e.host.Lstat(p)
		if err != nil {
			return err
		}
		if st.IsDir() {
			if err := e.ClearDir(p); err != nil {
				return err
			}
			if err := e.host.Rmdir(p); err != nil {
				return err
			}
			continue
		}
		if err := e.host.Unlink(p); err != nil {
			return err
		}
	}
	return nil
}
