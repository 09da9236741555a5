package zfuse

import (
	"context"
	"os"
	"path"
	"sync"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/dendrascience/mockzfs/mockfs"
)

// FS implements the read-only FUSE view over a mock filesystem.
type FS struct {
	Mock *mockfs.FS

	mu     sync.Mutex
	inodes map[string]uint64
	next   uint64
}

// NewFS wraps a mock filesystem for FUSE serving.
func NewFS(mock *mockfs.FS) *FS {
	return &FS{
		Mock:   mock,
		inodes: map[string]uint64{},
		next:   1,
	}
}

// inode hands out a stable inode per mock path.
func (f *FS) inode(p string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ino, ok := f.inodes[p]; ok {
		return ino
	}
	f.next++
	f.inodes[p] = f.next
	return f.next
}

// Root returns the root directory node.
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: "/"}, nil
}

// Dir is a directory node backed by a mock path.
type Dir struct {
	fs   *FS
	path string
}

// Attr returns directory attributes from the mock stat.
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := d.fs.Mock.Lstat(d.path)
	if err != nil {
		return syscall.ENOENT
	}
	a.Inode = d.fs.inode(d.path)
	a.Mode = st.Mode
	a.Mtime = st.Mtime
	a.Ctime = st.Mtime
	a.Atime = st.Atime
	return nil
}

// Lookup resolves one name inside the directory.
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	p := path.Join(d.path, name)
	st, err := d.fs.Mock.Lstat(p)
	if err != nil {
		return nil, syscall.ENOENT
	}
	switch {
	case st.IsDir():
		return &Dir{fs: d.fs, path: p}, nil
	case st.IsSymlink():
		return &Symlink{fs: d.fs, path: p}, nil
	default:
		return &File{fs: d.fs, path: p}, nil
	}
}

// ReadDirAll lists the directory.
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names, err := d.fs.Mock.ReadDir(d.path)
	if err != nil {
		return nil, syscall.ENOENT
	}
	dirents := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		p := path.Join(d.path, name)
		st, err := d.fs.Mock.Lstat(p)
		if err != nil {
			continue
		}
		typ := fuse.DT_File
		switch {
		case st.IsDir():
			typ = fuse.DT_Dir
		case st.IsSymlink():
			typ = fuse.DT_Link
		}
		dirents = append(dirents, fuse.Dirent{
			Inode: d.fs.inode(p),
			Name:  name,
			Type:  typ,
		})
	}
	return dirents, nil
}

// File is a regular-file node backed by a mock path.
type File struct {
	fs   *FS
	path string
}

// Attr returns file attributes from the mock stat.
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := f.fs.Mock.Lstat(f.path)
	if err != nil {
		return syscall.ENOENT
	}
	a.Inode = f.fs.inode(f.path)
	a.Mode = st.Mode
	a.Size = uint64(st.Size)
	a.Mtime = st.Mtime
	a.Ctime = st.Mtime
	a.Atime = st.Atime
	return nil
}

// ReadAll reads the entire file content.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	data, err := f.fs.Mock.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, syscall.ENOENT
		}
		return nil, syscall.EIO
	}
	return data, nil
}

// Symlink is a symbolic-link node backed by a mock path.
type Symlink struct {
	fs   *FS
	path string
}

// Attr returns link attributes.
func (s *Symlink) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := s.fs.Mock.Lstat(s.path)
	if err != nil {
		return syscall.ENOENT
	}
	a.Inode = s.fs.inode(s.path)
	a.Mode = st.Mode
	a.Size = uint64(st.Size)
	return nil
}

// Readlink resolves the link target.
func (s *Symlink) Readlink(ctx context.Context, req *fuse.ReadlinkRequest) (string, error) {
	target, err := s.fs.Mock.ReadLink(s.path)
	if err != nil {
		return "", syscall.ENOENT
	}
	return target, nil
}
