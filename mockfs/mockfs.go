// Package mockfs implements the in-memory host filesystem the mock
// dataset engine archives from and restores to. It offers the small
// capability set the engine consumes (Lstat, ReadFile, ReadLink,
// ReadDir, WriteFile, Symlink, Mkdir, Rmdir, Chmod, Utimes, Unlink)
// over a node tree addressed by absolute paths.
//
// Every Stat carries the device sentinel MockDev so callers can tell
// mock-backed paths apart from anything real.
package mockfs

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockDev is the fake device number reported for every node. The
// engine refuses to archive or restore paths whose stat does not
// carry it.
const MockDev = 8675309

// Stat describes a single node, in the shape of a trimmed lstat.
type Stat struct {
	Name  string
	Dev   int64
	Mode  os.FileMode
	Size  int64
	Atime time.Time
	Mtime time.Time
}

// IsDir reports whether the node is a directory.
func (s Stat) IsDir() bool { return s.Mode.IsDir() }

// IsSymlink reports whether the node is a symbolic link.
func (s Stat) IsSymlink() bool { return s.Mode&os.ModeSymlink != 0 }

// IsMock reports whether st came from a mock filesystem.
func IsMock(st Stat) bool { return st.Dev == MockDev }

type node struct {
	name     string
	mode     os.FileMode
	atime    time.Time
	mtime    time.Time
	data     []byte           // regular files
	target   string           // symlinks
	children map[string]*node // directories
}

func (n *node) isDir() bool { return n.mode.IsDir() }

func (n *node) stat() Stat {
	size := int64(len(n.data))
	if n.mode&os.ModeSymlink != 0 {
		size = int64(len(n.target))
	}
	return Stat{
		Name:  n.name,
		Dev:   MockDev,
		Mode:  n.mode,
		Size:  size,
		Atime: n.atime,
		Mtime: n.mtime,
	}
}

// FS is one mock filesystem instance rooted at "/".
type FS struct {
	mu   sync.Mutex
	root *node
}

// New returns an empty filesystem containing only the root directory.
func New() *FS {
	now := time.Now()
	return &FS{
		root: &node{
			name:     "/",
			mode:     os.ModeDir | 0o755,
			atime:    now,
			mtime:    now,
			children: map[string]*node{},
		},
	}
}

// lookup walks to the node at p. Symlinks along the walk are not
// followed; the engine operates on lstat semantics throughout.
func (f *FS) lookup(p string) (*node, error) {
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("mockfs: %q is not absolute", p)
	}
	cur := f.root
	if p == "/" {
		return cur, nil
	}
	for _, seg := range strings.Split(p[1:], "/") {
		if !cur.isDir() {
			return nil, &os.PathError{Op: "lstat", Path: p, Err: os.ErrInvalid}
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, &os.PathError{Op: "lstat", Path: p, Err: os.ErrNotExist}
		}
		cur = next
	}
	return cur, nil
}

// lookupParent returns the directory that holds p and p's base name.
func (f *FS) lookupParent(p string) (*node, string, error) {
	p = path.Clean(p)
	dir, base := path.Split(p)
	if base == "" {
		return nil, "", fmt.Errorf("mockfs: cannot address root through %q", p)
	}
	parent, err := f.lookup(path.Clean(dir))
	if err != nil {
		return nil, "", err
	}
	if !parent.isDir() {
		return nil, "", &os.PathError{Op: "open", Path: p, Err: os.ErrInvalid}
	}
	return parent, base, nil
}

// Lstat returns the stat of the node at p without following symlinks.
func (f *FS) Lstat(p string) (Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(p)
	if err != nil {
		return Stat{}, err
	}
	return n.stat(), nil
}

// ReadFile returns a copy of the regular file at p.
func (f *FS) ReadFile(p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(p)
	if err != nil {
		return nil, err
	}
	if !n.mode.IsRegular() {
		return nil, &os.PathError{Op: "read", Path: p, Err: os.ErrInvalid}
	}
	return append([]byte(nil), n.data...), nil
}

// ReadLink returns the target of the symlink at p.
func (f *FS) ReadLink(p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(p)
	if err != nil {
		return "", err
	}
	if n.mode&os.ModeSymlink == 0 {
		return "", &os.PathError{Op: "readlink", Path: p, Err: os.ErrInvalid}
	}
	return n.target, nil
}

// ReadDir returns the names of the entries of the directory at p,
// sorted for determinism.
func (f *FS) ReadDir(p string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(p)
	if err != nil {
		return nil, err
	}
	if !n.isDir() {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: os.ErrInvalid}
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// WriteFile creates or replaces the regular file at p.
func (f *FS) WriteFile(p string, data []byte, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(p)
	if err != nil {
		return err
	}
	if existing, ok := parent.children[base]; ok && existing.isDir() {
		return &os.PathError{Op: "write", Path: p, Err: os.ErrExist}
	}
	now := time.Now()
	parent.children[base] = &node{
		name:  base,
		mode:  mode &^ os.ModeType,
		atime: now,
		mtime: now,
		data:  append([]byte(nil), data...),
	}
	return nil
}

// Symlink creates a symlink at p pointing at target.
func (f *FS) Symlink(target, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(p)
	if err != nil {
		return err
	}
	if _, ok := parent.children[base]; ok {
		return &os.PathError{Op: "symlink", Path: p, Err: os.ErrExist}
	}
	now := time.Now()
	parent.children[base] = &node{
		name:   base,
		mode:   os.ModeSymlink | 0o777,
		atime:  now,
		mtime:  now,
		target: target,
	}
	return nil
}

// Mkdir creates a single directory at p.
func (f *FS) Mkdir(p string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mkdir(p, mode)
}

func (f *FS) mkdir(p string, mode os.FileMode) error {
	parent, base, err := f.lookupParent(p)
	if err != nil {
		return err
	}
	if _, ok := parent.children[base]; ok {
		return &os.PathError{Op: "mkdir", Path: p, Err: os.ErrExist}
	}
	now := time.Now()
	parent.children[base] = &node{
		name:     base,
		mode:     os.ModeDir | (mode &^ os.ModeType),
		atime:    now,
		mtime:    now,
		children: map[string]*node{},
	}
	return nil
}

// MkdirAll creates the directory at p along with any missing parents.
func (f *FS) MkdirAll(p string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = path.Clean(p)
	if p == "/" {
		return nil
	}
	segs := strings.Split(p[1:], "/")
	cur := "/"
	for _, seg := range segs {
		cur = path.Join(cur, seg)
		n, err := f.lookup(cur)
		if err == nil {
			if !n.isDir() {
				return &os.PathError{Op: "mkdir", Path: cur, Err: os.ErrExist}
			}
			continue
		}
		if err := f.mkdir(cur, mode); err != nil {
			return err
		}
	}
	return nil
}

// Rmdir removes the empty directory at p.
func (f *FS) Rmdir(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(p)
	if err != nil {
		return err
	}
	n, ok := parent.children[base]
	if !ok {
		return &os.PathError{Op: "rmdir", Path: p, Err: os.ErrNotExist}
	}
	if !n.isDir() {
		return &os.PathError{Op: "rmdir", Path: p, Err: os.ErrInvalid}
	}
	if len(n.children) > 0 {
		return &os.PathError{Op: "rmdir", Path: p, Err: os.ErrExist}
	}
	delete(parent.children, base)
	return nil
}

// Chmod updates the permission bits of the node at p.
func (f *FS) Chmod(p string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(p)
	if err != nil {
		return err
	}
	n.mode = (n.mode & os.ModeType) | (mode &^ os.ModeType)
	return nil
}

// Utimes sets access and modification times of the node at p.
func (f *FS) Utimes(p string, atime, mtime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(p)
	if err != nil {
		return err
	}
	n.atime = atime
	n.mtime = mtime
	return nil
}

// Unlink removes the file or symlink at p.
func (f *FS) Unlink(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(p)
	if err != nil {
		return err
	}
	n, ok := parent.children[base]
	if !ok {
		return &os.PathError{Op: "unlink", Path: p, Err: os.ErrNotExist}
	}
	if n.isDir() {
		return &os.PathError{Op: "unlink", Path: p, Err: os.ErrInvalid}
	}
	delete(parent.children, base)
	return nil
}
