package engine

import (
	"os"
	"path"

	"github.com/dendrascience/mockzfs/mockfs"
	"github.com/dendrascience/mockzfs/util"
)

// MountOpts controls Mount. With IgnoreNotMountable, ordinary
// not-mountable reasons (wrong type, already mounted, canmount=off,
// no usable mountpoint, not on a mock FS) return silently instead of
// raising UnmountableError; auto-mount at create and remount after a
// mountpoint change run in this mode.
type MountOpts struct {
	IgnoreNotMountable bool
}

// notMountableReason returns why d cannot be mounted, or "".
func (d *Dataset) notMountableReason() (reason, mp string) {
	if d.kind != KindFilesystem {
		return "not a filesystem", ""
	}
	if d.mounted {
		return "already mounted", ""
	}
	if v, _, err := d.GetInheritableValue("canmount"); err == nil && v == "off" {
		return "canmount is off", ""
	}
	mp, ok := d.Mountpoint()
	if !ok || !path.IsAbs(mp) {
		return "no usable mountpoint", ""
	}
	if !d.eng.hostIsMock(mp) {
		return "mountpoint is not on a mock filesystem", ""
	}
	return "", mp
}

// hostIsMock reports whether p's nearest existing ancestor lives on a
// mock filesystem.
func (e *Engine) hostIsMock(p string) bool {
	if e.host == nil {
		return false
	}
	for {
		st, err := e.host.Lstat(p)
		if err == nil {
			return mockfs.IsMock(st)
		}
		if p == "/" {
			return false
		}
		p = path.Dir(p)
	}
}

// Mount mounts the filesystem at its computed mountpoint: the
// directory is created if absent, the dataset is registered in the
// mount table, and any pending fscontent is restored into place and
// cleared. Mounting over a non-empty directory fails with
// OverlayMountError.
func (d *Dataset) Mount(opts MountOpts) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	reason, mp := d.notMountableReason()
	if reason != "" {
		if opts.IgnoreNotMountable {
			return nil
		}
		return util.Errorf(util.ErrUnmountable, "cannot mount %q: %s", d.Name(), reason)
	}

	st, err := d.eng.host.Lstat(mp)
	switch {
	case err == nil:
		if !st.IsDir() {
			return util.Errorf(util.ErrUnmountable, "mountpoint %q is not a directory", mp)
		}
		names, err := d.eng.host.ReadDir(mp)
		if err != nil {
			return err
		}
		if len(names) > 0 {
			return util.Errorf(util.ErrOverlayMount, "mountpoint %q is not empty", mp)
		}
	case os.IsNotExist(err):
		if err := d.eng.host.MkdirAll(mp, 0o755); err != nil {
			return err
		}
	default:
		return err
	}

	d.eng.mountAt(mp, d)
	d.mounted = true
	if d.fscontent != nil {
		if err := d.eng.Restore(mp, d.fscontent); err != nil {
			return err
		}
		d.fscontent = nil
	}
	d.eng.log.Debug().Str("dataset", d.Name()).Str("mountpoint", mp).Msg("mounted")
	return nil
}

// Unmount archives the mounted subtree into the dataset's fscontent
// slot, clears the directory (the mountpoint itself stays), and drops
// the mount-table entry. Unmounting is a no-op when not mounted and
// fails with FilesystemBusyError when anything is mounted strictly
// below.
func (d *Dataset) Unmount() error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if !d.mounted {
		return nil
	}
	mp := d.mountPath()
	if below := d.eng.mountsBelow(mp); len(below) > 0 {
		return util.Errorf(util.ErrFilesystemBusy, "cannot unmount %q: %s is mounted below it", d.Name(), below[0])
	}
	content, err := d.eng.Archive(mp)
	if err != nil {
		return err
	}
	if err := d.eng.ClearDir(mp); err != nil {
		return err
	}
	d.fscontent = content
	d.eng.unmountAt(mp)
	d.mounted = false
	d.eng.log.Debug().Str("dataset", d.Name()).Str("mountpoint", mp).Msg("unmounted")
	return nil
}

// mountPath returns the path this dataset is registered under in the
// mount table. Valid only while mounted.
func (d *Dataset) mountPath() string {
	for p, ds := range d.eng.mounts {
		if ds == d {
			return p
		}
	}
	mp, _ := d.Mountpoint()
	return mp
}
