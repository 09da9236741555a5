package util

import "strings"

// MaxNameLen is the longest dataset name component ZFS accepts.
const MaxNameLen = 255

// NameCheck validates a single dataset name component. Allowed
// characters follow the ZFS rules: letters, digits, '-', '_', '.',
// ':' and space. Separators ('/', '@') are not valid inside a
// component.
func NameCheck(name string) error {
	if name == "" {
		return Errorf(ErrDatasetName, "name is empty")
	}
	if len(name) > MaxNameLen {
		return Errorf(ErrDatasetName, "name %q exceeds %d bytes", name, MaxNameLen)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ':' || r == ' ':
		default:
			return Errorf(ErrDatasetName, "name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

// PoolName returns the pool component of a full dataset name: the
// substring before the first '/' or '@'.
func PoolName(name string) string {
	if i := strings.IndexAny(name, "/@"); i >= 0 {
		return name[:i]
	}
	return name
}

// SplitSnapshot splits a full name on the first '@'. For
// "tank/fs@snap" it returns ("tank/fs", "snap", true); for a plain
// dataset name the snapshot part is empty and ok is false.
func SplitSnapshot(name string) (base, snap string, ok bool) {
	if i := strings.Index(name, "@"); i >= 0 {
		return name[:i], name[i+1:], true
	}
	return name, "", false
}
