package zfsmock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dendrascience/mockzfs/engine"
)

// DefaultListFields is the dataset field set zfs.List reports when the
// caller does not narrow it.
var DefaultListFields = []string{"name", "used", "avail", "refer", "type", "mountpoint"}

// DefaultPoolListFields is the field set a real zpool list prints; the
// mock accepts only the name column (see Zpool.List).
var DefaultPoolListFields = []string{"name", "size", "allocated", "free", "cap", "health", "altroot"}

// ListOptions narrows zfs.List. Type is a comma-separated subset of
// filesystem, volume, snapshot, all (default "filesystem,volume").
// Parseable must be true; nil means true.
type ListOptions struct {
	Type      string
	Recursive bool
	Fields    []string
	Parseable *bool
}

// List enumerates datasets. With name empty every pool is walked; with
// a name and Recursive the dataset's subtree is walked; otherwise the
// dataset and its direct snapshots are candidates. The type filter is
// applied last, so listing snapshots of a filesystem works without
// recursion.
func (z *ZFS) List(name string, opts *ListOptions, cb ListCallback) {
	if opts == nil {
		opts = &ListOptions{}
	}
	if opts.Parseable != nil && !*opts.Parseable {
		cb(errNotImplemented, nil, nil)
		return
	}
	fields := opts.Fields
	if fields == nil {
		fields = DefaultListFields
	}
	types, err := parseListTypes(opts.Type)
	if err != nil {
		cb(err, nil, nil)
		return
	}

	var candidates []*engine.Dataset
	if name == "" {
		for _, pool := range z.eng.GetPools() {
			ds, err := z.eng.Get(pool).IterDescendants([]string{engine.TypeAll}, nil)
			if err != nil {
				cb(translate(err), nil, nil)
				return
			}
			candidates = append(candidates, ds...)
		}
	} else {
		ds := z.eng.Get(name)
		if ds == nil {
			cb(cannot("open", name, "dataset does not exist"), nil, nil)
			return
		}
		if opts.Recursive {
			var err error
			candidates, err = ds.IterDescendants([]string{engine.TypeAll}, nil)
			if err != nil {
				cb(translate(err), nil, nil)
				return
			}
		} else {
			candidates = append(candidates, ds)
			candidates = append(candidates, ds.Snapshots()...)
		}
	}

	var rows [][]string
	for _, ds := range candidates {
		if !types[ds.Kind()] {
			continue
		}
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = fieldValue(ds, f)
		}
		rows = append(rows, row)
	}
	cb(nil, fields, rows)
}

// ListSnapshots is zfs.List narrowed to snapshots.
func (z *ZFS) ListSnapshots(name string, cb ListCallback) {
	z.List(name, &ListOptions{Type: "snapshot", Recursive: name == ""}, cb)
}

func parseListTypes(typeList string) (map[string]bool, error) {
	if typeList == "" {
		typeList = "filesystem,volume"
	}
	types := map[string]bool{}
	for _, t := range strings.Split(typeList, ",") {
		switch strings.TrimSpace(t) {
		case "filesystem":
			types["filesystem"] = true
		case "volume":
			types["volume"] = true
		case "snapshot":
			types["snapshot"] = true
		case "all":
			types["filesystem"] = true
			types["volume"] = true
			types["snapshot"] = true
		default:
			return nil, fmt.Errorf("invalid type '%s'", t)
		}
	}
	return types, nil
}

// fieldValue renders one list column. Size columns have no meaning
// without block accounting and render as "-".
func fieldValue(ds *engine.Dataset, field string) string {
	switch field {
	case "used", "avail", "available", "refer", "referenced":
		return "-"
	}
	v, err := ds.GetProperty(field)
	if err != nil {
		return "-"
	}
	return formatValue(v)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case time.Time:
		return strconv.FormatInt(val.Unix(), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
