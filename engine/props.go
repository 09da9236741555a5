package engine

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dendrascience/mockzfs/util"
)

// Property sources reported by GetInheritableValue.
const (
	SourceLocal   = "local"
	SourceDefault = "default"
)

// defaultProps is the pool-wide default property map carried by the
// pools root and inherited by every dataset.
var defaultProps = map[string]any{
	"atime":              "on",
	"canmount":           "on",
	"checksum":           "on",
	"compression":        "off",
	"copies":             1,
	"dedup":              "off",
	"devices":            "on",
	"encryption":         "off",
	"exec":               "on",
	"keyformat":          "none",
	"keylocation":        "none",
	"logbias":            "latency",
	"mlslabel":           "none",
	"mountpoint":         "/",
	"nbmand":             "off",
	"normalization":      "none",
	"overlay":            "off",
	"primarycache":       "all",
	"quota":              "none",
	"readonly":           "off",
	"recordsize":         131072,
	"redundant_metadata": "all",
	"refquota":           "none",
	"refreservation":     "none",
	"relatime":           "off",
	"reservation":        "none",
	"secondarycache":     "all",
	"setuid":             "on",
	"sharenfs":           "off",
	"sharesmb":           "off",
	"snapdev":            "hidden",
	"snapdir":            "hidden",
	"sync":               "standard",
	"version":            5,
	"volmode":            "default",
	"vscan":              "off",
	"xattr":              "on",
	"zoned":              "off",
}

// readOnlyProps are computed from the node itself and can never be set.
var readOnlyProps = map[string]struct{}{
	"type":      {},
	"name":      {},
	"guid":      {},
	"creation":  {},
	"createtxg": {},
	"mounted":   {},
	"origin":    {},
}

// propRule validates and normalizes one writable property. The rules
// table is the dispatch point for all property access; properties
// without a rule are unsupported and fail loudly.
type propRule struct {
	validate     func(d *Dataset, v any) (any, error)
	fsOnly       bool
	creationOnly bool
}

var propRules map[string]propRule

func init() {
	propRules = map[string]propRule{
		"atime":       {validate: enumRule("atime", "on", "off")},
		"canmount":    {validate: enumRule("canmount", "on", "off", "noauto")},
		"checksum":    {validate: enumRule("checksum", "on", "off", "fletcher2", "fletcher4", "sha256", "sha512", "skein", "edonr", "noparity")},
		"compression": {validate: enumRule("compression", "on", "off")},
		"copies":      {validate: rangeRule("copies", 1, 3)},
		"mountpoint":  {validate: mountpointRule},
		"quota":       {validate: quotaRule, fsOnly: true},
		"version":     {validate: intRule("version")},
		"volblocksize": {
			validate:     intRule("volblocksize"),
			creationOnly: true,
		},
	}
}

func enumRule(prop string, accepted ...string) func(*Dataset, any) (any, error) {
	return func(_ *Dataset, v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, util.Errorf(util.ErrInvalidArgument, "%s must be a string", prop)
		}
		for _, a := range accepted {
			if s == a {
				return s, nil
			}
		}
		return nil, util.Errorf(util.ErrInvalidArgument, "invalid %s value %q", prop, s)
	}
}

func intRule(prop string) func(*Dataset, any) (any, error) {
	return func(_ *Dataset, v any) (any, error) {
		n, err := coerceInt(v)
		if err != nil {
			return nil, util.Errorf(util.ErrInvalidArgument, "%s must be an integer", prop)
		}
		return n, nil
	}
}

func rangeRule(prop string, lo, hi int) func(*Dataset, any) (any, error) {
	return func(_ *Dataset, v any) (any, error) {
		n, err := coerceInt(v)
		if err != nil || n < lo || n > hi {
			return nil, util.Errorf(util.ErrInvalidArgument, "%s must be an integer between %d and %d", prop, lo, hi)
		}
		return n, nil
	}
}

func mountpointRule(_ *Dataset, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, util.Errorf(util.ErrInvalidArgument, "mountpoint must be a string")
	}
	if s == "none" || s == "legacy" || strings.HasPrefix(s, "/") {
		return s, nil
	}
	return nil, util.Errorf(util.ErrInvalidArgument, "mountpoint %q must be an absolute path, \"none\", or \"legacy\"", s)
}

func quotaRule(_ *Dataset, v any) (any, error) {
	if s, ok := v.(string); ok {
		if s == "none" {
			return s, nil
		}
		n, err := util.ParseHumanNumber(s)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	n, err := coerceInt(v)
	if err != nil {
		return nil, util.Errorf(util.ErrBadHumanNumber, "quota must be a size or \"none\"")
	}
	return int64(n), nil
}

func coerceInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

// SetProperty validates and stores a local property value. Setting
// mountpoint on an active filesystem unmounts, rewrites the value, and
// attempts a remount, swallowing not-mountable reasons.
func (d *Dataset) SetProperty(prop string, v any) error {
	if d.state != StateCreating {
		if err := d.checkActive(); err != nil {
			return err
		}
	}
	if _, ok := readOnlyProps[prop]; ok {
		return util.Errorf(util.ErrReadOnlyProperty, "property %q is read-only", prop)
	}
	rule, ok := propRules[prop]
	if !ok {
		return util.Errorf(util.ErrUnsupportedProperty, "property %q is not supported", prop)
	}
	if rule.fsOnly && d.kind != KindFilesystem {
		return util.Errorf(util.ErrUnsupportedProperty, "property %q is not valid for %s datasets", prop, d.kind)
	}
	if rule.creationOnly && d.state != StateCreating {
		return util.Errorf(util.ErrReadOnlyProperty, "property %q can only be set at creation", prop)
	}
	val, err := rule.validate(d, v)
	if err != nil {
		return err
	}

	if prop == "mountpoint" && d.state == StateActive && d.kind == KindFilesystem {
		if err := d.Unmount(); err != nil {
			return err
		}
		d.local[prop] = val
		return d.Mount(MountOpts{IgnoreNotMountable: true})
	}
	d.local[prop] = val
	return nil
}

// GetProperty reads a property. Read-only properties come from the
// node itself, writable ones through inheritance. Anything else fails
// with NotImplementedError carrying the property name, so callers that
// rely on unsupported semantics fail loudly.
func (d *Dataset) GetProperty(prop string) (any, error) {
	switch prop {
	case "type":
		return d.kind, nil
	case "name":
		return d.Name(), nil
	case "guid":
		return d.guid, nil
	case "creation":
		return d.creation, nil
	case "createtxg":
		return d.createTxg, nil
	case "mounted":
		return d.mounted, nil
	case "origin":
		if d.origin == nil {
			return nil, nil
		}
		return d.origin.Name(), nil
	case "mountpoint":
		mp, ok := d.Mountpoint()
		if !ok {
			return nil, nil
		}
		return mp, nil
	}
	if _, ok := propRules[prop]; ok {
		v, _, err := d.GetInheritableValue(prop)
		return v, err
	}
	return nil, util.Errorf(util.ErrNotImplemented, "property %q is not implemented", prop)
}

// GetInheritableValue walks from the dataset toward the pools root
// until a node carries prop locally, and reports where the value came
// from: "local", "default" (pools root), or "inherited from <name>".
func (d *Dataset) GetInheritableValue(prop string) (value any, source string, err error) {
	if _, ok := propRules[prop]; !ok {
		if _, ok := defaultProps[prop]; !ok {
			return nil, "", util.Errorf(util.ErrNotImplemented, "property %q is not implemented", prop)
		}
	}
	for cur := d; cur != nil; cur = cur.parent {
		v, ok := cur.local[prop]
		if !ok {
			continue
		}
		switch {
		case cur == d:
			return v, SourceLocal, nil
		case cur.isRoot:
			return v, SourceDefault, nil
		default:
			return v, "inherited from " + cur.Name(), nil
		}
	}
	return nil, "", util.Errorf(util.ErrNotImplemented, "property %q has no value", prop)
}

// Mountpoint computes the filesystem's mount path: the nearest
// ancestor with a local mountpoint, joined with the name segments
// collected on the way up. A "none" or "legacy" ancestor value is
// returned literally. Snapshots and volumes have no mountpoint.
func (d *Dataset) Mountpoint() (string, bool) {
	if d.kind != KindFilesystem || d.isRoot {
		return "", false
	}
	var segs []string
	for cur := d; cur != nil; cur = cur.parent {
		v, ok := cur.local["mountpoint"]
		if !ok {
			segs = append(segs, cur.name)
			continue
		}
		mp := v.(string)
		if mp == "none" || mp == "legacy" {
			return mp, true
		}
		parts := []string{mp}
		for i := len(segs) - 1; i >= 0; i-- {
			parts = append(parts, segs[i])
		}
		return path.Join(parts...), true
	}
	// The pools root always carries a local mountpoint, so the walk
	// terminates inside the loop.
	return "/", true
}
