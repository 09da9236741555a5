package engine

import "github.com/dendrascience/mockzfs/util"

// Type filters accepted by IterDescendants. TypeAll expands to the
// three dataset kinds; TypeClones extends snapshot traversal into the
// snapshots' clones and is only valid alongside at least one dataset
// kind.
const (
	TypeFilesystem = KindFilesystem
	TypeVolume     = KindVolume
	TypeSnapshot   = KindSnapshot
	TypeClones     = "clones"
	TypeAll        = "all"
)

// IterState tracks visited datasets across one traversal so that
// clone edges circling back into an origin chain cannot loop. Pass
// nil to IterDescendants to start a fresh traversal.
type IterState struct {
	visited map[*Dataset]struct{}
}

func (s *IterState) seen(d *Dataset) bool {
	_, ok := s.visited[d]
	return ok
}

func (s *IterState) mark(d *Dataset) { s.visited[d] = struct{}{} }

type typeFilter struct {
	fs, vol, snap, clones bool
}

func parseTypes(types []string) (typeFilter, error) {
	var f typeFilter
	for _, t := range types {
		switch t {
		case TypeFilesystem:
			f.fs = true
		case TypeVolume:
			f.vol = true
		case TypeSnapshot:
			f.snap = true
		case TypeClones:
			f.clones = true
		case TypeAll:
			f.fs, f.vol, f.snap = true, true, true
		default:
			return f, util.Errorf(util.ErrInvalidArgument, "unknown dataset type %q", t)
		}
	}
	if !f.fs && !f.vol && !f.snap {
		return f, util.Errorf(util.ErrInvalidArgument, "at least one dataset type is required")
	}
	return f, nil
}

func (f typeFilter) matches(d *Dataset) bool {
	switch d.kind {
	case KindFilesystem:
		return f.fs
	case KindVolume:
		return f.vol
	case KindSnapshot:
		return f.snap
	}
	return false
}

// IterDescendants returns the dataset and its descendants in a
// deterministic pre-order: self before descendants; within a node all
// snapshots (and, when types includes "clones", each snapshot's
// descendant clones transitively) before child filesystems and
// volumes. Only datasets matching the type filter appear in the
// result, but traversal always continues below non-matching nodes.
// Each dataset is visited at most once even when clone edges form
// cycles with their origins.
func (d *Dataset) IterDescendants(types []string, state *IterState) ([]*Dataset, error) {
	f, err := parseTypes(types)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &IterState{visited: map[*Dataset]struct{}{}}
	} else if state.visited == nil {
		state.visited = map[*Dataset]struct{}{}
	}
	var out []*Dataset
	d.iterInto(f, state, &out)
	return out, nil
}

func (d *Dataset) iterInto(f typeFilter, state *IterState, out *[]*Dataset) {
	if state.seen(d) {
		return
	}
	state.mark(d)
	if f.matches(d) {
		*out = append(*out, d)
	}
	for _, snap := range d.snapshotList() {
		if state.seen(snap) {
			continue
		}
		state.mark(snap)
		if f.matches(snap) {
			*out = append(*out, snap)
		}
		if f.clones {
			for _, clone := range snap.clones {
				clone.iterInto(f, state, out)
			}
		}
	}
	for _, child := range d.childList() {
		child.iterInto(f, state, out)
	}
}

// walk is the two-phase descent helper behind every recursive engine
// operation: check runs over all targets first, and only when the
// whole check pass succeeds does the do pass mutate. filter, when
// non-nil, narrows targets before both passes.
func walk(targets []*Dataset, filter func(*Dataset) bool, check, do func(*Dataset) error) error {
	if filter != nil {
		kept := targets[:0:0]
		for _, t := range targets {
			if filter(t) {
				kept = append(kept, t)
			}
		}
		targets = kept
	}
	if check != nil {
		for _, t := range targets {
			if err := check(t); err != nil {
				return err
			}
		}
	}
	for _, t := range targets {
		if err := do(t); err != nil {
			return err
		}
	}
	return nil
}
