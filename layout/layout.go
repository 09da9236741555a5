// Package layout plans zpool vdev layouts from a disk inventory. It
// is a pure function over the inventory: no probing, no engine state.
// Disks are bucketed by rounded capacity, SSDs are peeled off for log
// and cache duty, and the chosen (or auto-chosen) layout shapes the
// rest into storage vdevs.
package layout

import (
	"fmt"
	"sort"
)

// Layouts.
const (
	LayoutSingle = "single"
	LayoutMirror = "mirror"
	LayoutRaidz2 = "raidz2"
)

// capacityThresholdsMB are the bucket centers, largest first. A disk
// within ±5% of a threshold is treated as having exactly that
// capacity, so mixed-vendor disks of nominally equal size land in one
// bucket.
var capacityThresholdsMB = []int64{500000, 150000, 80000, 20000, 4500, 1000}

const capacityWindow = 0.05

// Disk describes one inventory entry. Size is in megabytes.
type Disk struct {
	Name       string `json:"name"`
	VID        string `json:"vid"`
	PID        string `json:"pid"`
	Size       int64  `json:"size"`
	Type       string `json:"type"`
	Removable  bool   `json:"removable"`
	SolidState bool   `json:"solid_state"`
}

// Vdev is one storage group in the resulting pool.
type Vdev struct {
	Type  string   `json:"type"` // disk, mirror, raidz2
	Disks []string `json:"disks"`
}

// Plan is the planner's result: the storage vdevs, the usable
// capacity in MB, and any disks assigned to spare, log, or cache
// duty.
type Plan struct {
	Layout   string   `json:"layout"`
	Vdevs    []Vdev   `json:"vdevs"`
	Capacity int64    `json:"capacity"`
	Spares   []string `json:"spares,omitempty"`
	Logs     *Vdev    `json:"logs,omitempty"`
	Cache    []string `json:"cache,omitempty"`
}

// roundCapacity snaps a size to the nearest threshold when it falls
// inside the acceptance window.
func roundCapacity(sizeMB int64) int64 {
	for _, t := range capacityThresholdsMB {
		lo := float64(t) * (1 - capacityWindow)
		hi := float64(t) * (1 + capacityWindow)
		if float64(sizeMB) >= lo && float64(sizeMB) <= hi {
			return t
		}
	}
	return sizeMB
}

// autoLayout picks a layout from the storage disk count: single for
// one disk, mirror up to sixteen, raidz2 beyond.
func autoLayout(n int) string {
	switch {
	case n <= 1:
		return LayoutSingle
	case n <= 16:
		return LayoutMirror
	default:
		return LayoutRaidz2
	}
}

// splitRoles peels special-duty disks off the inventory. When the
// inventory mixes SSDs and spinning disks, the first four SSDs serve
// the pool rather than store data: two as a mirrored log, two as
// cache. Any further SSDs, or an all-SSD inventory, store data.
func splitRoles(disks []Disk) (storage []Disk, logs, cache []string) {
	var ssds, spinning []Disk
	for _, d := range disks {
		if d.Removable {
			continue
		}
		if d.SolidState {
			ssds = append(ssds, d)
		} else {
			spinning = append(spinning, d)
		}
	}
	if len(spinning) == 0 {
		return ssds, nil, nil
	}
	storage = spinning
	for i, d := range ssds {
		switch {
		case i < 2:
			logs = append(logs, d.Name)
		case i < 4:
			cache = append(cache, d.Name)
		default:
			storage = append(storage, d)
		}
	}
	return storage, logs, cache
}

// bucketize groups storage disks by rounded capacity and returns the
// largest group; leftovers become spares. Ties go to the bigger
// capacity.
func bucketize(disks []Disk) (chosen []Disk, spares []string) {
	buckets := map[int64][]Disk{}
	for _, d := range disks {
		c := roundCapacity(d.Size)
		buckets[c] = append(buckets[c], d)
	}
	caps := make([]int64, 0, len(buckets))
	for c := range buckets {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool {
		if len(buckets[caps[i]]) != len(buckets[caps[j]]) {
			return len(buckets[caps[i]]) > len(buckets[caps[j]])
		}
		return caps[i] > caps[j]
	})
	if len(caps) == 0 {
		return nil, nil
	}
	chosen = buckets[caps[0]]
	for _, c := range caps[1:] {
		for _, d := range buckets[c] {
			spares = append(spares, d.Name)
		}
	}
	return chosen, spares
}

func diskNames(disks []Disk) []string {
	out := make([]string, len(disks))
	for i, d := range disks {
		out[i] = d.Name
	}
	return out
}

// PlanLayout computes a pool layout for the inventory. name may be empty,
// in which case the layout is chosen from the storage disk count.
func PlanLayout(disks []Disk, name string) (*Plan, error) {
	storage, logs, cache := splitRoles(disks)
	storage, spares := bucketize(storage)
	if len(storage) == 0 {
		return nil, fmt.Errorf("no usable storage disks in inventory")
	}
	perDisk := roundCapacity(storage[0].Size)

	if name == "" {
		name = autoLayout(len(storage))
	}
	p := &Plan{Layout: name, Spares: spares, Cache: cache}
	if len(logs) > 0 {
		p.Logs = &Vdev{Type: LayoutMirror, Disks: logs}
	}

	switch name {
	case LayoutSingle:
		p.Vdevs = []Vdev{{Type: "disk", Disks: diskNames(storage[:1])}}
		p.Capacity = perDisk
		for _, d := range storage[1:] {
			p.Spares = append(p.Spares, d.Name)
		}
	case LayoutMirror:
		for i := 0; i+1 < len(storage); i += 2 {
			p.Vdevs = append(p.Vdevs, Vdev{Type: LayoutMirror, Disks: diskNames(storage[i : i+2])})
			p.Capacity += perDisk
		}
		if len(storage)%2 == 1 {
			p.Spares = append(p.Spares, storage[len(storage)-1].Name)
		}
		if len(p.Vdevs) == 0 {
			return nil, fmt.Errorf("mirror layout needs at least 2 disks, have %d", len(storage))
		}
	case LayoutRaidz2:
		if len(storage) < 4 {
			return nil, fmt.Errorf("raidz2 layout needs at least 4 disks, have %d", len(storage))
		}
		p.Vdevs = []Vdev{{Type: LayoutRaidz2, Disks: diskNames(storage)}}
		p.Capacity = perDisk * int64(len(storage)-2)
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
	return p, nil
}
