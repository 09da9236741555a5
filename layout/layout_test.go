package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spinning(name string, sizeMB int64) Disk {
	return Disk{Name: name, VID: "ACME", PID: "HD", Size: sizeMB}
}

func ssd(name string, sizeMB int64) Disk {
	return Disk{Name: name, VID: "ACME", PID: "NVME", Size: sizeMB, SolidState: true}
}

func TestRoundCapacity(t *testing.T) {
	tests := []struct {
		in   int64
		want int64
	}{
		{in: 500000, want: 500000},
		{in: 524000, want: 500000}, // within +5%
		{in: 476000, want: 500000}, // within -5%
		{in: 560000, want: 560000}, // outside the window
		{in: 150700, want: 150000},
		{in: 1024, want: 1000},
		{in: 333, want: 333},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundCapacity(tt.in), "roundCapacity(%d)", tt.in)
	}
}

func TestAutoLayoutChoice(t *testing.T) {
	assert.Equal(t, LayoutSingle, autoLayout(1))
	assert.Equal(t, LayoutMirror, autoLayout(2))
	assert.Equal(t, LayoutMirror, autoLayout(16))
	assert.Equal(t, LayoutRaidz2, autoLayout(17))
}

func TestSingleDisk(t *testing.T) {
	p, err := PlanLayout([]Disk{spinning("c0d0", 80000)}, "")
	require.NoError(t, err)
	assert.Equal(t, LayoutSingle, p.Layout)
	require.Len(t, p.Vdevs, 1)
	assert.Equal(t, []string{"c0d0"}, p.Vdevs[0].Disks)
	assert.EqualValues(t, 80000, p.Capacity)
	assert.Empty(t, p.Spares)
	assert.Nil(t, p.Logs)
}

func TestMirrorPairsWithOddSpare(t *testing.T) {
	disks := []Disk{
		spinning("c0d0", 150000), spinning("c0d1", 151000),
		spinning("c0d2", 149000), spinning("c0d3", 150000),
		spinning("c0d4", 150000),
	}
	p, err := PlanLayout(disks, "")
	require.NoError(t, err)
	assert.Equal(t, LayoutMirror, p.Layout)
	require.Len(t, p.Vdevs, 2)
	assert.EqualValues(t, 300000, p.Capacity)
	assert.Equal(t, []string{"c0d4"}, p.Spares)
}

func TestRaidz2(t *testing.T) {
	var disks []Disk
	for i := 0; i < 20; i++ {
		disks = append(disks, spinning(name(i), 20000))
	}
	p, err := PlanLayout(disks, "")
	require.NoError(t, err)
	assert.Equal(t, LayoutRaidz2, p.Layout)
	require.Len(t, p.Vdevs, 1)
	assert.Len(t, p.Vdevs[0].Disks, 20)
	assert.EqualValues(t, 20000*18, p.Capacity)

	_, err = PlanLayout(disks[:3], LayoutRaidz2)
	assert.Error(t, err)
}

func TestFirstFourSSDRule(t *testing.T) {
	disks := []Disk{
		spinning("hd0", 150000), spinning("hd1", 150000),
		ssd("nvme0", 20000), ssd("nvme1", 20000),
		ssd("nvme2", 20000), ssd("nvme3", 20000),
		ssd("nvme4", 150000),
	}
	p, err := PlanLayout(disks, "")
	require.NoError(t, err)
	require.NotNil(t, p.Logs)
	assert.Equal(t, []string{"nvme0", "nvme1"}, p.Logs.Disks)
	assert.Equal(t, []string{"nvme2", "nvme3"}, p.Cache)
	// The fifth SSD joins the spinning pair as a storage disk; with three
	// storage disks in a mirror layout it is the odd one and becomes a spare.
	var stored []string
	for _, v := range p.Vdevs {
		stored = append(stored, v.Disks...)
	}
	assert.Contains(t, append(stored, p.Spares...), "nvme4")
}

func TestAllSSDInventoryStoresData(t *testing.T) {
	p, err := PlanLayout([]Disk{ssd("nvme0", 80000), ssd("nvme1", 80000)}, "")
	require.NoError(t, err)
	assert.Nil(t, p.Logs)
	assert.Empty(t, p.Cache)
	require.Len(t, p.Vdevs, 1)
	assert.Equal(t, []string{"nvme0", "nvme1"}, p.Vdevs[0].Disks)
}

func TestRemovableAndMixedCapacities(t *testing.T) {
	disks := []Disk{
		spinning("hd0", 150000), spinning("hd1", 150000),
		spinning("small", 20000),
		{Name: "usb0", Size: 150000, Removable: true},
	}
	p, err := PlanLayout(disks, "")
	require.NoError(t, err)
	require.Len(t, p.Vdevs, 1)
	assert.Equal(t, []string{"hd0", "hd1"}, p.Vdevs[0].Disks)
	assert.Equal(t, []string{"small"}, p.Spares)

	_, err = PlanLayout([]Disk{{Name: "usb0", Size: 1000, Removable: true}}, "")
	assert.Error(t, err)

	_, err = PlanLayout(disks, "raidz9")
	assert.Error(t, err)
}

func name(i int) string {
	return string(rune('a'+i%26)) + "disk"
}
