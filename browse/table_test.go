package browse

import (
	"strings"
	"testing"

	"github.com/rstms/sdfs"
	"github.com/stretchr/testify/require"
)

// fakeVolume serves canned directory listings and files.
type fakeVolume struct {
	dirs      map[string][]sdfs.DirInfo
	files     map[string][]byte
	unmounted bool
}

func (v *fakeVolume) ReadDir(path string) ([]sdfs.DirInfo, error) {
	entries, ok := v.dirs[path]
	if !ok {
		return nil, Fatalf("not found: %s", path)
	}
	return entries, nil
}

func (v *fakeVolume) ReadFile(path string) ([]byte, error) {
	data, ok := v.files[path]
	if !ok {
		return nil, Fatalf("not found: %s", path)
	}
	return data, nil
}

func (v *fakeVolume) Label() string                       { return "FAKE" }
func (v *fakeVolume) VolumeInfo() (uint64, uint64, error) { return 0, 0, nil }
func (v *fakeVolume) Unmount()                            { v.unmounted = true }

func TestTableSortOrder(t *testing.T) {
	volume := &fakeVolume{dirs: map[string][]sdfs.DirInfo{
		"/": {
			{Name: "zebra.txt", Size: 1},
			{Name: "Apps", IsDir: true},
			{Name: "alpha.txt", Size: 2},
			{Name: "music", IsDir: true},
			{Name: "Beta.TXT", Size: 3},
		},
	}}

	var table Table
	table.Load(volume, "/")
	names := []string{}
	for _, entry := range table.Entries() {
		names = append(names, entry.Name)
	}
	require.Equal(t, []string{"Apps", "music", "alpha.txt", "Beta.TXT", "zebra.txt"}, names)
}

func TestTableLoadIdempotent(t *testing.T) {
	volume := &fakeVolume{dirs: map[string][]sdfs.DirInfo{
		"/": {
			{Name: "b", Size: 1},
			{Name: "a", Size: 2},
			{Name: "c", IsDir: true},
		},
	}}

	var first, second Table
	first.Load(volume, "/")
	second.Load(volume, "/")
	require.Equal(t, first.Entries(), second.Entries())
}

func TestTableOverflow(t *testing.T) {
	var records []sdfs.DirInfo
	for i := 0; i < 200; i++ {
		records = append(records, sdfs.DirInfo{Name: strings.Repeat("f", i%30+1)})
	}
	volume := &fakeVolume{dirs: map[string][]sdfs.DirInfo{"/": records}}

	var table Table
	table.Load(volume, "/")
	require.Equal(t, MaxEntries, table.Len())
	require.True(t, table.Truncated())
}

func TestTableNameTruncation(t *testing.T) {
	volume := &fakeVolume{dirs: map[string][]sdfs.DirInfo{
		"/": {{Name: strings.Repeat("n", 60), Size: 9}},
	}}

	var table Table
	table.Load(volume, "/")
	require.Equal(t, 1, table.Len())
	require.Len(t, table.Entries()[0].Name, MaxNameLen)
}

func TestTableLoadFailureEmpties(t *testing.T) {
	volume := &fakeVolume{dirs: map[string][]sdfs.DirInfo{
		"/": {{Name: "x", Size: 1}},
	}}

	var table Table
	table.Load(volume, "/")
	require.Equal(t, 1, table.Len())

	table.Load(volume, "/gone")
	require.Equal(t, 0, table.Len())
}
