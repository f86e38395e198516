package stations

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{"prison unit", "luzira_w@prison.go.ug", "Luzira (W)"},
		{"farm", "kitalya_farm@prison.go.ug", "Kitalya Farm"},
		{"region", "kigezi@prison.go.ug", "KIGEZI"},
		{"redefined key keeps last value", "iganga@prison.go.ug", "Iganga"},
		{"admin is unrestricted", "admin@prison.go.ug", DefaultStation},
		{"phq-kla is unrestricted", "phq-kla@prison.go.ug", DefaultStation},
		{"unknown", "someone@example.com", DefaultStation},
		{"case sensitive", "LUZIRA_W@prison.go.ug", DefaultStation},
		{"no trimming", " luzira_w@prison.go.ug", DefaultStation},
		{"empty", "", DefaultStation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Lookup(tc.identifier))
		})
	}
}

func TestRestricted(t *testing.T) {
	assert.True(t, Restricted("gulu_m@prison.go.ug"))
	assert.False(t, Restricted("admin@prison.go.ug"))
}

func TestAllIsSortedAndComplete(t *testing.T) {
	entries := All()
	require.Len(t, entries, Len())
	assert.True(t, sort.SliceIsSorted(entries, func(i, j int) bool {
		if entries[i].Station != entries[j].Station {
			return entries[i].Station < entries[j].Station
		}
		return entries[i].Identifier < entries[j].Identifier
	}))
	for _, entry := range entries {
		assert.Equal(t, entry.Station, Lookup(entry.Identifier))
	}
}

func TestNamesAreDistinct(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	require.True(t, sort.StringsAreSorted(names))
	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate station %q", name)
		seen[name] = true
	}
	assert.NotContains(t, names, DefaultStation)
}
