package domain

import (
	"reflect"
	"sort"
)

// WisdomDiff lists the keys a stage added, changed or removed.
type WisdomDiff struct {
	Added   []string `json:"added,omitempty"`
	Changed []string `json:"changed,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between two Wisdom values.
// It returns nil when nothing changed.
func Diff(old, new Wisdom) *WisdomDiff {
	diff := &WisdomDiff{}

	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists {
			diff.Added = append(diff.Added, k)
		} else if !reflect.DeepEqual(oldVal, newVal) {
			diff.Changed = append(diff.Changed, k)
		}
	}
	for k := range old {
		if _, exists := new[k]; !exists {
			diff.Removed = append(diff.Removed, k)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Removed)
	return diff
}

// IsEmpty checks if the diff contains any changes.
func (d *WisdomDiff) IsEmpty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0)
}
