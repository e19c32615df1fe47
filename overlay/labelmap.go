package overlay

import (
	"sort"
)

// A Label tracks the segmentation ID with the human-identifiable Label and
// human-interpretable color (in RGB hex, e.g., #FF0000 for red).
type Label struct {
	Label     string
	ID        uint   `json:"id"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order,omitempty"`
}

// LabelMap ([string label name]Label) keeps track of the relationship between
// human-visible names and the segmentation ID of that label.
type LabelMap map[string]Label

// Valid ensures that the LabelMap is valid by testing that it is bijective. If
// not, it's invalid.
func (l LabelMap) Valid() bool {
	inverse := make(map[uint]string)
	for k, v := range l {
		inverse[v.ID] = k
	}

	return len(l) == len(inverse)
}

func (l LabelMap) Sorted() []Label {
	out := make([]Label, 0, len(l))

	for k, v := range l {
		v.Label = k
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		// If SortOrder is defined and different, use it:
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}

		// If SortOrder is not defined, or is the same for two values, drop down
		// to the ID field for sorting
		return out[i].ID < out[j].ID
	})

	return out
}

// IDs returns the label IDs in sorted order.
func (l LabelMap) IDs() []uint32 {
	out := make([]uint32, 0, len(l))
	for _, v := range l.Sorted() {
		out = append(out, uint32(v.ID))
	}

	return out
}

// ByID looks up a label by its segmentation ID.
func (l LabelMap) ByID(id uint32) (Label, bool) {
	for k, v := range l {
		if uint32(v.ID) == id {
			v.Label = k
			return v, true
		}
	}

	return Label{}, false
}
