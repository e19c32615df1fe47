package iou

import (
	"errors"
	"fmt"
	"sort"
)

// ErrShapeMismatch is returned when two arrays that are scored against each
// other do not cover the same number of elements.
var ErrShapeMismatch = errors.New("shape mismatch")

// Grid is a label map: each element holds the ID of the label assigned to that
// pixel. Labels are stored row-major.
type Grid struct {
	Width  int
	Height int
	Labels []uint32
}

func NewGrid(width, height int) Grid {
	return Grid{
		Width:  width,
		Height: height,
		Labels: make([]uint32, width*height),
	}
}

// GridFromRows builds a Grid from a slice of equal-length rows.
func GridFromRows(rows [][]uint32) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, nil
	}

	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.Width {
			return Grid{}, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShapeMismatch, y, len(row), g.Width)
		}
		copy(g.Labels[y*g.Width:], row)
	}

	return g, nil
}

func (g Grid) Len() int {
	return len(g.Labels)
}

func (g Grid) At(x, y int) uint32 {
	return g.Labels[y*g.Width+x]
}

func (g Grid) Set(x, y int, label uint32) {
	g.Labels[y*g.Width+x] = label
}

// Equal selects the elements assigned to label.
func (g Grid) Equal(label uint32) Mask {
	out := make(Mask, len(g.Labels))
	for i, v := range g.Labels {
		out[i] = v == label
	}

	return out
}

// Nonzero selects every element that is not background (ID 0).
func (g Grid) Nonzero() Mask {
	out := make(Mask, len(g.Labels))
	for i, v := range g.Labels {
		out[i] = v != 0
	}

	return out
}

// Unique returns the distinct labels present in the grid, in ascending order.
func (g Grid) Unique() []uint32 {
	seen := make(map[uint32]struct{})
	for _, v := range g.Labels {
		seen[v] = struct{}{}
	}

	out := make([]uint32, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Mask marks the elements belonging to a region of interest.
type Mask []bool

// And intersects two masks of the same length.
func (m Mask) And(other Mask) (Mask, error) {
	if len(m) != len(other) {
		return nil, fmt.Errorf("%w: mask has %d elements, other has %d", ErrShapeMismatch, len(m), len(other))
	}

	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] && other[i]
	}

	return out, nil
}

// Count is the number of selected elements.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}

	return n
}

// Binarize converts the mask into its numeric 0/1 form.
func (m Mask) Binarize() []float64 {
	out := make([]float64, len(m))
	for i, v := range m {
		if v {
			out[i] = 1
		}
	}

	return out
}
