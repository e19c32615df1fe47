package overlay

import (
	"fmt"
	"image"

	"github.com/carbocation/pfx"
	"github.com/carbocation/segiou/iou"
)

// GridFromImage decodes an ID-encoded image (where each pixel is #010101 for
// ID 1, #020202 for ID 2 etc) into a label grid.
func GridFromImage(img image.Image) (iou.Grid, error) {
	b := img.Bounds()
	grid := iou.NewGrid(b.Dx(), b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			id, err := LabeledPixelToID(img.At(x, y))
			if err != nil {
				return iou.Grid{}, pfx.Err(fmt.Errorf("pixel (%d, %d): %w", x, y, err))
			}

			grid.Set(x-b.Min.X, y-b.Min.Y, id)
		}
	}

	return grid, nil
}

// MasksFromImage decodes a region-selector image, in which each pixel carries
// the ID of the region it belongs to, into one mask per label of the label map
// that occurs in the image.
func (l LabelMap) MasksFromImage(img image.Image) (map[uint32]iou.Mask, error) {
	grid, err := GridFromImage(img)
	if err != nil {
		return nil, err
	}

	return l.MasksFromGrid(grid), nil
}

// MasksFromGrid selects each label of the label map that occurs in grid.
// Labels absent from the grid get no mask, so they are not scored.
func (l LabelMap) MasksFromGrid(grid iou.Grid) map[uint32]iou.Mask {
	known := make(map[uint32]struct{}, len(l))
	for _, id := range l.IDs() {
		known[id] = struct{}{}
	}

	out := make(map[uint32]iou.Mask)
	for _, id := range grid.Unique() {
		if _, exists := known[id]; !exists {
			continue
		}
		out[id] = grid.Equal(id)
	}

	return out
}

// CheckGrid makes sure that every pixel of the grid carries a known label.
func (l LabelMap) CheckGrid(grid iou.Grid) error {
	known := make(map[uint32]struct{}, len(l))
	for _, id := range l.IDs() {
		known[id] = struct{}{}
	}

	for _, id := range grid.Unique() {
		if _, exists := known[id]; !exists {
			return pfx.Err(fmt.Errorf("Saw ID %d but could not find this ID in the label map", id))
		}
	}

	return nil
}
