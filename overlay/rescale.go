package overlay

import (
	"image"

	"github.com/disintegration/imaging"
)

// RescaleToBounds resizes an ID-encoded image to the dimensions of bounds.
// Nearest-neighbor sampling is used so that no new label IDs are invented at
// region borders.
func RescaleToBounds(img image.Image, bounds image.Rectangle) image.Image {
	if img.Bounds().Dx() == bounds.Dx() && img.Bounds().Dy() == bounds.Dy() {
		return img
	}

	return imaging.Resize(img, bounds.Dx(), bounds.Dy(), imaging.NearestNeighbor)
}
