package overlay

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/carbocation/segiou/iou"
	"github.com/tj/go-rle"
)

// EncodeGridToRLE run-length encodes a label grid. The width and height lead
// the encoded stream so that the grid can be restored without side
// information.
func EncodeGridToRLE(grid iou.Grid) []byte {
	pixelLabels := make([]int64, 0, grid.Len()+2)
	pixelLabels = append(pixelLabels, int64(grid.Width), int64(grid.Height))

	for _, id := range grid.Labels {
		pixelLabels = append(pixelLabels, int64(id))
	}

	return rle.EncodeInt64(pixelLabels)
}

func DecodeGridFromRLE(rleBytes []byte) (iou.Grid, error) {
	slc, err := rle.DecodeInt64(rleBytes)
	if err != nil {
		return iou.Grid{}, pfx.Err(err)
	}

	if len(slc) < 2 {
		return iou.Grid{}, pfx.Err(fmt.Errorf("RLE stream has %d values; expected at least a width and a height", len(slc)))
	}

	width, height := int(slc[0]), int(slc[1])
	slc = slc[2:]

	if width < 0 || height < 0 || len(slc) != width*height {
		return iou.Grid{}, pfx.Err(fmt.Errorf("RLE stream holds %d pixels, which does not fit %dx%d", len(slc), width, height))
	}

	grid := iou.NewGrid(width, height)
	for i, label := range slc {
		if label < 0 {
			return iou.Grid{}, pfx.Err(fmt.Errorf("negative label %d at pixel %d", label, i))
		}
		grid.Labels[i] = uint32(label)
	}

	return grid, nil
}
