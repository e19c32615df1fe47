package overlay

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/segiou"
	"github.com/carbocation/segiou/iou"
	_ "golang.org/x/image/bmp"
)

// RLESuffix marks label grids stored with EncodeGridToRLE rather than as
// images.
const RLESuffix = ".rle"

// ImageFromBytes creates an image from the specified bytes. Must be PNG, GIF,
// BMP, or JPEG formatted (based on the decoders we have imported).
func ImageFromBytes(imgBytes []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(imgBytes))

	return img, err
}

func OpenImageFromLocalFileOrGoogleStorage(filePath string, storageClient *storage.Client) (image.Image, error) {
	// The image decoder swallows errors, so we won't see i/o errors if they
	// happen during image decoding. To capture these, we read the full image
	// into memory first.
	imgBytes, err := segiou.ReadAllFromLocalFileOrGoogleStorage(filePath, storageClient)
	if err != nil {
		return nil, err
	}

	return ImageFromBytes(imgBytes)
}

// OpenGrid loads a label grid from an ID-encoded image or, if the path ends in
// RLESuffix, from a run-length encoded file.
func OpenGrid(filePath string, storageClient *storage.Client) (iou.Grid, error) {
	if strings.HasSuffix(filePath, RLESuffix) {
		rleBytes, err := segiou.ReadAllFromLocalFileOrGoogleStorage(filePath, storageClient)
		if err != nil {
			return iou.Grid{}, err
		}

		return DecodeGridFromRLE(rleBytes)
	}

	img, err := OpenImageFromLocalFileOrGoogleStorage(filePath, storageClient)
	if err != nil {
		return iou.Grid{}, pfx.Err(err)
	}

	return GridFromImage(img)
}

// OpenGridRescaled loads a label grid like OpenGrid, resizing images with
// nearest-neighbor sampling to width x height. Run-length encoded grids are
// never resampled; a size mismatch is an error.
func OpenGridRescaled(filePath string, storageClient *storage.Client, width, height int) (iou.Grid, error) {
	if strings.HasSuffix(filePath, RLESuffix) {
		grid, err := OpenGrid(filePath, storageClient)
		if err != nil {
			return grid, err
		}
		if grid.Width != width || grid.Height != height {
			return iou.Grid{}, pfx.Err(fmt.Errorf("%s is %dx%d and RLE grids cannot be rescaled to %dx%d", filePath, grid.Width, grid.Height, width, height))
		}
		return grid, nil
	}

	img, err := OpenImageFromLocalFileOrGoogleStorage(filePath, storageClient)
	if err != nil {
		return iou.Grid{}, pfx.Err(err)
	}

	return GridFromImage(RescaleToBounds(img, image.Rect(0, 0, width, height)))
}
