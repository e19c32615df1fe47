package iou

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ComputeIoU returns the intersection over union of two 0/1 valued arrays. If
// neither array selects any element, the union is empty and the IoU is 0.
func ComputeIoU(groundTruth, prediction []float64) (float64, error) {
	if len(groundTruth) != len(prediction) {
		return 0, fmt.Errorf("%w: ground truth has %d elements, prediction has %d", ErrShapeMismatch, len(groundTruth), len(prediction))
	}

	// With 0/1 inputs the dot product counts the elements set in both.
	intersection := floats.Dot(groundTruth, prediction)
	union := floats.Sum(groundTruth) + floats.Sum(prediction) - intersection

	if union == 0 {
		return 0, nil
	}

	return intersection / union, nil
}
