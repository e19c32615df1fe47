package iou

// InstanceIoU scores each sample as the mean IoU over the labels present in
// its ground truth, and records one score per sample under the sample's
// sequence index (0, 1, 2, ...).
type InstanceIoU struct {
	scoreAccumulator
}

var _ Metric = (*InstanceIoU)(nil)

func NewInstanceIoU(reduction Reduction, ignoreLabels ...uint32) (*InstanceIoU, error) {
	acc, err := newScoreAccumulator(reduction, ignoreLabels)
	if err != nil {
		return nil, err
	}

	return &InstanceIoU{scoreAccumulator: acc}, nil
}

// Add scores one sample. A ground truth with no scorable labels gets a score
// of 0 rather than being skipped.
func (m *InstanceIoU) Add(sample Sample) error {
	m.isValid = false

	scores := make([]float64, 0)

	for _, label := range sample.GroundTruth.Unique() {
		if m.Ignore(label) {
			continue
		}

		score, err := ComputeIoU(sample.GroundTruth.Equal(label).Binarize(), sample.Prediction.Equal(label).Binarize())
		if err != nil {
			return err
		}
		scores = append(scores, score)
	}

	m.values[len(m.values)] = []float64{meanOrZero(scores)}

	return nil
}

// Merge appends the samples recorded by other after those already recorded by
// m, keeping other's order.
func (m *InstanceIoU) Merge(other *InstanceIoU) error {
	if err := m.compatible(&other.scoreAccumulator); err != nil {
		return err
	}

	m.isValid = false

	for _, key := range sortedKeys(other.values) {
		m.values[len(m.values)] = append([]float64(nil), other.values[key]...)
	}

	return nil
}
