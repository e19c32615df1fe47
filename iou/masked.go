package iou

import (
	"fmt"
	"sort"

	"github.com/carbocation/pfx"
)

// Selection decides how MaskedIoU derives the region it scores for a label.
type Selection uint8

const (
	// SelectByLabel scores the elements of each map equal to the label.
	SelectByLabel Selection = iota + 1

	// SelectByMask scores the nonzero elements of each map that fall inside
	// the label's region selector.
	SelectByMask
)

func (s Selection) String() string {
	switch s {
	case SelectByLabel:
		return "match_label"
	case SelectByMask:
		return "match_mask"
	}

	return fmt.Sprintf("Selection(%d)", uint8(s))
}

// SelectionFromFlags resolves the match_label and match_mask configuration
// flags. Exactly one of them must be set.
func SelectionFromFlags(matchLabel, matchMask bool) (Selection, error) {
	switch {
	case matchLabel && matchMask:
		return 0, pfx.Err(fmt.Errorf("match_label and match_mask are mutually exclusive; set only one"))
	case matchLabel:
		return SelectByLabel, nil
	case matchMask:
		return SelectByMask, nil
	}

	return 0, pfx.Err(fmt.Errorf("one of match_label or match_mask must be set"))
}

// MaskedIoU records one IoU per label per sample, for every label that has a
// region selector in the sample's Masks. It also tracks how many elements
// were scored for each label.
type MaskedIoU struct {
	scoreAccumulator

	selection Selection
}

var _ Metric = (*MaskedIoU)(nil)

func NewMaskedIoU(selection Selection, reduction Reduction, ignoreLabels ...uint32) (*MaskedIoU, error) {
	if selection != SelectByLabel && selection != SelectByMask {
		return nil, pfx.Err(fmt.Errorf("unknown selection %s", selection))
	}

	acc, err := newScoreAccumulator(reduction, ignoreLabels)
	if err != nil {
		return nil, err
	}

	return &MaskedIoU{scoreAccumulator: acc, selection: selection}, nil
}

func (m *MaskedIoU) Selection() Selection {
	return m.selection
}

type labelScore struct {
	label    uint32
	score    float64
	elements int64
}

// Add scores every non-ignored label in sample.Masks. Nothing is recorded if
// any label fails to score.
func (m *MaskedIoU) Add(sample Sample) error {
	m.isValid = false

	labels := make([]uint32, 0, len(sample.Masks))
	for label := range sample.Masks {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	scored := make([]labelScore, 0, len(labels))

	for _, label := range labels {
		if m.Ignore(label) {
			continue
		}

		truthMask, predictionMask, err := m.selectRegion(label, sample)
		if err != nil {
			return err
		}

		prediction := predictionMask.Binarize()
		score, err := ComputeIoU(truthMask.Binarize(), prediction)
		if err != nil {
			return err
		}

		scored = append(scored, labelScore{label: label, score: score, elements: int64(len(prediction))})
	}

	for _, v := range scored {
		key := int(v.label)
		m.values[key] = append(m.values[key], v.score)
		m.totals[key] += v.elements
	}

	return nil
}

func (m *MaskedIoU) selectRegion(label uint32, sample Sample) (truth, prediction Mask, err error) {
	if m.selection == SelectByLabel {
		return sample.GroundTruth.Equal(label), sample.Prediction.Equal(label), nil
	}

	region := sample.Masks[label]

	truth, err = region.And(sample.GroundTruth.Nonzero())
	if err != nil {
		return nil, nil, err
	}

	prediction, err = region.And(sample.Prediction.Nonzero())
	if err != nil {
		return nil, nil, err
	}

	return truth, prediction, nil
}

// Total is the number of elements scored so far for label.
func (m *MaskedIoU) Total(label uint32) int64 {
	return m.totals[int(label)]
}

// Merge appends other's per-label scores to m's and sums the element totals.
func (m *MaskedIoU) Merge(other *MaskedIoU) error {
	if err := m.compatible(&other.scoreAccumulator); err != nil {
		return err
	}
	if m.selection != other.selection {
		return pfx.Err(fmt.Errorf("cannot merge selection %s into %s", other.selection, m.selection))
	}

	m.isValid = false

	for key, scores := range other.values {
		m.values[key] = append(m.values[key], scores...)
	}
	for key, total := range other.totals {
		m.totals[key] += total
	}

	return nil
}
