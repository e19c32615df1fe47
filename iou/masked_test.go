package iou

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSelectionFromFlags(t *testing.T) {
	for _, v := range []struct {
		matchLabel, matchMask bool
		expected              Selection
		fails                 bool
	}{
		{true, false, SelectByLabel, false},
		{false, true, SelectByMask, false},
		{true, true, 0, true},
		{false, false, 0, true},
	} {
		got, err := SelectionFromFlags(v.matchLabel, v.matchMask)
		if (err != nil) != v.fails {
			t.Errorf("%+v: unexpected error state %v", v, err)
			continue
		}
		if got != v.expected {
			t.Errorf("%+v: got %s", v, got)
		}
	}
}

func TestMaskedIoUMatchLabelIgnore(t *testing.T) {
	m, err := NewMaskedIoU(SelectByLabel, ReductionNone, 2)
	if err != nil {
		t.Fatal(err)
	}

	truth := mustGrid(t, [][]uint32{{1, 2}, {2, 1}})
	if err := m.Add(Sample{
		GroundTruth: truth,
		Prediction:  truth,
		Masks: map[uint32]Mask{
			1: truth.Equal(1),
			2: truth.Equal(2),
		},
	}); err != nil {
		t.Fatal(err)
	}

	s, err := m.Reduce()
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(map[int][]float64{1: {1}}, s.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]int64{1: 4}, s.Totals); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}
}

func TestMaskedIoUMatchMask(t *testing.T) {
	m, err := NewMaskedIoU(SelectByMask, ReductionNone)
	if err != nil {
		t.Fatal(err)
	}

	sample := Sample{
		GroundTruth: mustGrid(t, [][]uint32{{1, 1}, {0, 0}}),
		Prediction:  mustGrid(t, [][]uint32{{1, 0}, {1, 0}}),
		Masks: map[uint32]Mask{
			1: {true, true, true, true},
			2: {false, false, true, true},
		},
	}

	for i := 0; i < 2; i++ {
		if err := m.Add(sample); err != nil {
			t.Fatal(err)
		}
		if m.Valid() {
			t.Error("Add left the cache valid")
		}
	}

	s, err := m.Reduce()
	if err != nil {
		t.Fatal(err)
	}

	expected := map[int][]float64{
		1: {1.0 / 3.0, 1.0 / 3.0},
		2: {0, 0},
	}
	if diff := cmp.Diff(expected, s.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
	if m.Total(1) != 8 || m.Total(2) != 8 {
		t.Errorf("Totals after two calls: %v", s.Totals)
	}
	if math.Abs(s.Mean-1.0/6.0) > 1e-12 {
		t.Errorf("Mean %g, expected 1/6", s.Mean)
	}
}

func TestMaskedIoUMatchMaskIgnore(t *testing.T) {
	m, err := NewMaskedIoU(SelectByMask, ReductionNone, 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Add(Sample{
		GroundTruth: mustGrid(t, [][]uint32{{1, 1}, {0, 0}}),
		Prediction:  mustGrid(t, [][]uint32{{1, 0}, {1, 0}}),
		Masks: map[uint32]Mask{
			1: {true, true, true, true},
			2: {false, false, true, true},
		},
	}); err != nil {
		t.Fatal(err)
	}

	s, err := m.Reduce()
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(map[int][]float64{1: {1.0 / 3.0}}, s.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]int64{1: 4}, s.Totals); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}
	if m.Total(2) != 0 {
		t.Errorf("ignored label 2 has a total of %d", m.Total(2))
	}
}

func TestMaskedIoUEmptyMasks(t *testing.T) {
	m, err := NewMaskedIoU(SelectByMask, ReductionMean)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reduce(); err != nil {
		t.Fatal(err)
	}

	if err := m.Add(Sample{GroundTruth: mustGrid(t, [][]uint32{{1}}), Prediction: mustGrid(t, [][]uint32{{1}})}); err != nil {
		t.Fatal(err)
	}

	if m.Valid() {
		t.Error("Add with no masks must still invalidate the cache")
	}
	if m.Len() != 0 {
		t.Errorf("recorded %d labels with no masks", m.Len())
	}
}

func TestMaskedIoUMismatchRecordsNothing(t *testing.T) {
	m, err := NewMaskedIoU(SelectByMask, ReductionNone)
	if err != nil {
		t.Fatal(err)
	}

	err = m.Add(Sample{
		GroundTruth: mustGrid(t, [][]uint32{{1, 1}}),
		Prediction:  mustGrid(t, [][]uint32{{1, 1}}),
		Masks: map[uint32]Mask{
			1: {true, true},
			2: {true},
		},
	})
	if err == nil {
		t.Fatal("expected a shape mismatch")
	}
	if m.Len() != 0 || m.Total(1) != 0 {
		t.Error("a failed Add must not record partial results")
	}
}

func TestMaskedIoUMerge(t *testing.T) {
	a, _ := NewMaskedIoU(SelectByLabel, ReductionNone)
	b, _ := NewMaskedIoU(SelectByLabel, ReductionNone)

	truth := mustGrid(t, [][]uint32{{1, 2}})
	sample := Sample{GroundTruth: truth, Prediction: truth, Masks: map[uint32]Mask{1: nil, 2: nil}}

	if err := a.Add(sample); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(sample); err != nil {
		t.Fatal(err)
	}
	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}

	s, err := a.Reduce()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[int][]float64{1: {1, 1}, 2: {1, 1}}, s.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]int64{1: 4, 2: 4}, s.Totals); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}

	c, _ := NewMaskedIoU(SelectByMask, ReductionNone)
	if err := a.Merge(c); err == nil {
		t.Error("merging different selections should fail")
	}
}
