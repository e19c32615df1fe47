package iou

import (
	"fmt"
	"sort"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/stat"
)

// Reduction selects how accumulated scores are combined by Reduce.
type Reduction uint8

const (
	// ReductionMean averages every recorded score, across all keys.
	ReductionMean Reduction = iota

	// ReductionNone returns the per-key scores themselves.
	ReductionNone
)

func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionNone:
		return "none"
	}

	return fmt.Sprintf("Reduction(%d)", uint8(r))
}

func (r Reduction) valid() bool {
	return r == ReductionMean || r == ReductionNone
}

// ParseReduction maps the configuration name of a reduction to its value.
func ParseReduction(name string) (Reduction, error) {
	switch name {
	case "mean":
		return ReductionMean, nil
	case "none":
		return ReductionNone, nil
	}

	return 0, pfx.Err(fmt.Errorf("unknown reduction %q: expected \"mean\" or \"none\"", name))
}

// Sample is one (prediction, ground truth) pair. Masks maps a label to the
// region selector used by MaskedIoU, and is ignored by InstanceIoU.
type Sample struct {
	Prediction  Grid
	GroundTruth Grid
	Masks       map[uint32]Mask
}

// Metric is implemented by the accumulating IoU metrics. Implementations are
// not safe for concurrent use; shard one per goroutine and merge.
type Metric interface {
	Add(sample Sample) error
	Reduce() (Summary, error)
}

// Summary is the result of reducing a metric. Values and Totals are only
// populated when Reduction is ReductionNone.
type Summary struct {
	Reduction Reduction
	Mean      float64
	Values    map[int][]float64
	Totals    map[int]int64
}

// Keys returns the keys of Values in ascending order.
func (s Summary) Keys() []int {
	return sortedKeys(s.Values)
}

// KeyMean is the mean of the scores recorded under key, or 0 if there are none.
func (s Summary) KeyMean(key int) float64 {
	return meanOrZero(s.Values[key])
}

// scoreAccumulator holds the running state shared by every metric.
type scoreAccumulator struct {
	values       map[int][]float64
	totals       map[int]int64
	ignoreLabels map[uint32]struct{}
	reduction    Reduction

	// isValid reports whether mean reflects the current values.
	isValid bool
	mean    float64
}

func newScoreAccumulator(reduction Reduction, ignoreLabels []uint32) (scoreAccumulator, error) {
	if !reduction.valid() {
		return scoreAccumulator{}, pfx.Err(fmt.Errorf("unknown reduction %s", reduction))
	}

	ignore := make(map[uint32]struct{}, len(ignoreLabels))
	for _, label := range ignoreLabels {
		ignore[label] = struct{}{}
	}

	return scoreAccumulator{
		values:       make(map[int][]float64),
		totals:       make(map[int]int64),
		ignoreLabels: ignore,
		reduction:    reduction,
	}, nil
}

// Ignore reports whether label is excluded from scoring.
func (s *scoreAccumulator) Ignore(label uint32) bool {
	_, exists := s.ignoreLabels[label]
	return exists
}

// Valid reports whether the cached reduction is current.
func (s *scoreAccumulator) Valid() bool {
	return s.isValid
}

// Len is the number of keys that have recorded at least one score.
func (s *scoreAccumulator) Len() int {
	return len(s.values)
}

func (s *scoreAccumulator) Reduction() Reduction {
	return s.reduction
}

// Reduce summarizes the recorded scores. It never modifies them.
func (s *scoreAccumulator) Reduce() (Summary, error) {
	if !s.isValid {
		flat := make([]float64, 0, len(s.values))
		for _, key := range sortedKeys(s.values) {
			flat = append(flat, s.values[key]...)
		}
		s.mean = meanOrZero(flat)
		s.isValid = true
	}

	out := Summary{Reduction: s.reduction, Mean: s.mean}

	switch s.reduction {
	case ReductionMean:
	case ReductionNone:
		out.Values = make(map[int][]float64, len(s.values))
		for k, v := range s.values {
			out.Values[k] = append([]float64(nil), v...)
		}
		out.Totals = make(map[int]int64, len(s.totals))
		for k, v := range s.totals {
			out.Totals[k] = v
		}
	default:
		return Summary{}, pfx.Err(fmt.Errorf("unknown reduction %s", s.reduction))
	}

	return out, nil
}

// compatible checks that two shards ignore the same labels, so that merging
// them is meaningful. The receiver's reduction governs the merged result.
func (s *scoreAccumulator) compatible(other *scoreAccumulator) error {
	if len(s.ignoreLabels) != len(other.ignoreLabels) {
		return pfx.Err(fmt.Errorf("cannot merge accumulators with different ignored labels"))
	}
	for label := range other.ignoreLabels {
		if !s.Ignore(label) {
			return pfx.Err(fmt.Errorf("cannot merge accumulators with different ignored labels: %d", label))
		}
	}

	return nil
}

func sortedKeys(m map[int][]float64) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)

	return out
}

func meanOrZero(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return stat.Mean(x, nil)
}
