package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/segiou/iou"
	"github.com/carbocation/segiou/overlay"
	"github.com/montanaflynn/stats"
)

// writeSummary reduces the merged accumulators. With the "none" reduction,
// the spread of the scores is reported for every key as well.
func writeSummary(w io.Writer, final *shard, labels overlay.LabelMap) error {
	if _, err := fmt.Fprintln(w, strings.Join([]string{"metric", "reduction", "key", "label", "n", "mean", "sd", "elements"}, "\t")); err != nil {
		return err
	}

	instance, err := final.instance.Reduce()
	if err != nil {
		return err
	}

	// Each InstanceIoU key holds a single sample, so the spread is across
	// samples rather than within a key.
	perSample := make([]float64, 0, len(instance.Values))
	for _, key := range instance.Keys() {
		perSample = append(perSample, instance.Values[key]...)
	}
	if err := writeSummaryLine(w, "InstanceIoU", instance, "all", "all", perSample, instance.Mean, -1); err != nil {
		return err
	}

	if final.masked == nil {
		return nil
	}

	masked, err := final.masked.Reduce()
	if err != nil {
		return err
	}

	all := make([]float64, 0)
	for _, key := range masked.Keys() {
		values := masked.Values[key]
		all = append(all, values...)

		name := "unknown"
		if label, exists := labels.ByID(uint32(key)); exists {
			name = label.Label
		}

		if err := writeSummaryLine(w, "MaskedIoU", masked, fmt.Sprint(key), name, values, masked.KeyMean(key), masked.Totals[key]); err != nil {
			return err
		}
	}

	return writeSummaryLine(w, "MaskedIoU", masked, "all", "all", all, masked.Mean, -1)
}

// writeSummaryLine prints one reduced metric. values may be empty when the
// reduction does not expose per-key scores, in which case n and sd are NA;
// sd is also NA for a single value.
// Negative element counts are printed as NA.
func writeSummaryLine(w io.Writer, metric string, summary iou.Summary, key, label string, values []float64, mean float64, elements int64) error {
	n, sd := "NA", "NA"

	if len(values) > 0 {
		n = fmt.Sprint(len(values))
	}

	if len(values) > 1 {
		s, err := stats.StandardDeviationSample(stats.Float64Data(values))
		if err != nil {
			return err
		}
		sd = fmt.Sprintf("%.4f", s)
	}

	el := "NA"
	if elements >= 0 {
		el = fmt.Sprint(elements)
	}

	_, err := fmt.Fprintln(w, strings.Join([]string{metric, summary.Reduction.String(), key, label, n, fmt.Sprintf("%.4f", mean), sd, el}, "\t"))
	return err
}
