package main

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/segiou/iou"
	"github.com/carbocation/segiou/overlay"
	"golang.org/x/sync/errgroup"
)

type evaluator struct {
	config overlay.JSONConfig
	opts   overlay.MetricOptions

	truthPath      string
	predictionPath string
	maskPath       string
	suffix         string
	rescale        bool

	// Safe for concurrent use by multiple goroutines
	client *storage.Client
}

func newEvaluator(config overlay.JSONConfig, truthPath, predictionPath, maskPath, suffix string, rescale bool) (*evaluator, error) {
	opts, err := config.MetricOptions()
	if err != nil {
		return nil, err
	}

	if opts.Masked && opts.Selection == iou.SelectByMask && maskPath == "" {
		return nil, fmt.Errorf("the config sets match_mask, so -masks is required")
	}

	return &evaluator{
		config:         config,
		opts:           opts,
		truthPath:      strings.TrimSuffix(truthPath, "/"),
		predictionPath: strings.TrimSuffix(predictionPath, "/"),
		maskPath:       strings.TrimSuffix(maskPath, "/"),
		suffix:         suffix,
		rescale:        rescale,
	}, nil
}

// shard holds the accumulators owned by a single worker. Accumulators are not
// safe for concurrent use, so each worker gets its own and they are merged at
// the end.
type shard struct {
	instance *iou.InstanceIoU
	masked   *iou.MaskedIoU
}

func (e *evaluator) newShard() (*shard, error) {
	instance, err := e.opts.NewInstanceIoU()
	if err != nil {
		return nil, err
	}

	s := &shard{instance: instance}

	if e.opts.Masked {
		if s.masked, err = e.opts.NewMaskedIoU(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *shard) merge(other *shard) error {
	if err := s.instance.Merge(other.instance); err != nil {
		return err
	}

	if s.masked != nil && other.masked != nil {
		return s.masked.Merge(other.masked)
	}

	return nil
}

// scoredLabels lists the labels that get a masked IoU column.
func (e *evaluator) scoredLabels() []overlay.Label {
	if !e.opts.Masked {
		return nil
	}

	ignore := make(map[uint32]struct{})
	for _, id := range e.opts.IgnoreLabels {
		ignore[id] = struct{}{}
	}

	out := make([]overlay.Label, 0, len(e.config.Labels))
	for _, label := range e.config.Labels.Sorted() {
		if _, ignored := ignore[uint32(label.ID)]; ignored {
			continue
		}
		out = append(out, label)
	}

	return out
}

// run scores every sample with at most concurrency workers, writing one row
// per sample, and returns the merged accumulators. Samples that fail to load
// or score are logged and skipped.
func (e *evaluator) run(samples []string, concurrency int, out *rowWriter) (*shard, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	shards := make(chan *shard, concurrency)
	for i := 0; i < concurrency; i++ {
		s, err := e.newShard()
		if err != nil {
			return nil, err
		}
		shards <- s
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	done := &progress{every: 1000}

	for _, sample := range samples {
		sample := sample

		g.Go(func() error {
			s := <-shards
			defer func() { shards <- s }()
			defer done.increment()

			row, err := e.processWithRetry(sample, s)
			if err != nil {
				log.Printf("%s: %s\n", sample, err)
				return nil
			}

			return out.write(row)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(shards)
	log.Printf("Finished %d of %d samples\n", done.finished(), len(samples))

	final, err := e.newShard()
	if err != nil {
		return nil, err
	}
	for s := range shards {
		if err := final.merge(s); err != nil {
			return nil, err
		}
	}

	return final, nil
}

// processWithRetry handles a specific filesystem error (input/output error)
// that largely happens with GCSFuse, and retries a few times before giving up.
func (e *evaluator) processWithRetry(sample string, s *shard) (sampleRow, error) {
	var row sampleRow
	var err error

	for loadAttempts, maxLoadAttempts := 1, 10; loadAttempts <= maxLoadAttempts; loadAttempts++ {
		row, err = e.processOneSample(sample, s)
		if err == nil || !strings.Contains(err.Error(), "input/output error") {
			break
		}

		log.Println("Sleeping 5s to recover from", err.Error(), ". Attempt #", loadAttempts)
		time.Sleep(5 * time.Second)
	}

	return row, err
}

// sampleRow is the per-sample output: the instance IoU and the masked IoU of
// each scored label, keyed by label ID.
type sampleRow struct {
	sample   string
	instance float64
	labels   map[int]float64
}

func (e *evaluator) path(folder, sample string) string {
	return folder + "/" + sample + e.suffix
}

func (e *evaluator) loadSample(sample string) (iou.Sample, error) {
	truth, err := overlay.OpenGrid(e.path(e.truthPath, sample), e.client)
	if err != nil {
		return iou.Sample{}, fmt.Errorf("ground truth: %w", err)
	}

	if err := e.config.Labels.CheckGrid(truth); err != nil {
		return iou.Sample{}, fmt.Errorf("ground truth: %w", err)
	}

	var prediction iou.Grid
	if e.rescale {
		prediction, err = overlay.OpenGridRescaled(e.path(e.predictionPath, sample), e.client, truth.Width, truth.Height)
	} else {
		prediction, err = overlay.OpenGrid(e.path(e.predictionPath, sample), e.client)
	}
	if err != nil {
		return iou.Sample{}, fmt.Errorf("prediction: %w", err)
	}

	out := iou.Sample{GroundTruth: truth, Prediction: prediction}

	if !e.opts.Masked {
		return out, nil
	}

	if e.opts.Selection == iou.SelectByLabel {
		// Only the label set matters when matching by label: every label
		// present in the ground truth is scored.
		out.Masks = e.config.Labels.MasksFromGrid(truth)
		return out, nil
	}

	if out.Masks, err = e.loadMasks(sample); err != nil {
		return iou.Sample{}, fmt.Errorf("masks: %w", err)
	}

	return out, nil
}

// loadMasks reads the region selectors of a sample, from a run-length encoded
// grid or from an ID-encoded image.
func (e *evaluator) loadMasks(sample string) (map[uint32]iou.Mask, error) {
	maskPath := e.path(e.maskPath, sample)

	if strings.HasSuffix(maskPath, overlay.RLESuffix) {
		regions, err := overlay.OpenGrid(maskPath, e.client)
		if err != nil {
			return nil, err
		}
		return e.config.Labels.MasksFromGrid(regions), nil
	}

	img, err := overlay.OpenImageFromLocalFileOrGoogleStorage(maskPath, e.client)
	if err != nil {
		return nil, err
	}

	return e.config.Labels.MasksFromImage(img)
}

// processOneSample scores one sample on its own, to report it, and then folds
// those scores into the worker's shard.
func (e *evaluator) processOneSample(sample string, s *shard) (sampleRow, error) {
	loaded, err := e.loadSample(sample)
	if err != nil {
		return sampleRow{}, err
	}

	row := sampleRow{sample: sample}

	instance, err := iou.NewInstanceIoU(iou.ReductionMean, e.opts.IgnoreLabels...)
	if err != nil {
		return row, err
	}
	if err := instance.Add(loaded); err != nil {
		return row, err
	}
	summary, err := instance.Reduce()
	if err != nil {
		return row, err
	}
	row.instance = summary.Mean

	var masked *iou.MaskedIoU
	if s.masked != nil {
		masked, err = iou.NewMaskedIoU(e.opts.Selection, iou.ReductionNone, e.opts.IgnoreLabels...)
		if err != nil {
			return row, err
		}
		if err := masked.Add(loaded); err != nil {
			return row, err
		}
		summary, err := masked.Reduce()
		if err != nil {
			return row, err
		}

		row.labels = make(map[int]float64, len(summary.Values))
		for _, key := range summary.Keys() {
			row.labels[key] = summary.KeyMean(key)
		}
	}

	// Nothing is folded into the shard until the whole sample has scored.
	if err := s.instance.Merge(instance); err != nil {
		return row, err
	}
	if masked != nil {
		if err := s.masked.Merge(masked); err != nil {
			return row, err
		}
	}

	return row, nil
}

// progress counts finished samples across workers and logs every so often.
type progress struct {
	count int64
	every int64
}

// increment records one finished sample and reports whether it was logged.
func (p *progress) increment() bool {
	n := atomic.AddInt64(&p.count, 1)
	if p.every <= 0 || n%p.every != 0 {
		return false
	}

	log.Printf("Processed %d images\n", n)
	return true
}

func (p *progress) finished() int64 {
	return atomic.LoadInt64(&p.count)
}
