package overlay

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/segiou/iou"
)

type JSONConfig struct {
	ConfigPath   string   `json:"-"`
	ManifestPath string   `json:"manifest,omitempty"`
	Labels       LabelMap `json:"labels"`

	// Metric settings
	IgnoreLabels []uint32 `json:"ignore_labels,omitempty"`
	Reduction    string   `json:"reduction,omitempty"`
	MatchLabel   bool     `json:"match_label,omitempty"`
	MatchMask    bool     `json:"match_mask,omitempty"`
}

// MetricOptions are the validated metric settings of a JSONConfig.
type MetricOptions struct {
	Reduction    iou.Reduction
	IgnoreLabels []uint32

	// Masked is set when either match_label or match_mask was configured, in
	// which case Selection says which.
	Masked    bool
	Selection iou.Selection
}

func ParseJSONConfigFromPath(path string) (JSONConfig, error) {
	out := JSONConfig{ConfigPath: path}

	f, err := os.Open(expandHomeDir(path))
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(&out)
	if err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}

		return out, pfx.Err(err)
	}

	if !out.Labels.Valid() {
		return out, pfx.Err(fmt.Errorf("%s: each label must have a distinct id", path))
	}

	// Internally, go uses lower case for all colors, so we will too (while
	// permitting the user to use mixed case)
	for k, v := range out.Labels {
		v.Color = strings.ToLower(v.Color)
		out.Labels[k] = v
	}

	// Interpret ~ if present
	out.ConfigPath = expandHomeDir(out.ConfigPath)
	out.ManifestPath = expandHomeDir(out.ManifestPath)

	return out, nil
}

// MetricOptions validates the metric settings. An empty reduction means
// "mean".
func (c JSONConfig) MetricOptions() (MetricOptions, error) {
	out := MetricOptions{
		Reduction:    iou.ReductionMean,
		IgnoreLabels: c.IgnoreLabels,
	}

	if c.Reduction != "" {
		r, err := iou.ParseReduction(c.Reduction)
		if err != nil {
			return out, err
		}
		out.Reduction = r
	}

	if c.MatchLabel || c.MatchMask {
		sel, err := iou.SelectionFromFlags(c.MatchLabel, c.MatchMask)
		if err != nil {
			return out, err
		}
		out.Masked = true
		out.Selection = sel
	}

	for _, id := range c.IgnoreLabels {
		if _, exists := c.Labels.ByID(id); !exists {
			log.Printf("Ignored label %d is not in the label map\n", id)
		}
	}

	return out, nil
}

// NewInstanceIoU creates an InstanceIoU with the configured settings.
func (o MetricOptions) NewInstanceIoU() (*iou.InstanceIoU, error) {
	return iou.NewInstanceIoU(o.Reduction, o.IgnoreLabels...)
}

// NewMaskedIoU creates a MaskedIoU with the configured settings. It fails if
// neither match_label nor match_mask was set.
func (o MetricOptions) NewMaskedIoU() (*iou.MaskedIoU, error) {
	if !o.Masked {
		return nil, pfx.Err(fmt.Errorf("one of match_label or match_mask must be set to score masked IoU"))
	}

	return iou.NewMaskedIoU(o.Selection, o.Reduction, o.IgnoreLabels...)
}

// Via https://stackoverflow.com/a/17617721/199475
func expandHomeDir(path string) string {

	usr, err := user.Current()
	if err != nil {
		return path
	}

	dir := usr.HomeDir

	if path == "~" {
		// In case of "~", which won't be caught by the "else if"
		path = dir
	} else if strings.HasPrefix(path, "~/") {
		// Use strings.HasPrefix so we don't match paths like
		// "/something/~/something/"
		path = filepath.Join(dir, path[2:])
	}

	return path
}
