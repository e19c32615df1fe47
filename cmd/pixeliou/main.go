// pixeliou scores predicted label images against ground-truth label images
// with the instance IoU (mean IoU over the labels present in each ground
// truth) and, optionally, the masked per-label IoU.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/segiou"
	_ "github.com/carbocation/segiou/compileinfoprint"
	"github.com/carbocation/segiou/overlay"
)

func init() {
	flag.Usage = func() {
		flag.PrintDefaults()

		log.Println("Example JSONConfig file layout:")
		bts, err := json.MarshalIndent(overlay.JSONConfig{
			Labels: overlay.LabelMap{
				"Background": overlay.Label{Color: "", ID: 0},
				"LV":         overlay.Label{Color: "#ff0000", ID: 1},
			},
			IgnoreLabels: []uint32{0},
			Reduction:    "none",
			MatchLabel:   true,
		}, "", "  ")
		if err == nil {
			log.Println(string(bts))
		}
	}
}

func main() {
	start := time.Now()
	log.Println("pixeliou start")
	defer func() {
		log.Printf("pixeliou end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var concurrency int
	var rescale bool
	var truthPath, predictionPath, maskPath, jsonConfig, manifest, suffix, summaryPath string

	flag.StringVar(&truthPath, "truth", "", "Path to folder with encoded ground truth label images (local or gs://)")
	flag.StringVar(&predictionPath, "prediction", "", "Path to folder with encoded predicted label images (local or gs://)")
	flag.StringVar(&maskPath, "masks", "", "(Optional) Path to folder with region selector images. Required when the config sets match_mask.")
	flag.StringVar(&jsonConfig, "config", "", "JSONConfig file from the github.com/carbocation/segiou/overlay package")
	flag.StringVar(&manifest, "manifest", "", "(Optional) Path to manifest of sample names. If provided, will only look at those samples rather than listing the entire -truth folder. Required for gs:// folders.")
	flag.StringVar(&suffix, "suffix", ".png.mask.png", "Suffix after the sample name for every image. Use .rle for run-length encoded label grids.")
	flag.StringVar(&summaryPath, "summary", "", "(Optional) File to which the reduced metrics will be written.")
	flag.BoolVar(&rescale, "rescale", false, "(Optional) Resize predictions to the ground truth dimensions with nearest-neighbor sampling.")
	flag.IntVar(&concurrency, "concurrency", 4*runtime.NumCPU(), "Number of samples to score in parallel.")
	flag.Parse()

	if truthPath == "" || predictionPath == "" || jsonConfig == "" {
		flag.Usage()
		os.Exit(1)
	}

	config, err := overlay.ParseJSONConfigFromPath(jsonConfig)
	if err != nil {
		log.Println(err)
		flag.Usage()
		os.Exit(1)
	}

	if manifest == "" {
		manifest = config.ManifestPath
	}

	e, err := newEvaluator(config, truthPath, predictionPath, maskPath, suffix, rescale)
	if err != nil {
		log.Fatalln(err)
	}

	// Initialize the Google Storage client only if we're pointing to Google
	// Storage paths.
	for _, path := range []string{truthPath, predictionPath, maskPath, manifest} {
		if segiou.IsGoogleStoragePath(path) {
			e.client, err = storage.NewClient(context.Background())
			if err != nil {
				log.Fatalln(err)
			}
			break
		}
	}

	var samples []string
	if manifest != "" {
		samples, err = readManifest(manifest, e.client)
	} else {
		samples, err = scanFolder(truthPath, suffix)
	}
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Scoring %d samples\n", len(samples))

	out := newRowWriter(os.Stdout, e.scoredLabels())
	if err := out.header(); err != nil {
		log.Fatalln(err)
	}

	final, err := e.run(samples, concurrency, out)
	if err != nil {
		log.Fatalln(err)
	}

	if err := out.flush(); err != nil {
		log.Fatalln(err)
	}

	if summaryPath == "" {
		return
	}

	f, err := os.Create(summaryPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	if err := writeSummary(f, final, config.Labels); err != nil {
		log.Fatalln(fmt.Errorf("%s: %w", summaryPath, err))
	}
}
