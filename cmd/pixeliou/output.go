package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/carbocation/segiou/overlay"
)

// rowWriter serializes per-sample rows coming from concurrent workers.
type rowWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	labels []overlay.Label
}

func newRowWriter(w io.Writer, labels []overlay.Label) *rowWriter {
	return &rowWriter{w: bufio.NewWriter(w), labels: labels}
}

func labelColumn(label overlay.Label) string {
	return fmt.Sprintf("ID%d_%s", label.ID, strings.ReplaceAll(label.Label, " ", "_"))
}

func (r *rowWriter) header() error {
	header := []string{"sample", "InstanceIoU"}
	for _, label := range r.labels {
		header = append(header, labelColumn(label))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintln(r.w, strings.Join(header, "\t"))
	return err
}

func (r *rowWriter) write(row sampleRow) error {
	cols := []string{row.sample, fmt.Sprintf("%g", row.instance)}
	for _, label := range r.labels {
		v, exists := row.labels[int(label.ID)]
		if !exists {
			cols = append(cols, "NA")
			continue
		}
		cols = append(cols, fmt.Sprintf("%g", v))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintln(r.w, strings.Join(cols, "\t"))
	return err
}

func (r *rowWriter) flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.w.Flush()
}
