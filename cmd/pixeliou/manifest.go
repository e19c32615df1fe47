package main

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/segiou"
)

// SampleColumnName is the manifest column holding sample names. Manifests
// without a header row are read from their first column.
const SampleColumnName = "sample"

var errGoogleStorageNeedsManifest = errors.New("folders on Google Storage cannot be listed; pass a -manifest")

func readManifest(manifestPath string, client *storage.Client) ([]string, error) {
	man, _, err := segiou.MaybeOpenFromGoogleStorage(manifestPath, client)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer man.Close()

	return parseManifest(man)
}

func parseManifest(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	out := make([]string, 0)
	column := 0

	for i := 0; ; i++ {
		cols, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		if i == 0 {
			found := false
			for k, col := range cols {
				if col == SampleColumnName {
					column, found = k, true
					break
				}
			}
			if found {
				continue
			}
		}

		if column >= len(cols) {
			continue
		}

		if name := strings.TrimSpace(cols[column]); name != "" {
			out = append(out, name)
		}
	}

	return out, nil
}

// scanFolder lists the samples in a local folder: every file ending in suffix,
// with the suffix removed.
func scanFolder(dirname, suffix string) ([]string, error) {
	if segiou.IsGoogleStoragePath(dirname) {
		return nil, pfx.Err(errGoogleStorageNeedsManifest)
	}

	files, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), suffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(file.Name(), suffix))
	}

	return out, nil
}
