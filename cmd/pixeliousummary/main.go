// pixeliousummary is a convenience tool to summarize the per-sample output of
// pixeliou by column
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
)

const missingValue = "NA"

func main() {
	var input string
	var linePrefix string

	// Parse the command line arguments
	flag.StringVar(&input, "input", "", "The input file, as written by pixeliou")
	flag.StringVar(&linePrefix, "line_prefix", "", "Column to add to each line. If empty, no column will be added.")
	flag.Parse()

	if input == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Open the input file
	f, err := os.Open(input)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	// Parse the input file
	if err := summarizePixelIoU(f, os.Stdout, linePrefix); err != nil {
		log.Fatalln(err)
	}
}

// scoreColumn holds the parsed, non-missing scores of one output column.
type scoreColumn struct {
	Name   string
	Values []float64
}

func parsePixelIoU(r io.Reader) ([]scoreColumn, error) {
	// Treat the reader as a tab-delimited csv.Reader
	csvReader := csv.NewReader(r)
	csvReader.Comma = '\t'
	entries, err := csvReader.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	// If entries is not empty, then its first row is the header
	if len(entries) == 0 {
		return nil, fmt.Errorf("No entries in the input file")
	}

	header := entries[0]
	if len(header) < 2 || header[0] != "sample" {
		return nil, fmt.Errorf("Expected a header starting with the sample column, found %v", header)
	}

	// Every column but the sample name holds scores
	columns := make([]scoreColumn, 0, len(header)-1)
	for _, name := range header[1:] {
		columns = append(columns, scoreColumn{Name: name, Values: make([]float64, 0, len(entries)-1)})
	}

	for i, row := range entries[1:] {
		for j, cell := range row[1:] {
			if cell == missingValue {
				continue
			}

			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("row %d, column %s: %w", i+2, columns[j].Name, err))
			}

			columns[j].Values = append(columns[j].Values, v)
		}
	}

	return columns, nil
}

func filterToNonzeroValues(columns []scoreColumn) []scoreColumn {
	out := make([]scoreColumn, 0, len(columns))

	for _, col := range columns {
		entry := scoreColumn{Name: col.Name, Values: make([]float64, 0, len(col.Values))}
		for _, v := range col.Values {
			if v == 0 {
				continue
			}
			entry.Values = append(entry.Values, v)
		}
		out = append(out, entry)
	}

	return out
}

func summarizePixelIoU(r io.Reader, w io.Writer, linePrefix string) error {
	columns, err := parsePixelIoU(r)
	if err != nil {
		return err
	}

	output := []string{"Column"}
	if linePrefix != "" {
		output = append(output, "LinePrefix")
	}
	output = append(output, "Filter", "N_Entries", "Mean", "SD")

	if _, err := fmt.Fprintln(w, strings.Join(output, "\t")); err != nil {
		return err
	}

	if err := printValues(w, columns, "raw", linePrefix); err != nil {
		return err
	}

	return printValues(w, filterToNonzeroValues(columns), "nonzero", linePrefix)
}

func printValues(w io.Writer, columns []scoreColumn, filterType, linePrefix string) error {
	for _, col := range columns {
		output := []string{col.Name}

		if linePrefix != "" {
			output = append(output, linePrefix)
		}

		output = append(output, filterType, fmt.Sprintf("%d", len(col.Values)))

		data := stats.Float64Data(col.Values)

		if data.Len() < 1 {
			output = append(output, "N/A", "N/A")
		} else {
			fl, err := data.Mean()
			if err != nil {
				return err
			}
			output = append(output, fmt.Sprintf("%.3f", fl))

			fl, err = data.StandardDeviation()
			if err != nil {
				return err
			}
			output = append(output, fmt.Sprintf("%.3f", fl))
		}

		if _, err := fmt.Fprintln(w, strings.Join(output, "\t")); err != nil {
			return err
		}
	}

	return nil
}
