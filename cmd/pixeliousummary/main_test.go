package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const pixelIoUOutput = "sample\tInstanceIoU\tID1_LV\n" +
	"a\t0.5\t1\n" +
	"b\t0\tNA\n" +
	"c\t1\t0\n"

func TestSummarizePixelIoU(t *testing.T) {
	var buf bytes.Buffer
	if err := summarizePixelIoU(strings.NewReader(pixelIoUOutput), &buf, "run1"); err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"Column\tLinePrefix\tFilter\tN_Entries\tMean\tSD",
		"InstanceIoU\trun1\traw\t3\t0.500\t0.408",
		"ID1_LV\trun1\traw\t2\t0.500\t0.500",
		"InstanceIoU\trun1\tnonzero\t2\t0.750\t0.250",
		"ID1_LV\trun1\tnonzero\t1\t1.000\t0.000",
	}
	if diff := cmp.Diff(expected, strings.Split(strings.TrimSpace(buf.String()), "\n")); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePixelIoUErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":      "",
		"bad header": "dicom\tscore\n",
		"bad value":  "sample\tInstanceIoU\na\tsomething\n",
	} {
		if _, err := parsePixelIoU(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
