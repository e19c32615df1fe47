package segiou

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitGoogleStoragePath(t *testing.T) {
	bucket, object, err := SplitGoogleStoragePath("gs://my-bucket/masks/sample_1.png")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "my-bucket" || object != "masks/sample_1.png" {
		t.Errorf("got bucket %q object %q", bucket, object)
	}

	for _, path := range []string{"gs://my-bucket", "gs:///object", "gs://bucket/"} {
		if _, _, err := SplitGoogleStoragePath(path); err == nil {
			t.Errorf("%s: expected an error", path)
		}
	}
}

func TestMaybeOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte("sample_1\nsample_2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, size, err := MaybeOpenFromGoogleStorage(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if size != 18 {
		t.Errorf("size %d, expected 18", size)
	}

	buf := make([]byte, 8)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "sample_1" {
		t.Errorf("Read returned %q", buf)
	}

	data, err := ReadAllFromLocalFileOrGoogleStorage(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "sample_1\nsample_2\n" {
		t.Errorf("ReadAll returned %q", data)
	}
}

func TestMaybeOpenGoogleStorageNeedsClient(t *testing.T) {
	if _, _, err := MaybeOpenFromGoogleStorage("gs://bucket/object", nil); err == nil {
		t.Error("expected an error without a client")
	}
}
