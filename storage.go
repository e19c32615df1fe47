// Package segiou holds the file access shared by the segmentation IoU tools:
// paths may point at the local filesystem or at Google Storage (gs://).
package segiou

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// IsGoogleStoragePath reports whether path needs a storage.Client to be opened.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// SplitGoogleStoragePath splits gs://bucket/path/to/object into its bucket and
// object names.
func SplitGoogleStoragePath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into a bucket and an object, but got %d parts: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it has a gs://
// prefix, and from the local filesystem otherwise. It also returns the size of
// the file. client may be nil for local paths.
func MaybeOpenFromGoogleStorage(path string, client *storage.Client) (io.ReadCloser, int64, error) {
	if !IsGoogleStoragePath(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, err
		}
		fstat, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, err
		}
		return f, fstat.Size(), nil
	}

	if client == nil {
		return nil, 0, pfx.Err(fmt.Errorf("%s: a Google Storage client is required for gs:// paths", path))
	}

	bucketName, objectName, err := SplitGoogleStoragePath(path)
	if err != nil {
		return nil, 0, pfx.Err(err)
	}

	wrappedHandle := &GSReadCloser{
		ObjectHandle: client.Bucket(bucketName).Object(objectName),
		Context:      context.Background(),
	}

	// Make a hard call to get the filesize
	attrs, err := wrappedHandle.Attrs(wrappedHandle.Context)
	if err != nil {
		return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return wrappedHandle, attrs.Size, nil
}

// GSReadCloser decorates a Google Storage object handle with io.Reader and
// io.Closer. The object is only opened on the first Read.
type GSReadCloser struct {
	*storage.ObjectHandle
	Context context.Context
	Reader  *storage.Reader
}

func (o *GSReadCloser) Read(p []byte) (n int, err error) {
	if o.Reader == nil {
		o.Reader, err = o.NewReader(o.Context)
		if err != nil {
			return 0, err
		}
	}

	return o.Reader.Read(p)
}

// Close releases the sequential reader, if one was opened.
func (o *GSReadCloser) Close() error {
	if o.Reader == nil {
		return nil
	}

	err := o.Reader.Close()
	o.Reader = nil

	return err
}

// ReadAllFromLocalFileOrGoogleStorage reads the full contents of path.
func ReadAllFromLocalFileOrGoogleStorage(path string, client *storage.Client) ([]byte, error) {
	f, _, err := MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Decoders can swallow i/o errors, so read everything up front and let
	// them work on bytes.
	return io.ReadAll(f)
}
