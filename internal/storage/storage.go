package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrUnsupportedScheme indicates a URI that is neither file:// nor s3://.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// ObjectStore defines minimal methods for snapshot and export needs.
type ObjectStore interface {
	// Get returns a reader for the given URI (s3://bucket/key or file://path).
	Get(ctx context.Context, uri string) (io.ReadCloser, int64, error)
	// Put writes content to the given URI; returns final URI.
	Put(ctx context.Context, uri string, body io.Reader) (string, error)
}

// Join appends path elements to a base URI with single slashes.
func Join(base string, elems ...string) string {
	out := strings.TrimRight(base, "/")
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		out += "/" + e
	}
	return out
}
