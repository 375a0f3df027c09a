package blobstore

import (
	"context"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store stores named blobs.
type Store interface {
	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// CurrentName is the base name of the pointer blob naming the latest version
// of a logical object. Stores with atomic commit support treat it specially.
const CurrentName = "CURRENT"

// IsCurrent reports whether name refers to a CURRENT pointer blob.
func IsCurrent(name string) bool {
	return name == CurrentName || strings.HasSuffix(name, "/"+CurrentName)
}
