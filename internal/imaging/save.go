package imaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/erazemk/poshledger/internal/blob"
)

// BlobStore is where processed images are kept.
type BlobStore interface {
	Put(ctx context.Context, filename, ext string, r io.Reader) (string, error)
	Remove(ref string) error
}

// Save processes an uploaded photo and stores the result, returning the
// reference to record on the item.
func Save(ctx context.Context, store BlobStore, filename string, r io.Reader) (string, error) {
	result, err := Process(r)
	if err != nil {
		return "", err
	}
	ref, err := store.Put(ctx, filename, Extension, bytes.NewReader(result.Data))
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return ref, nil
}

// InUseFunc reports whether an image is still referenced by some item.
type InUseFunc func(ctx context.Context, ref string) (bool, error)

// Discard removes an image issued by the blob store once no item references
// it any more. Call it after the referencing item has been changed or
// deleted. Empty and foreign references, such as external URLs, are
// ignored, and the file is kept when the check fails.
func Discard(ctx context.Context, store BlobStore, inUse InUseFunc, ref string) {
	if !blob.Owns(ref) {
		return
	}
	used, err := inUse(ctx, ref)
	if err != nil {
		slog.Warn("keeping image, reference check failed", "ref", ref, "error", err)
		return
	}
	if used {
		return
	}
	if err := store.Remove(ref); err != nil {
		slog.Warn("failed to remove image", "ref", ref, "error", err)
	}
}
