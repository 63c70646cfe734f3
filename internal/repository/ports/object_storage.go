package ports

import (
	"context"
	"io"
)

// ObjectStorage stores package images. Upload returns the public URL of the object.
type ObjectStorage interface {
	Upload(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) (string, error)
}
