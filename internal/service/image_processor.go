package service

import (
	"bytes"
	"io"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/media"
)

// prepareImageForUpload inspects upload and returns a reader over the checked
// bytes with the decoded content type. Rejections are validation errors.
func prepareImageForUpload(upload media.Upload, maxBytes int64, maxDimension int) (io.Reader, int64, string, error) {
	img, err := media.Inspect(upload, maxBytes, maxDimension)
	if err != nil {
		return nil, 0, "", &domain.Error{Kind: domain.KindValidation, Message: "unsupported image", Err: err}
	}
	return bytes.NewReader(img.Bytes), int64(len(img.Bytes)), img.ContentType, nil
}
