// Package media inspects uploaded package images before they are stored.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

const DefaultMaxDimension = 3840

type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

// Image is a fully read upload whose header decoded as a supported format.
type Image struct {
	Bytes       []byte
	ContentType string
	Format      string
	Width       int
	Height      int
}

// Inspect reads the upload, decodes its header and rejects images whose
// declared type disagrees with the decoded format or that exceed maxDimension
// on either side. maxBytes <= 0 disables the size check.
func Inspect(upload Upload, maxBytes int64, maxDimension int) (*Image, error) {
	if upload.Reader == nil {
		return nil, fmt.Errorf("media: empty reader")
	}
	reader := upload.Reader
	if maxBytes > 0 {
		reader = io.LimitReader(upload.Reader, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media: empty image data")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("media: image exceeds %d bytes", maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("media: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, fmt.Errorf("media: image %dx%d exceeds %dpx", cfg.Width, cfg.Height, maxDimension)
	}

	declared := NormalizeContentType(upload.ContentType, upload.FileName)
	decoded := "image/" + format
	if declared != decoded {
		return nil, fmt.Errorf("media: declared %s but decoded %s", declared, decoded)
	}

	return &Image{
		Bytes:       data,
		ContentType: decoded,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Extension returns the file extension used for stored objects of contentType.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}

func NormalizeContentType(value, fileName string) string {
	ct := strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" && ct != "application/octet-stream" {
		if ct == "image/jpg" {
			return "image/jpeg"
		}
		return ct
	}
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(fileName)))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return strings.ToLower(mt)
		}
	}
	return "image/jpeg"
}
