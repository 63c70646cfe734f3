package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/media"
	"github.com/njprem/travelswipe/internal/repository/catalog"
)

type fakeStorage struct {
	objectName  string
	contentType string
	data        []byte
	err         error
}

func (f *fakeStorage) Upload(_ context.Context, objectName, contentType string, reader io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.objectName = objectName
	f.contentType = contentType
	f.data, _ = io.ReadAll(reader)
	return "https://cdn.example.com/" + objectName, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newCatalogServiceForTests(t *testing.T, storage *fakeStorage) *CatalogService {
	t.Helper()
	static, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default returned error: %v", err)
	}
	if storage == nil {
		return NewCatalogService(static, nil, CatalogServiceConfig{})
	}
	return NewCatalogService(static, storage, CatalogServiceConfig{})
}

func TestCatalogServiceUploadImage(t *testing.T) {
	ctx := context.Background()
	storage := &fakeStorage{}
	svc := newCatalogServiceForTests(t, storage)

	data := pngBytes(t)
	pkg, err := svc.UploadImage(ctx, "1", media.Upload{Reader: bytes.NewReader(data), Size: int64(len(data)), FileName: "fiji.png", ContentType: "image/png"})
	if err != nil {
		t.Fatalf("UploadImage returned error: %v", err)
	}
	if !strings.HasPrefix(storage.objectName, "packages/1/") || !strings.HasSuffix(storage.objectName, ".png") {
		t.Fatalf("unexpected object name %q", storage.objectName)
	}
	if storage.contentType != "image/png" || !bytes.Equal(storage.data, data) {
		t.Fatalf("unexpected stored object %q (%d bytes)", storage.contentType, len(storage.data))
	}
	if pkg.Image != "https://cdn.example.com/"+storage.objectName {
		t.Fatalf("catalog not updated, image %q", pkg.Image)
	}

	got, _ := svc.Get(ctx, "1")
	if got.Image != pkg.Image {
		t.Fatalf("expected catalog to serve the new image")
	}
}

func TestCatalogServiceUploadImageRejections(t *testing.T) {
	ctx := context.Background()

	if _, err := newCatalogServiceForTests(t, nil).UploadImage(ctx, "1", media.Upload{}); !errors.Is(err, ErrImageStorageDisabled) {
		t.Fatalf("expected ErrImageStorageDisabled, got %v", err)
	}

	svc := newCatalogServiceForTests(t, &fakeStorage{})
	data := pngBytes(t)
	if _, err := svc.UploadImage(ctx, "missing", media.Upload{Reader: bytes.NewReader(data)}); !errors.Is(err, domain.ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}

	_, err := svc.UploadImage(ctx, "1", media.Upload{Reader: strings.NewReader("not an image"), ContentType: "image/png"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for undecodable upload, got %v", err)
	}
}

func TestCatalogServiceHydrate(t *testing.T) {
	svc := newCatalogServiceForTests(t, nil)
	snapshot := domain.Package{ID: "2", Destination: "Snapshot"}
	set := &domain.LikedSet{Items: []domain.LikedItem{
		{PackageID: "1"},
		{PackageID: "2", Package: &snapshot},
		{PackageID: "gone"},
	}}

	if err := svc.Hydrate(context.Background(), set); err != nil {
		t.Fatalf("Hydrate returned error: %v", err)
	}
	if set.Items[0].Package == nil || set.Items[0].Package.Destination != "Fiji" {
		t.Fatalf("expected catalog package for 1, got %+v", set.Items[0].Package)
	}
	if set.Items[1].Package.Destination != "Snapshot" {
		t.Fatalf("snapshot must not be replaced")
	}
	if set.Items[2].Package != nil {
		t.Fatalf("unknown package must stay empty")
	}
}
