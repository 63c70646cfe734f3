package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestInspectAcceptsPNG(t *testing.T) {
	data := encodePNG(t, 40, 20)
	img, err := Inspect(Upload{Reader: bytes.NewReader(data), FileName: "fiji.png"}, 1<<20, 100)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if img.ContentType != "image/png" || img.Width != 40 || img.Height != 20 {
		t.Fatalf("unexpected image %+v", img)
	}
	if Extension(img.ContentType) != ".png" {
		t.Fatalf("unexpected extension %q", Extension(img.ContentType))
	}
}

func TestInspectRejectsMismatchedType(t *testing.T) {
	data := encodePNG(t, 4, 4)
	_, err := Inspect(Upload{Reader: bytes.NewReader(data), ContentType: "image/jpeg"}, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "declared") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestInspectRejectsOversized(t *testing.T) {
	data := encodePNG(t, 4, 4)
	if _, err := Inspect(Upload{Reader: bytes.NewReader(data), ContentType: "image/png"}, 10, 0); err == nil {
		t.Fatal("expected size error")
	}
	if _, err := Inspect(Upload{Reader: bytes.NewReader(encodePNG(t, 50, 5)), ContentType: "image/png"}, 0, 10); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestNormalizeContentType(t *testing.T) {
	cases := map[string][2]string{
		"image/jpeg": {"image/jpg", ""},
		"image/png":  {"", "a.PNG"},
		"image/webp": {"application/octet-stream", "x.webp"},
	}
	for want, in := range cases {
		if got := NormalizeContentType(in[0], in[1]); got != want {
			t.Fatalf("NormalizeContentType(%q,%q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
