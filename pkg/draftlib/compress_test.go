package draftlib

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"
)

// TestGzipTransform_RoundTrip: the transform output decompresses back to
// the original payload and keeps name and declared type.
func TestGzipTransform_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("draftsync "), 500)
	in, err := NewMemFile("hero.png", "image/png", payload)
	if err != nil {
		t.Fatalf("NewMemFile: %v", err)
	}

	out, err := GzipTransform{}.Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Name != "hero.png" || out.MIME != "image/png" {
		t.Fatalf("identity changed: %s %s", out.Name, out.MIME)
	}
	if out.Size >= in.Size {
		t.Fatalf("compressible payload grew: %d -> %d", in.Size, out.Size)
	}

	rc, err := out.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	zr, err := gzip.NewReader(rc)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("round trip mismatch")
	}
}

// TestGzipTransform_CancelledContext: a cancelled context aborts the
// transform before any work.
func TestGzipTransform_CancelledContext(t *testing.T) {
	in, err := NewMemFile("a.png", "image/png", []byte("x"))
	if err != nil {
		t.Fatalf("NewMemFile: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (GzipTransform{}).Apply(ctx, in); err == nil {
		t.Fatal("expected context error")
	}
}

// TestNopTransform passes the file through untouched.
func TestNopTransform(t *testing.T) {
	in, err := NewMemFile("a.png", "image/png", []byte("abc"))
	if err != nil {
		t.Fatalf("NewMemFile: %v", err)
	}
	out, err := NopTransform().Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	data, err := out.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("payload changed: %q", data)
	}
}
