package createdat

import (
	"bytes"
	"context"
	"testing"
)

func TestExifExtractor_NonExifDataIsNotFound(t *testing.T) {
	res, ok, err := Exif().CreatedAt(context.Background(), "a.jpg", bytes.NewReader([]byte("not a jpeg")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false")
	}
	if !res.CreatedAt.IsZero() {
		t.Fatalf("expected zero time")
	}
}

func TestExifExtractor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := Exif().CreatedAt(ctx, "a.jpg", bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
