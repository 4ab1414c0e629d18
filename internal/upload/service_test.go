package upload

import (
	"context"
	"strings"
	"testing"
)

func TestUploadNotConfigured(t *testing.T) {
	svc, err := NewService(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.IsConfigured() {
		t.Fatal("expected unconfigured service")
	}
	_, err = svc.Upload(context.Background(), "u1", "a.png", "image/png", 10, strings.NewReader("x"))
	if err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":        "photo.png",
		"my photo (1).png": "my_photo__1_.png",
		"../../etc/passwd": ".._.._etc_passwd",
		"":                 "file",
		"отчет.png":        "_____.png",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
