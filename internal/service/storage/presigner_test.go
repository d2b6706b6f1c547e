package storage

import (
	"context"
	"errors"
	"testing"

	"moment/internal/domain"
)

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		category string
		filename string
		want     string
		wantErr  bool
	}{
		{"audio file", "audio", "rec-123.m4a", "users/u1/audio/rec-123.m4a", false},
		{"image file", "images", "photo.jpg", "users/u1/images/photo.jpg", false},
		{"generic file", "files", "export.pdf", "users/u1/files/export.pdf", false},
		{"unknown category", "secrets", "x.txt", "", true},
		{"empty filename", "audio", "", "", true},
		{"slash in filename", "audio", "../other/steal.m4a", "", true},
		{"backslash in filename", "audio", `..\steal.m4a`, "", true},
		{"dotdot without slash", "audio", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildKey("u1", tt.category, tt.filename)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("BuildKey() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildKey() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPresignDownloadRejectsForeignKeys(t *testing.T) {
	p := &Presigner{bucket: "test"}

	for _, key := range []string{
		"users/other-user/audio/rec.m4a",
		"users/u1/../other-user/audio/rec.m4a",
		"system/config.yaml",
	} {
		_, err := p.PresignDownload(context.Background(), "u1", key)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("PresignDownload(%q) error = %v, want ErrNotFound", key, err)
		}
	}
}
