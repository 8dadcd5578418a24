package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePlayerName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple", "Zezima", true},
		{"spaces and symbols", "Iron_Man-1 x", true},
		{"twelve chars", "abcdefghijkl", true},
		{"empty", "", false},
		{"only spaces", "   ", false},
		{"thirteen chars", "abcdefghijklm", false},
		{"punctuation", "bad!name", false},
		{"unicode", "námé", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlayerName(tt.input)
			if (err == nil) != tt.ok {
				t.Fatalf("ValidatePlayerName(%q) = %v, want ok=%v", tt.input, err, tt.ok)
			}
			if err != nil {
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != "player name" {
					t.Fatalf("expected FieldError for player name, got %v", err)
				}
			}
		})
	}
}

func TestValidateGroupName(t *testing.T) {
	if err := ValidateGroupName(strings.Repeat("a", 30)); err != nil {
		t.Fatalf("30 chars rejected: %v", err)
	}
	if err := ValidateGroupName(strings.Repeat("a", 31)); err == nil {
		t.Fatalf("31 chars accepted")
	}
}

func TestValidateImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	mime, err := ValidateImage(png, ScreenshotConstraints)
	if err != nil || mime != "image/png" {
		t.Fatalf("png = %q, %v", mime, err)
	}

	if _, err := ValidateImage([]byte("plain text"), ScreenshotConstraints); err == nil {
		t.Fatalf("text accepted as image")
	}

	small := ImageConstraints{AllowedMimeTypes: ScreenshotConstraints.AllowedMimeTypes, MaxSize: 8}
	if _, err := ValidateImage(png, small); err == nil {
		t.Fatalf("oversized image accepted")
	}
}
