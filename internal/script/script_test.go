package script

import (
	"image"
	"path/filepath"
	"testing"
)

func TestDefaultScript(t *testing.T) {
	s := DefaultScript()

	if err := s.Validate(); err != nil {
		t.Fatalf("default script is invalid: %v", err)
	}

	if len(s.Bubbles) != 4 {
		t.Fatalf("Expected 4 bubbles, got %d", len(s.Bubbles))
	}

	if got := s.Bubbles[0].Rect.Image(); got != image.Rect(200, 40, 500, 190) {
		t.Errorf("Unexpected left speaker region %v", got)
	}
	if got := s.Bubbles[1].Rect.Image(); got != image.Rect(700, 20, 1000, 170) {
		t.Errorf("Unexpected right speaker region %v", got)
	}
	if s.Bubbles[0].Mirror || !s.Bubbles[1].Mirror {
		t.Error("Only the opening line is not mirrored")
	}
	if !s.Style.HoldEnabled() {
		t.Error("Hold frame should default to enabled")
	}
}

func TestScriptWriteRead(t *testing.T) {
	hold := false
	s := DefaultScript()
	s.Style.HoldFrame = &hold
	s.Style.Wrap = true

	// Write
	tmpFile := filepath.Join(t.TempDir(), "test_script.yaml")
	if err := WriteScript(s, tmpFile); err != nil {
		t.Fatalf("WriteScript failed: %v", err)
	}

	// Read
	read, err := ReadScript(tmpFile)
	if err != nil {
		t.Fatalf("ReadScript failed: %v", err)
	}

	if read.Version != s.Version {
		t.Errorf("Version mismatch: expected %s, got %s", s.Version, read.Version)
	}

	if len(read.Bubbles) != len(s.Bubbles) {
		t.Fatalf("Bubble count mismatch: expected %d, got %d", len(s.Bubbles), len(read.Bubbles))
	}

	if read.Bubbles[1] != s.Bubbles[1] {
		t.Errorf("Bubble mismatch: expected %+v, got %+v", s.Bubbles[1], read.Bubbles[1])
	}

	if read.Style.HoldEnabled() || !read.Style.Wrap {
		t.Errorf("Style flags lost: %+v", read.Style)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Script)
	}{
		{"no background", func(s *Script) { s.Background = "" }},
		{"no bubble asset", func(s *Script) { s.Bubble = "" }},
		{"no lines", func(s *Script) { s.Bubbles = nil }},
		{"empty rect", func(s *Script) { s.Bubbles[2].Rect.W = 0 }},
		{"negative page", func(s *Script) { s.Page = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScript()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s := DefaultScript()
	s.Bubble = "/abs/textbbl.png"
	s.Resolve("scenes")

	if s.Background != filepath.Join("scenes", "conversation.png") {
		t.Errorf("Relative background not resolved: %s", s.Background)
	}
	if s.Bubble != "/abs/textbbl.png" {
		t.Errorf("Absolute path changed: %s", s.Bubble)
	}
}

func TestPageIndex(t *testing.T) {
	tests := []struct {
		page int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{10, 9},
	}
	for _, tt := range tests {
		s := &Script{Page: tt.page}
		if got := s.PageIndex(); got != tt.want {
			t.Errorf("page %d: PageIndex() = %d, want %d", tt.page, got, tt.want)
		}
	}
}
