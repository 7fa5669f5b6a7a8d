package util

import "testing"

func TestExtension(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no dot", "image", ""},
		{"lowercase", "a.png", "png"},
		{"uppercase", "A.JPG", "jpg"},
		{"multiple dots", "tile.0001.jpeg", "jpeg"},
		{"trailing dot", "image.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extension(tt.input)
			if result != tt.expected {
				t.Errorf("Extension(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestAllowedImage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"png", "img1.png", true},
		{"jpg", "img1.jpg", true},
		{"jpeg upper", "IMG1.JPEG", true},
		{"gif", "anim.gif", false},
		{"no extension", "README", false},
		{"hidden jpg", ".jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AllowedImage(tt.input)
			if result != tt.expected {
				t.Errorf("AllowedImage(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "img1.jpg", "img1.jpg"},
		{"unix dir", "/tmp/x/img1.jpg", "img1.jpg"},
		{"windows dir", `C:\photos\img1.jpg`, "img1.jpg"},
		{"traversal", "../../etc/passwd", "passwd"},
		{"dot dot", "..", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BaseName(tt.input)
			if result != tt.expected {
				t.Errorf("BaseName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name     string
		slice    []string
		str      string
		expected bool
	}{
		{"empty slice", []string{}, "a", false},
		{"found first", []string{"a", "b", "c"}, "a", true},
		{"found last", []string{"a", "b", "c"}, "c", true},
		{"not found", []string{"a", "b", "c"}, "d", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Contains(tt.slice, tt.str)
			if result != tt.expected {
				t.Errorf("Contains(%v, %q) = %v, want %v", tt.slice, tt.str, result, tt.expected)
			}
		})
	}
}
