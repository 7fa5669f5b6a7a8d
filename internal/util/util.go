// Package util provides small filename helpers shared by the client and the store.
package util

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions are the image extensions the store accepts, lowercase and without the dot.
var AllowedExtensions = []string{"png", "jpg", "jpeg"}

// Extension returns the lowercase extension of name without the leading dot.
// A name with no dot has no extension.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// AllowedImage reports whether name carries one of AllowedExtensions.
func AllowedImage(name string) bool {
	return Contains(AllowedExtensions, Extension(name))
}

// BaseName strips any directory component from an uploaded filename.
// Both separators are stripped because browsers on Windows send backslashes.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// Contains checks if a string slice contains a specific string.
func Contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
