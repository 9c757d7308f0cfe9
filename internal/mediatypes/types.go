package mediatypes

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtension is the only extension indexed when none are configured.
const DefaultExtension = ".jpg"

// ImageExtensions maps file extensions to whether they are common image formats.
// It backs the "images" preset.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// PresetImages expands to every key of ImageExtensions when passed to NewMatcher.
const PresetImages = "images"

// Matcher decides whether a file name has an eligible extension.
type Matcher struct {
	exts          map[string]bool
	caseSensitive bool
}

// NewMatcher builds a matcher from extensions like ".jpg" or "png". The
// special value "images" adds the ImageExtensions set. With no extensions the
// matcher accepts DefaultExtension only.
func NewMatcher(extensions []string, caseSensitive bool) (*Matcher, error) {
	m := &Matcher{
		exts:          make(map[string]bool),
		caseSensitive: caseSensitive,
	}

	if len(extensions) == 0 {
		extensions = []string{DefaultExtension}
	}

	for _, ext := range extensions {
		ext = strings.TrimSpace(ext)
		if ext == PresetImages {
			for e := range ImageExtensions {
				m.add(e)
			}
			continue
		}
		if ext == "" || ext == "." || strings.ContainsAny(ext, `/\`) {
			return nil, fmt.Errorf("invalid extension %q", ext)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.add(ext)
	}

	return m, nil
}

// MustMatcher is NewMatcher for fixed inputs; it panics on error.
func MustMatcher(extensions []string, caseSensitive bool) *Matcher {
	m, err := NewMatcher(extensions, caseSensitive)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) add(ext string) {
	if !m.caseSensitive {
		ext = strings.ToLower(ext)
	}
	m.exts[ext] = true
}

// Match reports whether name ends in an eligible extension.
func (m *Matcher) Match(name string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	if !m.caseSensitive {
		ext = strings.ToLower(ext)
	}
	return m.exts[ext]
}

// Extensions returns the eligible extensions, sorted.
func (m *Matcher) Extensions() []string {
	out := make([]string, 0, len(m.exts))
	for ext := range m.exts {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// CaseSensitive reports whether extension comparison is case-sensitive.
func (m *Matcher) CaseSensitive() bool {
	return m.caseSensitive
}

// IsHidden reports whether a path element is a dot file or dot directory.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
