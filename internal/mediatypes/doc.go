// Package mediatypes decides which files are eligible for indexing.
//
// This package exists as a dependency-free foundation that the scanner and
// configuration layers can both import without creating import cycles.
//
// # Extension Matching
//
// A Matcher holds the configured extension set. With no configuration it
// accepts ".jpg" only, compared case-sensitively when asked:
//
//	m, err := mediatypes.NewMatcher(nil, true)
//	m.Match("/photos/a.jpg") // true
//	m.Match("/photos/a.JPG") // false
//
// The "images" preset expands to ImageExtensions:
//
//	m, _ := mediatypes.NewMatcher([]string{"images"}, false)
//
// Extensions may be given with or without the leading dot.
package mediatypes
