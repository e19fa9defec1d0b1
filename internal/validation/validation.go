// Package validation guards the engine's string inputs: block type
// names and page slugs arrive from documents and URLs and are used as
// map keys, file names, and markup attributes, so they are checked at
// the boundary. It also provides the dev-mode fragment inspection used
// by the renderer.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	typeNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

const maxNameLength = 64

// ValidateTypeName checks a block type / implementation name. Names
// become data attributes and registry keys; reject anything that is
// not a plain identifier.
func ValidateTypeName(name string) error {
	if name == "" {
		return fmt.Errorf("block type name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("block type name too long: %d > %d", len(name), maxNameLength)
	}
	if !typeNamePattern.MatchString(name) {
		return fmt.Errorf("invalid block type name %q", name)
	}
	return nil
}

// ValidateSlug checks a page slug before it is used as a file name or
// route segment.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("page slug cannot be empty")
	}
	if len(slug) > maxNameLength {
		return fmt.Errorf("page slug too long: %d > %d", len(slug), maxNameLength)
	}
	if strings.Contains(slug, "..") {
		return fmt.Errorf("page slug contains path traversal: %q", slug)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("invalid page slug %q", slug)
	}
	return nil
}
