package catalog

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns are the save-file globs used when none are configured.
var DefaultPatterns = []string{"*.db", "*.fwl", "*.old"} //nolint:gochecknoglobals // read-only defaults

// Filter decides which listed files take part in a sync.
type Filter interface {
	// ShouldInclude returns true if the file with the given identity belongs in the catalog.
	ShouldInclude(identity string) bool
}

// GlobFilter implements Filter using doublestar glob patterns.
// A name is included when any pattern matches it.
type GlobFilter struct {
	normalizedPatterns []string
}

// NewGlobFilter creates a new GlobFilter with the given patterns.
// Blank patterns are ignored; no patterns matches all files.
func NewGlobFilter(patterns ...string) *GlobFilter {
	normalized := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, strings.ToLower(pattern))
	}

	return &GlobFilter{normalizedPatterns: normalized}
}

// ParsePatterns splits a comma separated pattern list, e.g. "*.db,*.fwl".
func ParsePatterns(list string) []string {
	var patterns []string

	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			patterns = append(patterns, part)
		}
	}

	return patterns
}

// Patterns returns the normalized patterns in use.
func (f *GlobFilter) Patterns() []string {
	return append([]string(nil), f.normalizedPatterns...)
}

// ShouldInclude returns true if the identity matches any pattern.
// Case-insensitive matching
func (f *GlobFilter) ShouldInclude(identity string) bool {
	if len(f.normalizedPatterns) == 0 {
		return true
	}

	normalized := strings.ToLower(identity)

	for _, pattern := range f.normalizedPatterns {
		// Invalid patterns never match
		if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
			return true
		}
	}

	return false
}
