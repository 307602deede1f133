package scanner

import (
	"path"
	"strings"
)

// IgnorePattern represents a single gitignore-style pattern.
type IgnorePattern struct {
	pattern     string
	isNegation  bool // starts with !
	isDirectory bool // ends with /
	isAnchored  bool // starts with / or contains an inner /
	segments    []string
}

// ParseIgnorePattern parses a gitignore-style pattern string.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.isDirectory = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.isAnchored = true
		pattern = pattern[1:]
	} else if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		p.isAnchored = true
	}

	p.segments = strings.Split(pattern, "/")
	return p
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// Match reports whether the slash-separated relative path matches. isDir
// tells whether rel names a directory. A file inside a matched directory
// matches too.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")

	// test every prefix: a/b/c.cl is inside a and a/b
	for end := 1; end <= len(parts); end++ {
		prefixIsDir := end < len(parts) || isDir
		if p.isDirectory && !prefixIsDir {
			continue
		}
		if p.matchPrefix(parts[:end]) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) matchPrefix(parts []string) bool {
	if p.isAnchored {
		return matchSegments(p.segments, parts)
	}
	for start := 0; start < len(parts); start++ {
		if matchSegments(p.segments, parts[start:]) {
			return true
		}
	}
	return false
}

// matchSegments matches pattern segments against path segments; "**"
// spans any number of directories.
func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}

// ignored applies patterns in order; later negations re-include.
func ignored(rel string, isDir bool, patterns []IgnorePattern) bool {
	result := false
	for _, p := range patterns {
		if p.Match(rel, isDir) {
			result = !p.IsNegation()
		}
	}
	return result
}
