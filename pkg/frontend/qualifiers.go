package frontend

import (
	"regexp"
	"strings"
)

// DefaultQualifiers returns the OpenCL keywords that the C grammar does
// not know about.
func DefaultQualifiers() []string {
	return []string{
		"__kernel", "kernel",
		"__global", "global",
		"__local", "local",
		"__constant", "constant",
		"__private", "private",
		"__generic", "generic",
		"__read_only", "read_only",
		"__write_only", "write_only",
		"__read_write", "read_write",
	}
}

// BlankQualifiers returns a copy of src with every listed keyword that is
// followed by whitespace and an identifier replaced by spaces. Offsets,
// lines and columns are unchanged. Keywords used as plain names, as in
// `int local = 0;`, are left alone.
func BlankQualifiers(src []byte, words []string) []byte {
	if len(words) == 0 {
		return src
	}

	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return src
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)

	var out []byte
	for _, m := range re.FindAllIndex(src, -1) {
		if !followedByIdent(src[m[1]:]) {
			continue
		}
		if out == nil {
			out = append([]byte(nil), src...)
		}
		for i := m[0]; i < m[1]; i++ {
			out[i] = ' '
		}
	}
	if out == nil {
		return src
	}
	return out
}

func followedByIdent(rest []byte) bool {
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t' || rest[i] == '\n' || rest[i] == '\r') {
		i++
	}
	if i == 0 || i == len(rest) {
		return false
	}
	b := rest[i]
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
