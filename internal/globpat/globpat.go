// Package globpat translates glob patterns into anchored regular
// expressions with fnmatch semantics: `*` matches any run of characters
// including path separators, `?` matches any single character, and
// `[...]` matches a character class. These are the semantics object-store
// key matching needs, where "directories" are only a naming convention.
package globpat

import (
	"regexp"
	"strings"
)

// HasMeta reports whether the pattern contains any glob metacharacters.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// LiteralPrefix returns the longest literal directory prefix of pattern,
// i.e. everything up to the last path separator before the first
// metacharacter. For a pattern with no metacharacters it returns the
// pattern itself. The result is the natural starting point for a walk or
// an object-store prefix scan.
func LiteralPrefix(pattern string) string {
	i := strings.IndexAny(pattern, "*?[")
	if i < 0 {
		return pattern
	}
	j := strings.LastIndex(pattern[:i], "/")
	if j < 0 {
		return ""
	}
	return pattern[:j]
}

// Translate compiles pattern into an anchored regexp. Character classes
// pass through unaltered aside from `[!...]` negation, which becomes
// `[^...]`.
func Translate(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`\A`)

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := strings.IndexByte(pattern[i+1:], ']')
			if j < 0 {
				// Unterminated class: treat the bracket literally.
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+j]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteByte('[')
			b.WriteString(class)
			b.WriteByte(']')
			i += j + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString(`\z`)
	return regexp.Compile(b.String())
}

// MatchAncestor reports whether any proper ancestor directory of path
// matches re. It is how a glob that names a directory selects every file
// beneath it.
func MatchAncestor(re *regexp.Regexp, path string) bool {
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '/' && re.MatchString(path[:i]) {
			return true
		}
	}
	return false
}
