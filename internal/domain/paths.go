package domain

import "strings"

// NormalizePath converts a path to its canonical form:
// backslashes become slashes, duplicate slashes collapse, the trailing
// slash is trimmed except at the filesystem root, and bare drive-letter
// roots ("C:") canonicalize to "C:/".
//
// Two paths that normalize identically address the same preference
// overlay entry. Never errors: unparsable input degrades to "/".
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}

	p = strings.ReplaceAll(p, "\\", "/")

	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for _, r := range p {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	p = b.String()

	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}

	if isDriveLetter(p) {
		p += "/"
	}
	return p
}

// IsRoot reports whether the normalized path is a filesystem root or a
// drive root ("X:/"). Navigation up stops here.
func IsRoot(p string) bool {
	p = NormalizePath(p)
	if p == "/" {
		return true
	}
	return len(p) == 3 && isDriveLetter(p[:2])
}

// ParentPath returns the parent of the given path. Roots are their own
// parent.
func ParentPath(p string) string {
	p = NormalizePath(p)
	if IsRoot(p) {
		return p
	}

	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		// Relative single segment: parent degrades to root
		return "/"
	}
	parent := p[:idx]
	if parent == "" {
		return "/"
	}
	if isDriveLetter(parent) {
		return parent + "/"
	}
	return parent
}

// BaseName returns the last path segment of the normalized path, or ""
// for a root.
func BaseName(p string) string {
	p = NormalizePath(p)
	if IsRoot(p) {
		return ""
	}
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

func isDriveLetter(s string) bool {
	return len(s) == 2 && isLetter(s[0]) && s[1] == ':'
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
