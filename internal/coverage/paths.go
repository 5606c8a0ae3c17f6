package coverage

import (
	"path"
	"strings"
)

// ToSlash converts host separators to forward slashes regardless of the
// platform the report was produced on.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// isAbs reports whether p is absolute in POSIX or Windows drive form.
func isAbs(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// relTo returns p relative to root when p lies under root.
func relTo(p, root string) (string, bool) {
	if root == "" {
		return "", false
	}
	if p == root {
		return ".", true
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if strings.HasPrefix(p, prefix) {
		return p[len(prefix):], true
	}
	return "", false
}

func cleanRel(p string) string {
	p = path.Clean(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// NormalizePath maps a filename found in a coverage document to the POSIX path
// relative to root.
//
// Relative filenames are first resolved against the document's source roots;
// the first candidate that lies under root wins. Absolute filenames under root
// are made relative. Anything else is returned cleaned, so the same logical
// file from reports generated in different directories merges under one key.
func NormalizePath(filename string, sources []string, root string) string {
	p := ToSlash(strings.TrimSpace(filename))
	root = strings.TrimSuffix(path.Clean(ToSlash(root)), "/")
	if root == "." {
		root = ""
	}

	if isAbs(p) {
		p = path.Clean(p)
		if rel, ok := relTo(p, root); ok {
			return rel
		}
		return p
	}

	if root != "" {
		for _, src := range sources {
			src = ToSlash(strings.TrimSpace(src))
			if src == "" {
				continue
			}
			candidate := path.Clean(path.Join(src, p))
			if !isAbs(candidate) {
				candidate = path.Join(root, candidate)
			}
			if rel, ok := relTo(candidate, root); ok && rel != "." {
				return rel
			}
		}
	}

	return cleanRel(p)
}
