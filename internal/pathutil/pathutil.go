// Package pathutil maps virtual filesystem paths onto absolute XRootD paths.
package pathutil

import (
	"errors"
	"path"
	"strings"
	"unicode/utf8"
)

// ErrInvalidPath is returned for names containing NUL bytes or invalid UTF-8.
var ErrInvalidPath = errors.New("invalid path")

// Normalize cleans an absolute base path.
// It converts backslashes, resolves "." and ".." and removes any trailing
// slash. The result always starts with "/".
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean("/" + p)
}

// Validate rejects names the remote protocol cannot carry.
func Validate(name string) error {
	if strings.IndexByte(name, 0) >= 0 || !utf8.ValidString(name) {
		return ErrInvalidPath
	}
	return nil
}

// Clean returns the canonical virtual form of name: slash separated,
// relative to the root, "." for the root itself. ".." never climbs above
// the root.
func Clean(name string) string {
	name = strings.TrimPrefix(Normalize(name), "/")
	if name == "" {
		return "."
	}
	return name
}

// Resolve joins name under base and returns the absolute remote path.
// base must already be normalized. The result never carries a query string.
func Resolve(base, name string) (string, error) {
	if err := Validate(name); err != nil {
		return "", err
	}
	rel := Normalize(name)
	if base == "/" || base == "" {
		return rel, nil
	}
	if rel == "/" {
		return base, nil
	}
	return base + rel, nil
}

// Rel is the inverse of Resolve for paths inside base.
func Rel(base, abs string) string {
	if base == "/" || base == "" {
		return Clean(abs)
	}
	return Clean(strings.TrimPrefix(abs, base))
}

// Join joins a virtual directory and an entry name.
func Join(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}

// Depth returns the number of segments in a virtual path. The root has depth 0.
func Depth(name string) int {
	name = Clean(name)
	if name == "." {
		return 0
	}
	return strings.Count(name, "/") + 1
}

// Within reports whether name equals dir or lies below it. Both are
// virtual paths.
func Within(dir, name string) bool {
	dir, name = Clean(dir), Clean(name)
	if dir == "." {
		return true
	}
	return name == dir || strings.HasPrefix(name, dir+"/")
}
