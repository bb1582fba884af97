// Package dust provides access to a dust directory: the user data tree
// holding scripts, data and audio. Resources are addressed by URL, the
// same locators the HTTP API hands out, so a local store and a remote
// client are interchangeable.
package dust

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
)

const (
	// APIRoot is the versioned API mount point.
	APIRoot = "/api/v1"
	// DefaultPrefix is the URL prefix of every dust resource.
	DefaultPrefix = APIRoot + "/dust"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrExists      = errors.New("resource already exists")
	ErrNotDir      = errors.New("resource is not a directory")
	ErrIsDir       = errors.New("resource is a directory")
	ErrInvalidName = errors.New("invalid resource name")
	ErrOutsideRoot = errors.New("resource outside dust root")
)

// Entry is a single item in a directory listing. Directories carry a
// non-nil (possibly empty) Children slice; files leave it nil.
type Entry struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Children *[]Entry `json:"children,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Children != nil
}

// Listing is the contents of one directory.
type Listing struct {
	Path    string  `json:"path"`
	URL     string  `json:"url"`
	Entries []Entry `json:"entries"`
}

// Store is the set of resource operations the explorer and server need.
type Store interface {
	List(ctx context.Context, url string) (*Listing, error)
	Read(ctx context.Context, url string) ([]byte, error)
	Write(ctx context.Context, url string, data []byte) error
	Mkdir(ctx context.Context, url string) error
	// Rename moves the resource to newName within the same parent
	// directory and returns the new URL.
	Rename(ctx context.Context, url, newName string) (string, error)
	Delete(ctx context.Context, url string) error
}

// ResourceURL returns the URL for a slash-separated resource name,
// escaping each segment.
func ResourceURL(prefix, name string) string {
	var escaped []string
	for _, seg := range strings.Split(name, "/") {
		if seg == "" {
			continue
		}
		escaped = append(escaped, url.PathEscape(seg))
	}
	return path.Join(prefix, strings.Join(escaped, "/"))
}

// ResourceName is the inverse of ResourceURL. It rejects URLs outside
// prefix and any segment that would climb out of the root.
func ResourceName(prefix, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, prefix) {
		return "", ErrOutsideRoot
	}
	rest := strings.TrimPrefix(rawURL, prefix)
	if rest != "" && rest[0] != '/' {
		return "", ErrOutsideRoot
	}

	var segs []string
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" {
			continue
		}
		name, err := url.PathUnescape(seg)
		if err != nil {
			return "", ErrInvalidName
		}
		if name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
			return "", ErrOutsideRoot
		}
		segs = append(segs, name)
	}
	return strings.Join(segs, "/"), nil
}

// ValidName reports whether name can be used as a single path element.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// Parent returns the URL of the directory containing rawURL.
func Parent(rawURL string) string {
	return path.Dir(rawURL)
}

// Base returns the unescaped last segment of rawURL.
func Base(rawURL string) string {
	base := path.Base(rawURL)
	if name, err := url.PathUnescape(base); err == nil {
		return name
	}
	return base
}

// Join appends an unescaped name to a directory URL.
func Join(dirURL, name string) string {
	return path.Join(dirURL, url.PathEscape(name))
}
