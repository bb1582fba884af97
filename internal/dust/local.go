package dust

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStore serves resources from a directory on disk.
type LocalStore struct {
	root   string
	prefix string
	logger *slog.Logger
}

// NewLocalStore returns a store rooted at root. A nil logger discards.
func NewLocalStore(root string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LocalStore{
		root:   root,
		prefix: DefaultPrefix,
		logger: logger,
	}
}

// Root returns the directory the store serves.
func (s *LocalStore) Root() string {
	return s.root
}

// URL returns the resource URL for a slash-separated name.
func (s *LocalStore) URL(name string) string {
	return ResourceURL(s.prefix, name)
}

// Locate maps a resource URL to its resource name and on-disk path.
func (s *LocalStore) Locate(url string) (string, string, error) {
	name, err := ResourceName(s.prefix, url)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", url, err)
	}
	return name, filepath.Join(s.root, filepath.FromSlash(name)), nil
}

func (s *LocalStore) List(ctx context.Context, url string) (*Listing, error) {
	name, p, err := s.Locate(url)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, statError(url, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", url, ErrNotDir)
	}

	dirEntries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	dirURL := s.URL(name)
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		var children *[]Entry
		if de.IsDir() {
			children = &[]Entry{}
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			URL:      Join(dirURL, de.Name()),
			Children: children,
		})
	}

	s.logger.Debug("listed directory", "url", dirURL, "entries", len(entries))
	return &Listing{Path: name, URL: dirURL, Entries: entries}, nil
}

func (s *LocalStore) Read(ctx context.Context, url string) ([]byte, error) {
	_, p, err := s.Locate(url)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, statError(url, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", url, ErrIsDir)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

func (s *LocalStore) Write(ctx context.Context, url string, data []byte) error {
	name, p, err := s.Locate(url)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%s: %w", url, ErrInvalidName)
	}

	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", url, ErrIsDir)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", p, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}

	s.logger.Info("wrote resource", "url", url, "bytes", len(data))
	return nil
}

func (s *LocalStore) Mkdir(ctx context.Context, url string) error {
	_, p, err := s.Locate(url)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", p, err)
	}

	s.logger.Info("created directory", "url", url)
	return nil
}

func (s *LocalStore) Rename(ctx context.Context, url, newName string) (string, error) {
	name, p, err := s.Locate(url)
	if err != nil {
		return "", err
	}
	if name == "" || !ValidName(newName) {
		return "", fmt.Errorf("rename %s to %q: %w", url, newName, ErrInvalidName)
	}

	if _, err := os.Stat(p); err != nil {
		return "", statError(url, err)
	}

	target := filepath.Join(filepath.Dir(p), newName)
	if target == p {
		return url, nil
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("rename %s to %q: %w", url, newName, ErrExists)
	}

	if err := os.Rename(p, target); err != nil {
		return "", fmt.Errorf("renaming %s: %w", p, err)
	}

	newURL := Join(Parent(s.URL(name)), newName)
	s.logger.Info("renamed resource", "from", url, "to", newURL)
	return newURL, nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	name, p, err := s.Locate(url)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("refusing to delete dust root: %w", ErrInvalidName)
	}

	if _, err := os.Stat(p); err != nil {
		return statError(url, err)
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("deleting %s: %w", p, err)
	}

	s.logger.Info("deleted resource", "url", url)
	return nil
}

func statError(url string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	return fmt.Errorf("stat %s: %w", url, err)
}
