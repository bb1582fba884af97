package tui

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/tormodhaugland/maiden/internal/dust"
)

// dirChangedMsg reports that the directory at url changed on disk.
type dirChangedMsg struct {
	url string
}

// watcher turns filesystem events under a local store's root into
// directory URLs that need relisting.
type watcher struct {
	fsw    *fsnotify.Watcher
	store  *dust.LocalStore
	events chan string
	logger *slog.Logger
}

func newWatcher(store *dust.LocalStore, logger *slog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:    fsw,
		store:  store,
		events: make(chan string, 64),
		logger: logger,
	}
	if err := w.addRecursive(store.Root()); err != nil {
		logger.Error("failed to watch dust directory", "error", err)
	}

	go w.run()
	return w, nil
}

func (w *watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *watcher) run() {
	defer close(w.events)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}

			url, ok := w.dirURL(filepath.Dir(event.Name))
			if !ok {
				continue
			}
			select {
			case w.events <- url:
			default:
				w.logger.Debug("dropped fs event", "url", url)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *watcher) dirURL(dir string) (string, bool) {
	rel, err := filepath.Rel(w.store.Root(), dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if rel == "." {
		rel = ""
	}
	return w.store.URL(filepath.ToSlash(rel)), true
}

// wait returns a command that delivers the next change.
func (w *watcher) wait() tea.Cmd {
	return func() tea.Msg {
		url, ok := <-w.events
		if !ok {
			return nil
		}
		return dirChangedMsg{url: url}
	}
}

func (w *watcher) Close() error {
	return w.fsw.Close()
}
