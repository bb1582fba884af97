package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tormodhaugland/maiden/internal/dust"
	"github.com/tormodhaugland/maiden/internal/outline"
)

// storeTimeout bounds every store round trip started from the UI.
const storeTimeout = 15 * time.Second

type listingMsg struct {
	url     string
	listing *dust.Listing
	err     error
}

type bufferMsg struct {
	url     string
	data    []byte
	outline *outline.Outline
	err     error
}

type savedMsg struct {
	url string
	err error
}

type deletedMsg struct {
	url string
	err error
}

type renamedMsg struct {
	from string
	to   string
	err  error
}

type duplicatedMsg struct {
	from string
	to   string
	err  error
}

func listCmd(ctx context.Context, api dust.Store, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		listing, err := api.List(ctx, url)
		return listingMsg{url: url, listing: listing, err: err}
	}
}

func readCmd(ctx context.Context, api dust.Store, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		data, err := api.Read(ctx, url)
		if err != nil {
			return bufferMsg{url: url, err: err}
		}
		return bufferMsg{url: url, data: data, outline: parseOutline(ctx, url, data)}
	}
}

func saveCmd(ctx context.Context, api dust.Store, url string, data []byte) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		return savedMsg{url: url, err: api.Write(ctx, url, data)}
	}
}

func deleteCmd(ctx context.Context, api dust.Store, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		return deletedMsg{url: url, err: api.Delete(ctx, url)}
	}
}

func renameCmd(ctx context.Context, api dust.Store, url, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		to, err := api.Rename(ctx, url, name)
		return renamedMsg{from: url, to: to, err: err}
	}
}

// duplicateCmd copies from to to. data is the cached source content, or
// nil to read it from the store first.
func duplicateCmd(ctx context.Context, api dust.Store, from, to string, data []byte) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		if data == nil {
			var err error
			if data, err = api.Read(ctx, from); err != nil {
				return duplicatedMsg{from: from, to: to, err: err}
			}
		}
		return duplicatedMsg{from: from, to: to, err: api.Write(ctx, to, data)}
	}
}

func parseOutline(ctx context.Context, url string, data []byte) *outline.Outline {
	name := dust.Base(url)
	if !outline.Supported(name) {
		return nil
	}
	out, err := outline.Parse(ctx, data, name)
	if err != nil {
		return nil
	}
	return out
}
