// Package loader turns a source descriptor into raw answer key markup.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pavelanni/anskey/internal/model"
)

// Fetcher retrieves the document at url. Retries, headers and mirrors are its business.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Loader yields markup from a local path or through a Fetcher.
type Loader struct {
	fetcher Fetcher
}

// New creates a Loader. fetcher may be nil when only local sources are used.
func New(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads source from disk when isLocal, otherwise fetches it.
func (l *Loader) Load(ctx context.Context, source string, isLocal bool) (string, error) {
	if isLocal {
		data, err := os.ReadFile(source)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", model.ErrNotFound, source)
			}
			return "", fmt.Errorf("read %s: %w", source, err)
		}
		slog.Debug("loaded local answer key", "path", source, "bytes", len(data))
		return string(data), nil
	}

	if l.fetcher == nil {
		return "", &model.FetchError{URL: source, Err: errors.New("no fetcher configured")}
	}
	text, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return "", &model.FetchError{URL: source, Err: err}
	}
	slog.Debug("fetched answer key", "url", source, "bytes", len(text))
	return text, nil
}
