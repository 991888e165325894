package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/fieldform/internal/core"
)

// DefaultFontFetchTimeout bounds a single remote font download.
const DefaultFontFetchTimeout = 20 * time.Second

// FontSource supplies the TrueType font embedded in PDF exports.
// Failures are reported wrapped in core.ErrFontUnavailable.
type FontSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileFontSource reads the font from a path on disk.
type FileFontSource struct {
	Path string
}

// Load implements FontSource.
func (s FileFontSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return nil, fmt.Errorf("%w: no font path configured", core.ErrFontUnavailable)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrFontUnavailable, s.Path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", core.ErrFontUnavailable, s.Path)
	}
	return data, nil
}

// HTTPFontSource downloads the font on every export.
type HTTPFontSource struct {
	URL  string
	http *resty.Client
}

// NewHTTPFontSource creates a source that fetches url with the given
// timeout. A non-positive timeout selects DefaultFontFetchTimeout.
func NewHTTPFontSource(url string, timeout time.Duration) *HTTPFontSource {
	if timeout <= 0 {
		timeout = DefaultFontFetchTimeout
	}
	return &HTTPFontSource{URL: url, http: resty.New().SetTimeout(timeout)}
}

// Load implements FontSource.
func (s *HTTPFontSource) Load(ctx context.Context) ([]byte, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("%w: no font url configured", core.ErrFontUnavailable)
	}
	r, err := s.http.R().SetContext(ctx).Get(s.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: fetch %s: %v", core.ErrFontUnavailable, s.URL, err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("%w: fetch %s: %s", core.ErrFontUnavailable, s.URL, r.Status())
	}
	body := r.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: fetch %s: empty body", core.ErrFontUnavailable, s.URL)
	}
	return body, nil
}

// ChainFontSource tries each source in order and returns the first font
// obtained.
type ChainFontSource []FontSource

// Load implements FontSource.
func (c ChainFontSource) Load(ctx context.Context) ([]byte, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: no font source configured", core.ErrFontUnavailable)
	}
	var errs []error
	for _, src := range c {
		data, err := src.Load(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// NewFontSource builds the source used by the server: the local file
// first, then the remote URL, skipping whichever is not configured.
func NewFontSource(path, url string, timeout time.Duration) FontSource {
	var chain ChainFontSource
	if path != "" {
		chain = append(chain, FileFontSource{Path: path})
	}
	if url != "" {
		chain = append(chain, NewHTTPFontSource(url, timeout))
	}
	return chain
}
