package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fieldform/internal/core"
)

func TestFileFontSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "font.ttf")
	require.NoError(t, os.WriteFile(path, []byte("font-bytes"), 0o600))

	data, err := FileFontSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("font-bytes"), data)

	_, err = FileFontSource{Path: filepath.Join(dir, "missing.ttf")}.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrFontUnavailable)

	_, err = FileFontSource{}.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrFontUnavailable)

	empty := filepath.Join(dir, "empty.ttf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = FileFontSource{Path: empty}.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrFontUnavailable)
}

func TestHTTPFontSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/font.ttf":
			_, _ = w.Write([]byte("remote-font"))
		case "/empty.ttf":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	data, err := NewHTTPFontSource(srv.URL+"/font.ttf", time.Second).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("remote-font"), data)

	_, err = NewHTTPFontSource(srv.URL+"/missing.ttf", time.Second).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrFontUnavailable)

	_, err = NewHTTPFontSource(srv.URL+"/empty.ttf", time.Second).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrFontUnavailable)

	_, err = NewHTTPFontSource("", 0).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrFontUnavailable)
}

type staticFont struct {
	data  []byte
	err   error
	calls int
}

func (s *staticFont) Load(context.Context) ([]byte, error) {
	s.calls++
	return s.data, s.err
}

func TestChainFontSource(t *testing.T) {
	t.Run("first success wins", func(t *testing.T) {
		failing := &staticFont{err: errors.New("font unavailable: missing")}
		working := &staticFont{data: []byte("ok")}
		unused := &staticFont{data: []byte("unused")}

		data, err := ChainFontSource{failing, working, unused}.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), data)
		assert.Equal(t, 0, unused.calls)
	})

	t.Run("all failing reports font unavailable", func(t *testing.T) {
		chain := NewFontSource(filepath.Join(t.TempDir(), "none.ttf"), "", 0)
		_, err := chain.Load(context.Background())
		assert.ErrorIs(t, err, core.ErrFontUnavailable)
	})

	t.Run("empty chain reports font unavailable", func(t *testing.T) {
		_, err := NewFontSource("", "", 0).Load(context.Background())
		assert.ErrorIs(t, err, core.ErrFontUnavailable)
	})
}
