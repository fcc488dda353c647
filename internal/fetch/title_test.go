package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (r *stubRenderer) Render(context.Context, string) (string, error) {
	r.calls++
	return r.html, r.err
}

func pageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchTitle_Static(t *testing.T) {
	srv := pageServer(t, http.StatusOK, `<html><head><title>Best Mugs | Mug Mag</title></head></html>`)
	renderer := &stubRenderer{}
	f := NewTitleFetcher(nil, renderer, nil)

	title, err := f.FetchTitle(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Best Mugs", title)
	assert.Equal(t, 0, renderer.calls)
}

func TestFetchTitle_RendersWhenStaticHasNoTitle(t *testing.T) {
	srv := pageServer(t, http.StatusOK, `<html><body><div id="app"></div></body></html>`)
	renderer := &stubRenderer{html: `<html><head><title>Rendered Title</title></head></html>`}
	f := NewTitleFetcher(nil, renderer, nil)

	title, err := f.FetchTitle(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Rendered Title", title)
	assert.Equal(t, 1, renderer.calls)
}

func TestFetchTitle_RendersOnBlockedStatus(t *testing.T) {
	srv := pageServer(t, http.StatusForbidden, "denied")
	renderer := &stubRenderer{html: `<html><head><title>After Challenge</title></head></html>`}
	f := NewTitleFetcher(nil, renderer, nil)

	title, err := f.FetchTitle(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "After Challenge", title)
}

func TestFetchTitle_NoRenderer(t *testing.T) {
	srv := pageServer(t, http.StatusForbidden, "denied")
	f := NewTitleFetcher(nil, nil, nil)

	_, err := f.FetchTitle(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchTitle_RendererError(t *testing.T) {
	srv := pageServer(t, http.StatusOK, `<html><body></body></html>`)
	f := NewTitleFetcher(nil, &stubRenderer{err: errors.New("no chrome")}, nil)

	_, err := f.FetchTitle(context.Background(), srv.URL)
	require.Error(t, err)
}
