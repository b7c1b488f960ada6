package sunxdcc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
	"xdcc-search/lib/telemetry"
	"xdcc-search/lib/xdcc"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, handler http.Handler, opts Options) *Engine {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	return New(opts)
}

func TestSearch(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:engines/sunxdcc")
	defer cleanup()

	var gotQuery url.Values
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write(ubuntuFixture)
	}), Options{})

	entries, err := engine.Search(context.Background(), "ubuntu", 1)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	require.Equal(t, "ubuntu", gotQuery.Get("sterm"))
	require.Equal(t, "1", gotQuery.Get("page"))

	require.Equal(t, "ubuntu-22.04.5-desktop-amd64.iso", entries[0].Filename)
	require.Equal(t, int64(1503238553), entries[0].Filesize)
	require.Equal(t, "Bud", entries[0].Bot)
}

func TestSearchArgumentValidation(t *testing.T) {
	// validation happens before any request goes out
	engine := New(Options{BaseURL: "http://127.0.0.1:0"})

	_, err := engine.Search(context.Background(), "", 1)
	require.ErrorIs(t, err, xdcc.ErrEmptyQuery)

	_, err = engine.Search(context.Background(), "   \t ", 1)
	require.ErrorIs(t, err, xdcc.ErrEmptyQuery)

	_, err = engine.Search(context.Background(), "ubuntu", 0)
	require.ErrorIs(t, err, xdcc.ErrInvalidPage)
}

func TestSearchTimeout(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond * 300)
		w.Write(ubuntuFixture)
	}), Options{Timeout: time.Millisecond * 30})

	entries, err := engine.Search(context.Background(), "ubuntu", 1)
	require.Empty(t, entries)

	var transportErr *xdcc.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, xdcc.KindTimeout, transportErr.Kind)
}

func TestSearchBadStatus(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}), Options{})

	_, err := engine.Search(context.Background(), "ubuntu", 1)

	var transportErr *xdcc.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, xdcc.KindStatus, transportErr.Kind)
	require.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
}

func TestSearchBodyTooLarge(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ubuntuFixture)
	}), Options{MaxBodySize: 64})

	_, err := engine.Search(context.Background(), "ubuntu", 1)

	var transportErr *xdcc.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, xdcc.KindBodyTooLarge, transportErr.Kind)
}

func TestSearchBodyCapStopsOversizedStream(t *testing.T) {
	// a response far past the cap is cut off during the read, the
	// upstream cannot make the client buffer all of it
	junk := strings.Repeat("a", 64<<10)
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 64; i++ {
			w.Write([]byte(junk))
		}
	}), Options{MaxBodySize: 1 << 10})

	entries, err := engine.Search(context.Background(), "ubuntu", 1)
	require.Empty(t, entries)

	var transportErr *xdcc.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, xdcc.KindBodyTooLarge, transportErr.Kind)
}

func TestSearchConnectionRefused(t *testing.T) {
	// nothing listens on this port
	engine := New(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := engine.Search(context.Background(), "ubuntu", 1)

	var transportErr *xdcc.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, xdcc.KindConnection, transportErr.Kind)
}

func TestConcurrentSearches(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sterm := r.URL.Query().Get("sterm")
		fmt.Fprintf(w, `{
			"botrec": ["12B/s"],
			"network": ["Rizon"],
			"bot": ["Bud"],
			"channel": ["#linux"],
			"packnum": ["#1"],
			"gets": ["1x"],
			"fsize": ["[1K]"],
			"fname": ["%s.iso"]
		}`, sterm)
	}), Options{})

	queries := []string{"ubuntu", "debian", "fedora", "alpine"}
	results := make([][]xdcc.Entry, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			results[i], errs[i] = engine.Search(context.Background(), query, 1)
		}(i, query)
	}
	wg.Wait()

	for i, query := range queries {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 1)
		require.True(
			t, strings.HasPrefix(results[i][0].Filename, query),
			"result for %q leaked into another search: %q", query, results[i][0].Filename,
		)
	}
}
