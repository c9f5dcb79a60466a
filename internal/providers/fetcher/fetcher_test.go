package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

var samplePage = "<!doctype html><html><head><title>Shop</title></head><body>" +
	strings.Repeat("<p>Welcome to the store, browse our catalogue.</p>", 5) +
	"</body></html>"

func newTestFetcher(timeout time.Duration) *Fetcher {
	return New(Config{Timeout: timeout}, nil)
}

func requireFetchKind(t *testing.T, err error, kind audit.FetchErrorKind) *audit.FetchError {
	t.Helper()
	var fe *audit.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, kind, fe.Kind)
	return fe
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	body, err := newTestFetcher(time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, samplePage, body)

	for name, value := range BrowserHeaders() {
		assert.Equal(t, value, got.Get(name), name)
	}
	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
}

func TestFetchClassifiesStatus(t *testing.T) {
	tests := []struct {
		status   int
		kind     audit.FetchErrorKind
		contains string
	}{
		{http.StatusForbidden, audit.FetchBlocked, "403"},
		{http.StatusTooManyRequests, audit.FetchRateLimited, "try again"},
		{http.StatusBadRequest, audit.FetchBadRequest, "malformed"},
		{http.StatusInternalServerError, audit.FetchHTTPStatus, "500 Internal Server Error"},
		{http.StatusNotFound, audit.FetchHTTPStatus, "404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(samplePage))
			}))
			defer srv.Close()

			_, err := newTestFetcher(time.Second).Fetch(context.Background(), srv.URL)
			fe := requireFetchKind(t, err, tt.kind)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Contains(t, fe.Error(), tt.contains)
			assert.Equal(t, 400, audit.StatusCode(err))
		})
	}
}

func TestFetchBlockedMessageDiffersFromRateLimited(t *testing.T) {
	assert.NotEqual(t,
		statusError("u", http.StatusForbidden).Message,
		statusError("u", http.StatusTooManyRequests).Message,
	)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestFetcher(50*time.Millisecond).Fetch(context.Background(), srv.URL)
	requireFetchKind(t, err, audit.FetchTimeout)
	assert.True(t, audit.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchCancelledIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestFetcher(5*time.Second).Fetch(ctx, srv.URL)
	requireFetchKind(t, err, audit.FetchTransport)
}

func TestFetchRejectsShortBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Just a moment...</body></html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(time.Second).Fetch(context.Background(), srv.URL)
	requireFetchKind(t, err, audit.FetchTooShort)
}

func TestFetchRejectsBinaryBody(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 256)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	_, err := newTestFetcher(time.Second).Fetch(context.Background(), srv.URL)
	fe := requireFetchKind(t, err, audit.FetchUnsupported)
	assert.Contains(t, fe.Message, "image/png")
}

func TestFetchDecodesContentEncoding(t *testing.T) {
	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(b)
			_ = zw.Close()
			return buf.Bytes()
		},
		"deflate": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			_, _ = zw.Write(b)
			_ = zw.Close()
			return buf.Bytes()
		},
		"zstd": func(b []byte) []byte {
			enc, _ := zstd.NewWriter(nil)
			defer enc.Close()
			return enc.EncodeAll(b, nil)
		},
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			payload := encode([]byte(samplePage))
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Header().Set("Content-Encoding", name)
				_, _ = w.Write(payload)
			}))
			defer srv.Close()

			body, err := newTestFetcher(time.Second).Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, samplePage, body)
		})
	}
}

func TestFetchConvertsDeclaredCharset(t *testing.T) {
	latin1 := []byte("<html><body><p>Caf\xe9 del mar. " + strings.Repeat("Reserve su mesa hoy mismo. ", 6) + "</p></body></html>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write(latin1)
	}))
	defer srv.Close()

	page, err := newTestFetcher(time.Second).FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, page.Body, "Café del mar")
	assert.Equal(t, "iso-8859-1", page.Charset)
}

func TestFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("<p>filler text</p>", 1000)))
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second, MaxBody: 512}, nil)
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 512)
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher(time.Second).Fetch(context.Background(), addr)
	fe := requireFetchKind(t, err, audit.FetchTransport)
	assert.True(t, errors.Unwrap(fe) != nil)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "https://example.com", false},
		{"  example.com/pricing ", "https://example.com/pricing", false},
		{"//example.com", "https://example.com", false},
		{"http://example.com", "http://example.com", false},
		{"https://example.com/a?b=c", "https://example.com/a?b=c", false},
		{"example.com/login?next=https://example.com/home", "https://example.com/login?next=https://example.com/home", false},
		{"example.com/?ref=http://x.io", "https://example.com/?ref=http://x.io", false},
		{"HTTPS://example.com", "https://example.com", false},
		{"ftp://example.com", "", true},
		{"", "", true},
		{"https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				requireFetchKind(t, err, audit.FetchInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultTimeout(t *testing.T) {
	assert.Equal(t, 20*time.Second, DefaultConfig().Timeout)

	f := New(Config{}, nil)
	assert.Equal(t, 20*time.Second, f.cfg.Timeout)
	assert.Equal(t, int64(DefaultMaxBody), f.cfg.MaxBody)
}
