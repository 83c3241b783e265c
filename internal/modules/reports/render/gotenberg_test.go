package render

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

func TestGotenbergPostsMultipartDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "true", r.FormValue("preferCssPageSize"))
		f, hdr, err := r.FormFile("files")
		require.NoError(t, err)
		require.Equal(t, "index.html", hdr.Filename)
		body, _ := io.ReadAll(f)
		require.Equal(t, "<html>doc</html>", string(body))
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	g, err := NewGotenbergBackend(logger.Nop(), GotenbergConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := g.HTMLToPDF(context.Background(), "<html>doc</html>")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7 fake", string(out))
}

func TestGotenbergRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()

	g, err := NewGotenbergBackend(logger.Nop(), GotenbergConfig{BaseURL: srv.URL, MaxRetries: 1, RetryBase: time.Millisecond})
	require.NoError(t, err)
	out, err := g.HTMLToPNG(context.Background(), "<html></html>")
	require.NoError(t, err)
	require.Equal(t, "png", string(out))
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGotenbergDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad form", http.StatusBadRequest)
	}))
	defer srv.Close()

	g, err := NewGotenbergBackend(logger.Nop(), GotenbergConfig{BaseURL: srv.URL, MaxRetries: 3, RetryBase: time.Millisecond})
	require.NoError(t, err)
	_, err = g.HTMLToPDF(context.Background(), "<html></html>")
	var ge *GotenbergError
	require.ErrorAs(t, err, &ge)
	require.Equal(t, http.StatusBadRequest, ge.StatusCode)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGotenbergRequiresURL(t *testing.T) {
	_, err := NewGotenbergBackend(logger.Nop(), GotenbergConfig{})
	require.Error(t, err)
}
