package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	body        string
	contentType string
}

func newFakeR2(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			body:        string(body),
			contentType: r.Header.Get("Content-Type"),
		})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func TestUploadAndDelete(t *testing.T) {
	server, requests := newFakeR2(t)

	store, err := NewCloudflareStorage(context.Background(), R2Options{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "receipts",
		PublicURL:       "https://cdn.example.com/",
		Endpoint:        server.URL,
	}, nil)
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "receipts/42.pdf", strings.NewReader("%PDF-1.3"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/receipts/42.pdf", url)

	require.NoError(t, store.Delete(context.Background(), "receipts/42.pdf"))

	seen := requests()
	require.Len(t, seen, 2)
	assert.Equal(t, http.MethodPut, seen[0].method)
	assert.Equal(t, "/receipts/receipts/42.pdf", seen[0].path)
	assert.Equal(t, "application/pdf", seen[0].contentType)
	assert.Equal(t, http.MethodDelete, seen[1].method)
}

func TestPublicURLEmptyWithoutBase(t *testing.T) {
	store := &CloudflareStorage{bucket: "b"}
	assert.Equal(t, "", store.PublicURL("x.pdf"))
}

func TestNewCloudflareStorageNeedsBucket(t *testing.T) {
	_, err := NewCloudflareStorage(context.Background(), R2Options{}, nil)
	assert.Error(t, err)
}
