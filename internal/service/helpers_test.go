package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/session"
	"github.com/sefazor/storefront/pkg/apiclient"
	"github.com/stretchr/testify/require"
)

// fakeBackend routes "METHOD /path" to handlers and counts every call.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	counts   map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{
		t:        t,
		handlers: map[string]http.HandlerFunc{},
		counts:   map[string]int{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.counts[key]++
	h, ok := f.handlers[key]
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no route for "+key)
		return
	}
	h(w, r)
}

func (f *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = h
}

func (f *fakeBackend) calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[method+" "+path]
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total
}

func (f *fakeBackend) client(tokens apiclient.TokenSource) *apiclient.Client {
	f.t.Helper()
	client, err := apiclient.New(apiclient.Options{
		BaseURL:  f.server.URL,
		Tokens:   tokens,
		Notifier: apiclient.NotifierFunc(func(string) {}),
	})
	require.NoError(f.t, err)
	return client
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.SuccessResponse(status, data, ""))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": status, "message": message})
}

func decodeBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

type staticUser string

func (u staticUser) UserID(context.Context) (string, error) {
	if u == "" {
		return "", session.ErrNoSession
	}
	return string(u), nil
}

type roleRecorder struct {
	mu    sync.Mutex
	roles []models.Role
	err   error
}

func (r *roleRecorder) UpdateRole(_ context.Context, role models.Role) (models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.roles = append(r.roles, role)
	return models.RoleUser, nil
}

func (r *roleRecorder) written() []models.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Role(nil), r.roles...)
}
