package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nais/publish/pkg/publishd/storage"
	"github.com/stretchr/testify/assert"
)

var timestamp = time.UnixMilli(1700000000123)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		hint storage.Hint
		key  string
	}{
		{
			name: "plain filename",
			hint: storage.Hint{Owner: "user-1", Filename: "site.zip", Time: timestamp},
			key:  "deployments/user-1/1700000000123_site.zip",
		},
		{
			name: "path components are stripped",
			hint: storage.Hint{Owner: "user-1", Filename: "../../etc/passwd", Time: timestamp},
			key:  "deployments/user-1/1700000000123_passwd",
		},
		{
			name: "windows paths",
			hint: storage.Hint{Owner: "user-1", Filename: `C:\Users\ada\site.zip`, Time: timestamp},
			key:  "deployments/user-1/1700000000123_site.zip",
		},
		{
			name: "unsafe characters",
			hint: storage.Hint{Owner: "auth0|123", Filename: "my site (1).zip", Time: timestamp},
			key:  "deployments/auth0_123/1700000000123_my_site_1_.zip",
		},
		{
			name: "missing filename",
			hint: storage.Hint{Owner: "user-1", Time: timestamp},
			key:  "deployments/user-1/1700000000123_artifact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, storage.ObjectKey(tt.hint))
		})
	}
}

type fakeS3 struct {
	lock     sync.Mutex
	buckets  map[string]bool
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()

	path := strings.TrimSuffix(r.URL.Path, "/")
	f.requests = append(f.requests, r.Method+" "+path)
	bucket := strings.Split(strings.TrimPrefix(path, "/"), "/")[0]
	_, _ = io.Copy(io.Discard, r.Body)

	switch {
	case r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && path == "/"+bucket:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestS3Storage_Store(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	store, err := storage.NewS3Storage(storage.Config{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "artifacts",
		Location:  "us-east-1",
		PublicURL: "https://cdn.example.com",
	})
	assert.NoError(t, err)

	payload := []byte("zipfile contents")
	hint := storage.Hint{Owner: "user-1", Filename: "site.zip", Time: timestamp}

	url, err := store.Store(context.Background(), bytes.NewReader(payload), int64(len(payload)), hint)
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/artifacts/deployments/user-1/1700000000123_site.zip", url)

	_, err = store.Store(context.Background(), bytes.NewReader(payload), int64(len(payload)), hint)
	assert.NoError(t, err)

	fake.lock.Lock()
	defer fake.lock.Unlock()
	assert.Equal(t, []string{
		"HEAD /artifacts",
		"PUT /artifacts",
		"PUT /artifacts/deployments/user-1/1700000000123_site.zip",
		"PUT /artifacts/deployments/user-1/1700000000123_site.zip",
	}, fake.requests)
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, storage.Config{}.Enabled())
	assert.False(t, storage.Config{Endpoint: "localhost:9000"}.Enabled())
	assert.True(t, storage.Config{Endpoint: "localhost:9000", Bucket: "artifacts"}.Enabled())
}
