package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	objectstorage "github.com/knowhive/knowhive/pkg/object-storage"
	"github.com/knowhive/knowhive/pkg/object-storage/s3"
)

// bucketServer answers path style object requests for a single bucket.
type bucketServer struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (b *bucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := strings.CutPrefix(r.URL.Path, "/docs/")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[key] = body
		b.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, exists := b.objects[key]
		if !exists {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", b.types[key])
		w.Write(body)
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Objects(t *testing.T) {
	backend := &bucketServer{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	cli, err := s3.NewS3Client(srv.URL, "us-east-1", "docs", "ak", "sk", s3.WithPathStyle(true))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cli.Put(ctx, "/documents/u1/a.txt", strings.NewReader("hello"), "text/plain"))
	assert.Equal(t, []byte("hello"), backend.objects["documents/u1/a.txt"])

	obj, err := cli.Get(ctx, "documents/u1/a.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "text/plain", obj.ContentType)

	url, err := cli.GenGetObjectPreSignURL(ctx, "documents/u1/a.txt", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/docs/documents/u1/a.txt")
	assert.Contains(t, url, "X-Amz-Signature")

	require.NoError(t, cli.Delete(ctx, "documents/u1/a.txt"))
	_, err = cli.Get(ctx, "documents/u1/a.txt")
	assert.ErrorIs(t, err, objectstorage.ErrObjectNotFound)

	assert.ErrorIs(t, cli.Put(ctx, "../a.txt", strings.NewReader(""), ""), objectstorage.ErrInvalidKey)
}
