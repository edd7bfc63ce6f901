package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"LinkSynth/internal/config"
	"LinkSynth/internal/domain"
)

// fakeS3 answers just enough of the S3 API: bucket existence checks succeed
// and object puts are delegated to the handler.
func fakeS3(t *testing.T, put http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method == http.MethodGet && r.URL.Query().Has("location") {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`))
			return
		}
		put(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestStore(t *testing.T, server *httptest.Server, publicURL string) *MinioStore {
	t.Helper()

	store, err := NewMinioStore(context.Background(), config.Storage{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "archive",
		PublicURL: publicURL,
	})
	if err != nil {
		t.Fatalf("NewMinioStore error: %v", err)
	}
	return store
}

func TestPutReturnsPublicURL(t *testing.T) {
	t.Parallel()

	var putPath string
	server := fakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		putPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	store := newTestStore(t, server, "https://cdn.test/archive")

	url, err := store.Put(context.Background(), "raw/q-1/1.html", []byte("<html/>"), "text/html")
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if url != "https://cdn.test/archive/raw/q-1/1.html" {
		t.Fatalf("unexpected public url %q", url)
	}
	if !strings.Contains(putPath, "/archive/raw/q-1/1.html") {
		t.Fatalf("object stored under unexpected path %q", putPath)
	}
}

func TestPutFailureIsUpstream(t *testing.T) {
	t.Parallel()

	server := fakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend offline", http.StatusInternalServerError)
	})

	store := newTestStore(t, server, "")

	_, err := store.Put(context.Background(), "raw/q-1/1.html", []byte("<html/>"), "text/html")
	if err == nil {
		t.Fatalf("expected error on failed upload")
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("failed upload not classified upstream: %v", err)
	}
	if domain.Classify(err) != domain.KindUpstream {
		t.Fatalf("unexpected kind %q for %v", domain.Classify(err), err)
	}
}
