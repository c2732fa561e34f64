package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDownloadTarball(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/tarball/feature/login":
			if got := r.URL.EscapedPath(); !strings.Contains(got, "feature%2Flogin") {
				t.Errorf("ref not path-escaped: %s", got)
			}
			// GitHub hands out a redirect to a short lived download URL.
			http.Redirect(w, r, "/codeload/archive.tar.gz", http.StatusFound)
		case "/codeload/archive.tar.gz":
			_, _ = w.Write([]byte("tarball bytes"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rc, err := client.DownloadTarball(context.Background(), "feature/login")
	if err != nil {
		t.Fatalf("DownloadTarball() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	if string(data) != "tarball bytes" {
		t.Errorf("archive = %q, want %q", data, "tarball bytes")
	}
}

func TestDownloadTarball_OutlivesAPITimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("first"))
		flusher.Flush()
		// Keep the body open well past the JSON client's whole-response
		// timeout before finishing it.
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte(" second"))
	})
	client.httpClient.Timeout = 50 * time.Millisecond

	rc, err := client.DownloadTarball(context.Background(), "main")
	if err != nil {
		t.Fatalf("DownloadTarball() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading a slow archive must not hit the API timeout: %v", err)
	}
	if string(data) != "first second" {
		t.Errorf("archive = %q, want %q", data, "first second")
	}
}

func TestDownloadTarball_HonorsContextDeadline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("first"))
		flusher.Flush()
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(" second"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rc, err := client.DownloadTarball(ctx, "main")
	if err != nil {
		t.Fatalf("DownloadTarball() error = %v", err)
	}
	defer rc.Close()

	if _, err := io.ReadAll(rc); err == nil {
		t.Fatal("expected the context deadline to cut off the stream")
	}
}

func TestDownloadTarball_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	_, err := client.DownloadTarball(context.Background(), "gone")
	if err == nil {
		t.Fatal("DownloadTarball() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q should carry the status code", err)
	}
}
