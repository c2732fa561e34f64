package statestore

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
)

// casServer simulates a bucket with a single definition behind conditional
// writes. It counts requests so tests can assert the retry behavior.
type casServer struct {
	mu      sync.Mutex
	content []byte
	etag    string
	gets    int
	puts    int

	// conflictPuts makes the first n PUTs fail with PreconditionFailed,
	// bumping the stored etag as if another writer won the race.
	conflictPuts int
}

func (s *casServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case "GET":
		s.gets++
		if s.content == nil {
			xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("ETag", s.etag)
		w.WriteHeader(200)
		_, _ = w.Write(s.content)

	case "PUT":
		s.puts++
		if s.conflictPuts > 0 {
			s.conflictPuts--
			s.etag = s.etag + "x"
			xmlResponse(w, 412, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>PreconditionFailed</Code><Message>Precondition failed</Message></Error>`)
			return
		}
		if match := r.Header.Get("If-Match"); match != "" && match != s.etag {
			xmlResponse(w, 412, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>PreconditionFailed</Code><Message>Precondition failed</Message></Error>`)
			return
		}
		if r.Header.Get("If-None-Match") == "*" && s.content != nil {
			xmlResponse(w, 412, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>PreconditionFailed</Code><Message>Precondition failed</Message></Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.content = body
		s.etag = `"` + string(rune('a'+s.puts)) + `"`
		w.Header().Set("ETag", s.etag)
		w.WriteHeader(200)

	default:
		w.WriteHeader(404)
	}
}

func (s *casServer) counts() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.puts
}

func TestSaveDefinition_CreatesWhenAbsent(t *testing.T) {
	t.Parallel()

	srv := &casServer{}
	store := testStore(t, srv)

	err := store.SaveDefinition(context.Background(), "extra_staging_PR_42.tf", []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gets, puts := srv.counts()
	if gets != 1 || puts != 1 {
		t.Errorf("gets = %d, puts = %d, want 1 and 1", gets, puts)
	}
}

func TestSaveDefinition_NoOpWhenIdentical(t *testing.T) {
	t.Parallel()

	srv := &casServer{content: []byte("content"), etag: `"v1"`}
	store := testStore(t, srv)

	err := store.SaveDefinition(context.Background(), "extra_staging_PR_42.tf", []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, puts := srv.counts()
	if puts != 0 {
		t.Errorf("puts = %d, identical content must not be rewritten", puts)
	}
}

func TestSaveDefinition_RetriesAfterConflict(t *testing.T) {
	t.Parallel()

	srv := &casServer{content: []byte("old"), etag: `"v1"`, conflictPuts: 1}
	store := testStore(t, srv)

	err := store.SaveDefinition(context.Background(), "extra_staging_PR_42.tf", []byte("new"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gets, puts := srv.counts()
	if puts != 2 {
		t.Errorf("puts = %d, want 2 (conflict then success)", puts)
	}
	if gets != 2 {
		t.Errorf("gets = %d, want 2 (etag re-read after conflict)", gets)
	}
}

func TestSaveDefinition_GivesUpAfterBoundedAttempts(t *testing.T) {
	t.Parallel()

	srv := &casServer{content: []byte("old"), etag: `"v1"`, conflictPuts: 100}
	store := testStore(t, srv)

	err := store.SaveDefinition(context.Background(), "extra_staging_PR_42.tf", []byte("new"))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	_, puts := srv.counts()
	want := store.timeouts.RetryMaxAttempts + 1
	if puts != want {
		t.Errorf("puts = %d, want %d", puts, want)
	}
}

func TestSaveDefinition_ServerErrorIsFatal(t *testing.T) {
	t.Parallel()

	var puts int
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
		case "PUT":
			mu.Lock()
			puts++
			mu.Unlock()
			xmlResponse(w, 500, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>InternalError</Code><Message>Internal Error</Message></Error>`)
		}
	})

	store := testStore(t, handler)

	err := store.SaveDefinition(context.Background(), "extra_staging_PR_42.tf", []byte("x"))
	if err == nil {
		t.Fatal("expected error but got nil")
	}

	mu.Lock()
	defer mu.Unlock()
	if puts != 1 {
		t.Errorf("puts = %d, want 1 (server errors are not retried)", puts)
	}
}
