package statestore

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// testStore creates a Store backed by a test HTTP server. The handler
// receives real S3 XML-protocol requests. SDK-level retries are disabled so
// tests can count attempts.
func testStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:           "fsn1",
		BaseEndpoint:     aws.String(server.URL),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
		Credentials:      credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
	})

	return &Store{
		s3:       client,
		bucket:   "stagehand-state",
		prefix:   DefaultPrefix,
		timeouts: config.TestTimeouts(),
		log:      logr.Discard(),
	}
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func TestNewStore_Validation(t *testing.T) {
	t.Parallel()

	valid := config.StateConfig{
		Endpoint: "https://fsn1.your-objectstorage.com",
		Region:   "fsn1",
		Bucket:   "stagehand-state",
	}

	tests := []struct {
		name      string
		cfg       config.StateConfig
		accessKey string
		secretKey string
		wantErr   string
	}{
		{
			name:      "missing bucket",
			cfg:       config.StateConfig{Region: "fsn1"},
			accessKey: "k",
			secretKey: "s",
			wantErr:   "bucket",
		},
		{
			name:      "missing region",
			cfg:       config.StateConfig{Bucket: "b"},
			accessKey: "k",
			secretKey: "s",
			wantErr:   "region",
		},
		{
			name:      "missing credentials",
			cfg:       valid,
			accessKey: "",
			secretKey: "",
			wantErr:   "credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewStore(tt.cfg, tt.accessKey, tt.secretKey)
			if err == nil {
				t.Fatal("expected error but got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewStore_DefaultsEndpointFromRegion(t *testing.T) {
	t.Parallel()

	store, err := NewStore(config.StateConfig{Region: "nbg1", Bucket: "b"}, "k", "s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestGet_Success(t *testing.T) {
	t.Parallel()

	content := []byte(`resource "hcloud_server" "staging" {}`)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/stagehand-state/definitions/extra_staging_PR_42.tf" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(200)
		_, _ = w.Write(content)
	})

	store := testStore(t, handler)

	data, etag, err := store.Get(context.Background(), "extra_staging_PR_42.tf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("data = %q, want %q", data, content)
	}
	if etag != `"etag-1"` {
		t.Errorf("etag = %q, want %q", etag, `"etag-1"`)
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 404, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>NoSuchKey</Code>
  <Message>The specified key does not exist.</Message>
</Error>`)
	})

	store := testStore(t, handler)

	_, _, err := store.Get(context.Background(), "missing.tf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestGet_RejectsBadNames(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	})

	store := testStore(t, handler)

	for _, name := range []string{"", "nested/file.tf"} {
		if _, _, err := store.Get(context.Background(), name); err == nil {
			t.Errorf("Get(%q) expected error, got nil", name)
		}
	}
}

func TestPut_SetsIfMatch(t *testing.T) {
	t.Parallel()

	var gotIfMatch string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotIfMatch = r.Header.Get("If-Match")
		w.Header().Set("ETag", `"etag-2"`)
		w.WriteHeader(200)
	})

	store := testStore(t, handler)

	etag, err := store.Put(context.Background(), "extra_staging_PR_42.tf", []byte("x"), PutOptions{IfMatch: `"etag-1"`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotIfMatch != `"etag-1"` {
		t.Errorf("If-Match = %q, want %q", gotIfMatch, `"etag-1"`)
	}
	if etag != `"etag-2"` {
		t.Errorf("etag = %q, want %q", etag, `"etag-2"`)
	}
}

func TestPut_SetsIfNoneMatch(t *testing.T) {
	t.Parallel()

	var gotIfNoneMatch string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfNoneMatch = r.Header.Get("If-None-Match")
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(200)
	})

	store := testStore(t, handler)

	_, err := store.Put(context.Background(), "new.tf", []byte("x"), PutOptions{IfNoneMatch: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotIfNoneMatch != "*" {
		t.Errorf("If-None-Match = %q, want %q", gotIfNoneMatch, "*")
	}
}

func TestPut_PreconditionFailed(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 412, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>PreconditionFailed</Code>
  <Message>At least one of the pre-conditions you specified did not hold</Message>
</Error>`)
	})

	store := testStore(t, handler)

	_, err := store.Put(context.Background(), "extra_staging_PR_42.tf", []byte("x"), PutOptions{IfMatch: `"stale"`})
	if !errors.Is(err, ErrPersistenceConflict) {
		t.Fatalf("expected ErrPersistenceConflict, got: %v", err)
	}
}

func TestPut_ConditionalRequestConflict(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 409, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>ConditionalRequestConflict</Code>
  <Message>A conflicting conditional operation is in progress</Message>
</Error>`)
	})

	store := testStore(t, handler)

	_, err := store.Put(context.Background(), "new.tf", []byte("x"), PutOptions{IfNoneMatch: true})
	if !errors.Is(err, ErrPersistenceConflict) {
		t.Fatalf("expected ErrPersistenceConflict, got: %v", err)
	}
}

func TestPut_ServerError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 500, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>InternalError</Code>
  <Message>Internal Error</Message>
</Error>`)
	})

	store := testStore(t, handler)

	_, err := store.Put(context.Background(), "x.tf", []byte("x"), PutOptions{})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if errors.Is(err, ErrPersistenceConflict) {
		t.Error("server errors must not classify as conflicts")
	}
}

func TestList_TrimsPrefixAndPaginates(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("prefix"); got != "definitions/" {
			t.Errorf("prefix = %q, want %q", got, "definitions/")
		}

		if r.URL.Query().Get("continuation-token") == "" {
			xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>stagehand-state</Name>
  <Prefix>definitions/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1</MaxKeys>
  <IsTruncated>true</IsTruncated>
  <NextContinuationToken>tok-1</NextContinuationToken>
  <Contents>
    <Key>definitions/</Key>
    <LastModified>2026-08-01T12:00:00.000Z</LastModified>
    <Size>0</Size>
  </Contents>
  <Contents>
    <Key>definitions/extra_staging_PR_42.tf</Key>
    <LastModified>2026-08-01T12:00:00.000Z</LastModified>
    <Size>512</Size>
  </Contents>
</ListBucketResult>`)
			return
		}

		xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>stagehand-state</Name>
  <Prefix>definitions/</Prefix>
  <KeyCount>1</KeyCount>
  <MaxKeys>1</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>definitions/extra_staging_PR_7.tf</Key>
    <LastModified>2026-08-02T09:30:00.000Z</LastModified>
    <Size>498</Size>
  </Contents>
</ListBucketResult>`)
	})

	store := testStore(t, handler)

	defs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d: %+v", len(defs), defs)
	}
	if defs[0].Name != "extra_staging_PR_42.tf" {
		t.Errorf("defs[0].Name = %q", defs[0].Name)
	}
	if defs[0].Size != 512 {
		t.Errorf("defs[0].Size = %d, want 512", defs[0].Size)
	}
	if defs[1].Name != "extra_staging_PR_7.tf" {
		t.Errorf("defs[1].Name = %q", defs[1].Name)
	}
	if defs[1].LastModified.IsZero() {
		t.Error("defs[1].LastModified should be set")
	}
}

func TestDelete_Success(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(204)
	})

	store := testStore(t, handler)

	if err := store.Delete(context.Background(), "extra_staging_PR_42.tf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureBucket_AlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 409, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>BucketAlreadyOwnedByYou</Code>
  <Message>Your previous request to create the named bucket succeeded and you already own it.</Message>
</Error>`)
	})

	store := testStore(t, handler)

	if err := store.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("expected nil error for already owned bucket, got: %v", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})

	store := testStore(t, handler)

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
