package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/constants"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CloudinaryClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewCloudinaryClient(config.MediaConfig{
		CloudName:  "demo",
		APIKey:     "key",
		APISecret:  "secret",
		APIBaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestNewStoreFallsBackToNoop(t *testing.T) {
	store := NewStore(config.MediaConfig{})
	if _, ok := store.(NoopStore); !ok {
		t.Fatalf("expected noop store, got %T", store)
	}
	if err := store.DeleteFolder(context.Background(), "announcements/1"); !errors.Is(err, ErrMediaStoreUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestListResourcesByFolderFollowsCursor(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			t.Errorf("unexpected basic auth: %s %s %v", user, pass, ok)
		}
		if r.URL.Path != "/v1_1/demo/resources/image/upload" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("prefix") != "announcements/7/" {
			t.Errorf("unexpected prefix: %s", r.URL.Query().Get("prefix"))
		}
		if r.URL.Query().Get("next_cursor") == "" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"resources":   []map[string]string{{"public_id": "announcements/7/a"}},
				"next_cursor": "page2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"resources": []map[string]string{{"public_id": "announcements/7/b"}},
		})
	})

	ids, err := client.ListResourcesByFolder(context.Background(), "announcements/7", constants.MediaKindImage)
	if err != nil {
		t.Fatalf("list resources failed: %v", err)
	}
	if calls != 2 || len(ids) != 2 || ids[1] != "announcements/7/b" {
		t.Fatalf("unexpected result: calls=%d ids=%v", calls, ids)
	}
}

func TestDeleteResourcesChunks(t *testing.T) {
	var mu sync.Mutex
	batches := make([]int, 0)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		mu.Lock()
		batches = append(batches, len(r.URL.Query()["public_ids[]"]))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"deleted":{}}`))
	})

	ids := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		ids = append(ids, fmt.Sprintf("announcements/1/v%d", i))
	}
	if err := client.DeleteResources(context.Background(), ids, constants.MediaKindVideo); err != nil {
		t.Fatalf("delete resources failed: %v", err)
	}
	if len(batches) != 2 || batches[0] != 100 || batches[1] != 50 {
		t.Fatalf("unexpected batches: %v", batches)
	}
}

func TestDeleteFolderReportsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1_1/demo/folders/announcements/9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
	})
	if err := client.DeleteFolder(context.Background(), "announcements/9/"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
}

func TestRejectsUnknownKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	})
	if _, err := client.ListResourcesByFolder(context.Background(), "x", "raw"); !errors.Is(err, ErrKindInvalid) {
		t.Fatalf("expected kind invalid, got %v", err)
	}
}
