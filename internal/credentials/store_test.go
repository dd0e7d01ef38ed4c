package credentials

import (
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	tu "github.com/desertthunder/curator/internal/testing"
)

func newTestStore(t *testing.T, creds models.Credentials) (*Store, *tu.MemoryBackend) {
	t.Helper()
	backend := tu.NewMemoryBackend(creds)
	store, err := NewStore(backend, shared.NewLogger(nil))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, backend
}

func TestStore(t *testing.T) {
	t.Run("NewStore", func(t *testing.T) {
		t.Run("Loads Persisted Credentials", func(t *testing.T) {
			store, _ := newTestStore(t, models.Credentials{PrimaryAccess: "a", ProviderAccess: "p"})
			if !store.IsAuthenticated() {
				t.Error("expected store to be authenticated")
			}
			if got := store.Get(models.ProviderAccess); got != "p" {
				t.Errorf("expected provider token p, got %q", got)
			}
		})

		t.Run("Propagates Load Error", func(t *testing.T) {
			backend := tu.NewMemoryBackend(models.Credentials{})
			backend.LoadErr = errors.New("disk on fire")
			if _, err := NewStore(backend, nil); err == nil {
				t.Error("expected error")
			}
		})
	})

	t.Run("IsAuthenticated", func(t *testing.T) {
		tt := []struct {
			name  string
			creds models.Credentials
			want  bool
		}{
			{name: "empty", creds: models.Credentials{}, want: false},
			{name: "provider only", creds: models.Credentials{ProviderAccess: "p"}, want: false},
			{name: "refresh only", creds: models.Credentials{PrimaryRefresh: "r"}, want: false},
			{name: "primary access", creds: models.Credentials{PrimaryAccess: "a"}, want: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				store, _ := newTestStore(t, tc.creds)
				if got := store.IsAuthenticated(); got != tc.want {
					t.Errorf("IsAuthenticated() = %v, want %v", got, tc.want)
				}
			})
		}
	})

	t.Run("Set", func(t *testing.T) {
		t.Run("Partial Update Retains Omitted Fields", func(t *testing.T) {
			store, backend := newTestStore(t, models.Credentials{PrimaryAccess: "a1", PrimaryRefresh: "r1", ProviderAccess: "p1"})

			if err := store.Set("a2", "", "p2"); err != nil {
				t.Fatalf("failed to set: %v", err)
			}

			want := models.Credentials{PrimaryAccess: "a2", PrimaryRefresh: "r1", ProviderAccess: "p2"}
			if got := store.Snapshot(); got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
			if got := backend.Persisted(); got != want {
				t.Errorf("expected durable %+v, got %+v", want, got)
			}
		})

		t.Run("Writes Durably Every Time", func(t *testing.T) {
			store, backend := newTestStore(t, models.Credentials{})
			for i := 0; i < 3; i++ {
				if err := store.Set("a", "r", "p"); err != nil {
					t.Fatalf("failed to set: %v", err)
				}
			}
			if saves, _ := backend.Writes(); saves != 3 {
				t.Errorf("expected 3 durable writes, got %d", saves)
			}
		})

		t.Run("Failed Write Leaves Memory Untouched", func(t *testing.T) {
			store, backend := newTestStore(t, models.Credentials{PrimaryAccess: "a1"})
			backend.SaveErr = errors.New("read-only")

			if err := store.Set("a2", "", ""); err == nil {
				t.Fatal("expected error")
			}
			if got := store.Get(models.PrimaryAccess); got != "a1" {
				t.Errorf("expected a1 to survive failed write, got %q", got)
			}
		})
	})

	t.Run("Clear", func(t *testing.T) {
		t.Run("Removes All Three", func(t *testing.T) {
			store, backend := newTestStore(t, models.Credentials{PrimaryAccess: "a", PrimaryRefresh: "r", ProviderAccess: "p"})
			if err := store.Clear(); err != nil {
				t.Fatalf("failed to clear: %v", err)
			}
			if !store.Snapshot().IsZero() {
				t.Errorf("expected empty store, got %+v", store.Snapshot())
			}
			if !backend.Persisted().IsZero() {
				t.Errorf("expected empty backend, got %+v", backend.Persisted())
			}
			if store.IsAuthenticated() {
				t.Error("expected logged out")
			}
		})

		t.Run("Failed Clear Keeps Tokens", func(t *testing.T) {
			store, backend := newTestStore(t, models.Credentials{PrimaryAccess: "a"})
			backend.ClearErr = errors.New("locked")
			if err := store.Clear(); err == nil {
				t.Fatal("expected error")
			}
			if !store.IsAuthenticated() {
				t.Error("expected tokens to survive failed clear")
			}
		})
	})

	t.Run("TokenSource", func(t *testing.T) {
		store, _ := newTestStore(t, models.Credentials{PrimaryAccess: "a"})
		ts := store.TokenSource(models.ProviderAccess)

		if _, err := ts.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		if err := store.Set("", "", "p-new"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		tok, err := ts.Token()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		tok.SetAuthHeader(req)
		if got := req.Header.Get("Authorization"); got != "Bearer p-new" {
			t.Errorf("expected bearer header, got %q", got)
		}
	})
}
