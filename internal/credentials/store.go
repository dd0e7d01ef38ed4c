// package credentials holds the process-wide token triple
package credentials

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"golang.org/x/oauth2"
)

// Store is the durable holder of the credential triple.
//
// It is created once per process and injected into every component that reads or writes tokens.
// Writes go to the [models.CredentialBackend] first and only then replace the in-memory triple,
// so readers never observe a value the backend failed to persist.
type Store struct {
	mu      sync.RWMutex
	creds   models.Credentials
	backend models.CredentialBackend
	logger  *log.Logger
}

// NewStore loads the current triple from backend.
func NewStore(backend models.CredentialBackend, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	creds, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return &Store{
		creds:   creds,
		backend: backend,
		logger:  shared.WithLogger(logger, "component", "credentials"),
	}, nil
}

// Get returns the token of the given kind, or "" when absent.
func (s *Store) Get(kind models.TokenKind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Get(kind)
}

// Snapshot returns a copy of the whole triple.
func (s *Store) Snapshot() models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// IsAuthenticated reports whether a primary access token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Get(models.PrimaryAccess) != ""
}

// Set applies a partial update: empty arguments keep the stored value.
func (s *Store) Set(access, refresh, providerAccess string) error {
	update := models.Credentials{PrimaryAccess: access, PrimaryRefresh: refresh, ProviderAccess: providerAccess}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.creds.Merge(update)
	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	s.creds = next

	s.logger.Debug("credentials updated",
		"access", update.PrimaryAccess != "",
		"refresh", update.PrimaryRefresh != "",
		"provider", update.ProviderAccess != "",
	)
	return nil
}

// Clear removes all three tokens at once.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	s.creds = models.Credentials{}

	s.logger.Debug("credentials cleared")
	return nil
}

// TokenSource adapts one token kind of the store to [oauth2.TokenSource].
//
// The token is read on every call so a refresh is visible to the next request.
func (s *Store) TokenSource(kind models.TokenKind) oauth2.TokenSource {
	return tokenSource{store: s, kind: kind}
}

type tokenSource struct {
	store *Store
	kind  models.TokenKind
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	value := ts.store.Get(ts.kind)
	if value == "" {
		return nil, fmt.Errorf("%w: no %s token", shared.ErrNotAuthenticated, ts.kind)
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}
