package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/credentials"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken        string `json:"access_token"`
	RefreshToken       string `json:"refresh_token,omitempty"`
	SpotifyAccessToken string `json:"spotify_access_token"`
}

// Coordinator exchanges the stored refresh token for a new credential triple.
//
// Concurrent callers share a single outstanding exchange. A failed exchange clears the store and
// fires every hook registered with [Coordinator.OnExpired].
type Coordinator struct {
	store      *credentials.Store
	baseURL    string
	httpClient *http.Client
	group      singleflight.Group
	logger     *log.Logger

	mu    sync.Mutex
	hooks []func()
}

// NewCoordinator creates a refresh coordinator against the backend at baseURL.
//
// httpClient must not route through an authenticated client, since that client calls back into
// the coordinator on 401.
func NewCoordinator(store *credentials.Store, baseURL string, httpClient *http.Client, logger *log.Logger) *Coordinator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator{
		store:      store,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     shared.WithLogger(logger, "component", "refresh"),
	}
}

// OnExpired registers fn to run after every failed refresh.
func (c *Coordinator) OnExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Refresh returns the new primary access token.
//
// When an exchange is already running the caller waits for its result instead of starting another.
// The exchange itself is detached from ctx; cancelling ctx only stops this caller from waiting.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.exchange(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight refresh")
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) exchange(ctx context.Context) (string, error) {
	refresh := c.store.Get(models.PrimaryRefresh)
	if refresh == "" {
		return "", c.expire(shared.ErrNoRefreshToken)
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: refresh})
	if err != nil {
		return "", c.expire(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return "", c.expire(err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("refreshing session")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.expire(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", c.expire(fmt.Errorf("refresh rejected with status %d", resp.StatusCode))
	}

	var payload refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", c.expire(fmt.Errorf("failed to decode refresh response: %w", err))
	}
	if payload.AccessToken == "" {
		return "", c.expire(errors.New("refresh response missing access token"))
	}

	if err := c.store.Set(payload.AccessToken, payload.RefreshToken, payload.SpotifyAccessToken); err != nil {
		return "", c.expire(err)
	}

	c.logger.Info("session refreshed", "rotated", payload.RefreshToken != "")
	return payload.AccessToken, nil
}

// expire clears the store, runs hooks and returns cause wrapped in [shared.ErrSessionExpired].
func (c *Coordinator) expire(cause error) error {
	c.logger.Warn("session expired", "cause", cause)

	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear credentials", "error", err)
	}

	c.mu.Lock()
	hooks := append([]func(){}, c.hooks...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	return fmt.Errorf("%w: %w", shared.ErrSessionExpired, cause)
}
