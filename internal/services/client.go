package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/credentials"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// HeaderRequestID carries the logical request id across the retry.
const HeaderRequestID = "X-Request-ID"

// QueryProviderToken is the query parameter the curation backend reads the session token from.
const QueryProviderToken = "sp_token"

// Refresher renews the session after a 401.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Variant selects how credentials are attached to outbound requests.
type Variant int

const (
	// Bearer sends the provider access token as an Authorization header.
	Bearer Variant = iota
	// Tokenized sends the primary access token as an Authorization header and as sp_token.
	Tokenized
)

func (v Variant) String() string {
	if v == Tokenized {
		return "tokenized"
	}
	return "bearer"
}

// ClientOpts configures a [Client]. Zero values select defaults.
type ClientOpts struct {
	Transport http.RoundTripper // defaults to [http.DefaultTransport]
	Limiter   *rate.Limiter     // nil disables throttling
	Logger    *log.Logger
}

// Client attaches credentials to requests and retries once after a session refresh.
//
// Each call moves through Sent, then on a 401 through Refreshing and Retried, and ends in Done.
// A non-401 first response is returned unmodified. The second response is returned regardless of
// its status. A failed refresh ends the call with [shared.ErrSessionExpired] and no retry.
//
// Client implements [http.RoundTripper] so SDK clients can be layered on top of it.
type Client struct {
	variant   Variant
	base      http.RoundTripper
	store     *credentials.Store
	refresher Refresher
	limiter   *rate.Limiter
	logger    *log.Logger
	http      *http.Client
}

// NewBearerClient creates a [Client] for the streaming provider.
func NewBearerClient(store *credentials.Store, refresher Refresher, opts ClientOpts) *Client {
	return newClient(Bearer, store, refresher, opts)
}

// NewTokenizedClient creates a [Client] for the curation backend.
func NewTokenizedClient(store *credentials.Store, refresher Refresher, opts ClientOpts) *Client {
	return newClient(Tokenized, store, refresher, opts)
}

func newClient(variant Variant, store *credentials.Store, refresher Refresher, opts ClientOpts) *Client {
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	c := &Client{
		variant:   variant,
		base:      opts.Transport,
		store:     store,
		refresher: refresher,
		limiter:   opts.Limiter,
		logger:    shared.WithLogger(opts.Logger, "component", "client", "variant", variant.String()),
	}
	c.http = &http.Client{Transport: c}
	return c
}

// HTTPClient returns an [http.Client] whose transport is c.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Do sends req through the retry state machine.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// RoundTrip implements [http.RoundTripper].
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	id := uuid.NewString()

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, getBody, id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Debug("refreshing after 401", "id", id, "method", req.Method, "path", req.URL.Path)

	if _, err := c.refresher.Refresh(ctx); err != nil {
		switch {
		case errors.Is(err, shared.ErrSessionExpired):
			return nil, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// The caller gave up; the session itself is still valid.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrSessionExpired, err)
	}

	c.logger.Debug("retrying", "id", id)
	return c.send(ctx, req, getBody, id)
}

func (c *Client) send(ctx context.Context, req *http.Request, getBody func() (io.ReadCloser, error), id string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	out := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("failed to reset request body: %w", err)
		}
		out.Body = body
	}

	out.Header.Set(HeaderRequestID, id)
	c.inject(out)

	resp, err := c.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("request", "id", id, "method", out.Method, "path", out.URL.Path, "status", resp.StatusCode)
	return resp, nil
}

// inject reads the current token from the store, so a retry picks up a refreshed value.
// A missing token sends the request bare and lets the upstream answer 401.
func (c *Client) inject(req *http.Request) {
	switch c.variant {
	case Bearer:
		tok, err := c.store.TokenSource(models.ProviderAccess).Token()
		if err != nil {
			req.Header.Del("Authorization")
			return
		}
		tok.SetAuthHeader(req)
	case Tokenized:
		token := c.store.Get(models.PrimaryAccess)
		if token == "" {
			req.Header.Del("Authorization")
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)
		q := req.URL.Query()
		q.Set(QueryProviderToken, token)
		req.URL.RawQuery = q.Encode()
	}
}

// replayableBody returns a function producing a fresh copy of the request body.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}
