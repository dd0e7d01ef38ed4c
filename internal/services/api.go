// Curation backend API over the tokenized client
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

const defaultPerPage = 50

// BlockPage is one page of the raw-blocks listing.
type BlockPage struct {
	Items   []models.CurationBlock `json:"items"`
	Total   int                    `json:"total"`
	Page    int                    `json:"page"`
	PerPage int                    `json:"per_page"`
	Pages   int                    `json:"pages"`
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// CurationService reads and updates curation blocks on the backend.
type CurationService struct {
	baseURL string
	client  *Client
	perPage int
	logger  *log.Logger
}

// NewCurationService creates a [CurationService] for the backend at baseURL.
func NewCurationService(baseURL string, client *Client, logger *log.Logger) *CurationService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CurationService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		perPage: defaultPerPage,
		logger:  shared.WithLogger(logger, "component", "curation-api"),
	}
}

// SetPageSize overrides the per_page value used when listing blocks.
func (a *CurationService) SetPageSize(n int) {
	if n > 0 {
		a.perPage = n
	}
}

// BlockPage fetches a single page of blocks. Pages are 1-based.
func (a *CurationService) BlockPage(ctx context.Context, page int) (*BlockPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(a.perPage))

	var out BlockPage
	if err := a.do(ctx, http.MethodGet, "/curation/raw-blocks?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RawBlocks fetches every block, following pages until the reported page count is reached.
func (a *CurationService) RawBlocks(ctx context.Context) ([]models.CurationBlock, error) {
	var blocks []models.CurationBlock
	for page := 1; ; page++ {
		p, err := a.BlockPage(ctx, page)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, p.Items...)

		if page >= p.Pages || len(p.Items) == 0 {
			break
		}
	}

	a.logger.Debug("fetched blocks", "count", len(blocks))
	return blocks, nil
}

// RawBlock fetches a single block by id.
func (a *CurationService) RawBlock(ctx context.Context, id int) (*models.CurationBlock, error) {
	var block models.CurationBlock
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/curation/raw-blocks/%d", id), &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// ProcessBlock marks a block as processed and returns its new state.
func (a *CurationService) ProcessBlock(ctx context.Context, id int) (*models.CurationBlock, error) {
	var block models.CurationBlock
	if err := a.do(ctx, http.MethodPost, fmt.Sprintf("/curation/raw-blocks/%d/process", id), &block); err != nil {
		return nil, err
	}
	a.logger.Info("processed block", "id", id)
	return &block, nil
}

// Get performs an authenticated GET to path and returns the raw response.
func (a *CurationService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, upstreamError("request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (a *CurationService) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return upstreamError(method+" "+path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrBlockNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", shared.ErrUpstreamUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %w", shared.ErrUpstreamUnavailable, path, err)
	}
	return nil
}
