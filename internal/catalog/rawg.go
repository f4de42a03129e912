package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JustMelih/GameVault/internal/observability"
)

const defaultRAWGBaseURL = "https://api.rawg.io/api/"

// RAWGConfig configures the RAWG client.
type RAWGConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// RAWGClient searches the RAWG games database.
type RAWGClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *observability.Logger
}

type rawgResponse struct {
	Results []rawgGame `json:"results"`
}

type rawgGame struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Released        string      `json:"released"`
	RatingsCount    int         `json:"ratings_count"`
	Metacritic      *int        `json:"metacritic"`
	Genres          []rawgNamed `json:"genres"`
	ParentPlatforms []struct {
		Platform rawgNamed `json:"platform"`
	} `json:"parent_platforms"`
}

type rawgNamed struct {
	Name string `json:"name"`
}

// NewRAWGClient creates a RAWG client. A nil httpClient uses a default one.
func NewRAWGClient(cfg RAWGConfig, httpClient *http.Client, logger *observability.Logger) *RAWGClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRAWGBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &RAWGClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     logger.WithComponent("rawg_client"),
	}
}

// Search implements Searcher.
func (c *RAWGClient) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("search", query)
	params.Set("page_size", strconv.Itoa(limit))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"games?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var body rawgResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	entries := make([]Entry, 0, len(body.Results))
	for _, g := range body.Results {
		entries = append(entries, g.toEntry())
	}

	c.logger.Debug().
		Str("query", query).
		Int("limit", limit).
		Int("results", len(entries)).
		Dur("took", time.Since(start)).
		Msg("Catalog search complete")

	return entries, nil
}

func (g rawgGame) toEntry() Entry {
	e := Entry{
		ID:           g.ID,
		Name:         g.Name,
		Released:     g.Released,
		RatingsCount: g.RatingsCount,
		Metacritic:   g.Metacritic,
		Genres:       make([]string, 0, len(g.Genres)),
		Platforms:    make([]string, 0, len(g.ParentPlatforms)),
	}
	if e.RatingsCount < 0 {
		e.RatingsCount = 0
	}
	for _, genre := range g.Genres {
		if genre.Name != "" {
			e.Genres = append(e.Genres, genre.Name)
		}
	}
	for _, p := range g.ParentPlatforms {
		if p.Platform.Name != "" {
			e.Platforms = append(e.Platforms, p.Platform.Name)
		}
	}
	return e
}
