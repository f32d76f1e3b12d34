// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities API for study metadata.
//
// The client performs two-step retrieval (ESearch for PMIDs, EFetch for
// article XML), infers study attributes the scoring stage needs (study type,
// human flag, sample size), and filters out results that never actually
// mention the trend being researched. Results are deduplicated by PMID
// before they leave this package.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	eSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	eFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// NCBI allows 3 requests/second without an API key and 10/second with one.
const (
	keylessDelay = 334 * time.Millisecond
	keyedDelay   = 100 * time.Millisecond

	// fetchBatchSize is NCBI's recommended maximum IDs per EFetch call.
	fetchBatchSize = 200
)

// Client talks to the E-utilities API with rate limiting and retry.
type Client struct {
	HTTP *http.Client
	cfg  types.PubMedConfig

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient builds a client, filling config defaults.
func NewClient(cfg types.PubMedConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "evidence-engine/0.1"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	if cfg.RequestDelay <= 0 {
		if cfg.APIKey != "" {
			cfg.RequestDelay = keyedDelay
		} else {
			cfg.RequestDelay = keylessDelay
		}
	}
	return &Client{
		HTTP: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// throttle enforces the minimum delay between consecutive requests.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.cfg.RequestDelay - now.Sub(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// params fills the common E-utilities parameters.
func (c *Client) params(extra url.Values) url.Values {
	p := url.Values{"db": {"pubmed"}}
	for k, vs := range extra {
		p[k] = vs
	}
	if c.cfg.Email != "" {
		p.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		p.Set("api_key", c.cfg.APIKey)
	}
	return p
}

func (c *Client) get(ctx context.Context, base string, p url.Values) (*http.Response, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+p.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("E-utilities request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// eSearchResponse mirrors the ESearch JSON envelope. NCBI returns counts as
// strings.
type eSearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search queries ESearch and returns matching PMIDs, most relevant first.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}

	p := c.params(url.Values{
		"term":    {query},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	})

	resp, err := c.get(ctx, eSearchBase, p)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var esr eSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&esr); err != nil {
		return nil, fmt.Errorf("parsing ESearch response: %w", err)
	}
	return esr.Result.IDList, nil
}

// Fetch retrieves full article metadata for the given PMIDs, batching
// requests per NCBI's recommendation. Articles that cannot be parsed are
// dropped; an empty PMID list yields an empty result.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]types.Study, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	var studies []types.Study
	for start := 0; start < len(pmids); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(pmids) {
			end = len(pmids)
		}

		p := c.params(url.Values{
			"id":      {strings.Join(pmids[start:end], ",")},
			"retmode": {"xml"},
		})

		resp, err := c.get(ctx, eFetchBase, p)
		if err != nil {
			return studies, err
		}

		var set pubmedArticleSet
		err = xml.NewDecoder(resp.Body).Decode(&set)
		resp.Body.Close()
		if err != nil {
			return studies, fmt.Errorf("parsing EFetch response: %w", err)
		}

		for _, article := range set.Articles {
			if study, ok := parseArticle(article); ok {
				studies = append(studies, study)
			}
		}
	}
	return studies, nil
}

// SearchAndFetch runs Search then Fetch and deduplicates by PMID,
// keeping the first (most relevant) occurrence.
func (c *Client) SearchAndFetch(ctx context.Context, query string, maxResults int) ([]types.Study, error) {
	pmids, err := c.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	studies, err := c.Fetch(ctx, pmids)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(studies))
	deduped := studies[:0]
	for _, s := range studies {
		if seen[s.PubMedID] {
			continue
		}
		seen[s.PubMedID] = true
		deduped = append(deduped, s)
	}
	return deduped, nil
}
