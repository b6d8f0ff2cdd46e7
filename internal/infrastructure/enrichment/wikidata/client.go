// Package wikidata implements ports.EnrichmentSource against the Wikidata
// SPARQL endpoint. Entities are matched on their LEI (P1278) and industries
// read from P452.
package wikidata

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
)

// DefaultMaxRetries bounds retries of throttled or failed requests.
const DefaultMaxRetries = 3

const singleQuery = `SELECT ?item ?itemDescription ?industryLabel WHERE {
  ?item wdt:P1278 "%s".
  OPTIONAL { ?item wdt:P452 ?industry. }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
ORDER BY ?item ?industryLabel`

const batchQuery = `SELECT ?lei ?item ?itemDescription ?industryLabel WHERE {
  VALUES (?lei) { %s }
  ?item wdt:P1278 ?lei.
  OPTIONAL { ?item wdt:P452 ?industry. }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
ORDER BY ?lei ?item ?industryLabel`

// Client queries Wikidata for industry information.
type Client struct {
	endpoint   string
	userAgent  string
	http       *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackOff sets the retry policy factory.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = fn }
}

// WithMaxRetries sets how many times a request is retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Wikidata client from configuration.
func NewClient(cfg config.WikidataConfig, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("wikidata endpoint is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid wikidata endpoint: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	c := &Client{
		endpoint:   cfg.Endpoint,
		userAgent:  cfg.UserAgent,
		http:       &http.Client{Timeout: timeout},
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "wikidata")
	return c, nil
}

// LookupIndustry returns the enrichment for lei, or nil when Wikidata has no
// item carrying that LEI.
func (c *Client) LookupIndustry(ctx context.Context, lei string) (*entities.Enrichment, error) {
	lei = entities.NormalizeIdentifier(lei)
	if err := entities.ValidateLEI(lei); err != nil {
		return nil, err
	}

	resp, err := c.query(ctx, fmt.Sprintf(singleQuery, lei))
	if err != nil {
		return nil, err
	}

	found := collectBindings(resp.Results.Bindings, func(binding) string { return lei })
	e, ok := found[lei]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// LookupIndustries resolves several LEIs in one request. LEIs unknown to
// Wikidata are absent from the result.
func (c *Client) LookupIndustries(ctx context.Context, leis []string) (map[string]entities.Enrichment, error) {
	if len(leis) == 0 {
		return map[string]entities.Enrichment{}, nil
	}

	values := make([]string, 0, len(leis))
	for _, lei := range leis {
		lei = entities.NormalizeIdentifier(lei)
		if err := entities.ValidateLEI(lei); err != nil {
			return nil, err
		}
		values = append(values, fmt.Sprintf(`("%s")`, lei))
	}

	resp, err := c.query(ctx, fmt.Sprintf(batchQuery, strings.Join(values, " ")))
	if err != nil {
		return nil, err
	}

	return collectBindings(resp.Results.Bindings, func(b binding) string { return b.LEI.Value }), nil
}

type value struct {
	Value string `json:"value"`
}

type binding struct {
	LEI             value `json:"lei"`
	Item            value `json:"item"`
	ItemDescription value `json:"itemDescription"`
	IndustryLabel   value `json:"industryLabel"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []binding `json:"bindings"`
	} `json:"results"`
}

// collectBindings folds result rows into one Enrichment per LEI. When several
// items carry the same LEI the lowest Q-number wins. Sectors are sorted so the
// result does not depend on row order.
func collectBindings(rows []binding, leiOf func(binding) string) map[string]entities.Enrichment {
	out := make(map[string]entities.Enrichment)
	for _, b := range rows {
		lei := leiOf(b)
		if lei == "" || b.Item.Value == "" {
			continue
		}
		id := b.Item.Value[strings.LastIndex(b.Item.Value, "/")+1:]
		e, ok := out[lei]
		if !ok || compareItemIDs(id, e.SourceID) < 0 {
			e = entities.Enrichment{SourceID: id, Description: b.ItemDescription.Value}
		} else if id != e.SourceID {
			continue
		}
		if label := strings.TrimSpace(b.IndustryLabel.Value); label != "" && !slices.Contains(e.Sectors, label) {
			e.Sectors = append(e.Sectors, label)
		}
		out[lei] = e
	}
	for lei, e := range out {
		slices.Sort(e.Sectors)
		out[lei] = e
	}
	return out
}

// compareItemIDs orders Wikidata IDs such as Q312 numerically.
func compareItemIDs(a, b string) int {
	na, errA := strconv.ParseUint(strings.TrimPrefix(a, "Q"), 10, 64)
	nb, errB := strconv.ParseUint(strings.TrimPrefix(b, "Q"), 10, 64)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return cmp.Compare(na, nb)
}

// query runs a SPARQL query, retrying throttling and server errors.
func (c *Client) query(ctx context.Context, sparql string) (*sparqlResponse, error) {
	reqURL := c.endpoint + "?" + url.Values{"query": {sparql}, "format": {"json"}}.Encode()

	var out sparqlResponse
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building request: %w", err))
		}
		req.Header.Set("Accept", "application/sparql-results+json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("querying wikidata: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("wikidata returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("wikidata returned %s: %s", resp.Status, strings.TrimSpace(string(body))))
		}

		out = sparqlResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding wikidata response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying wikidata query", "attempt", attempt, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return &out, nil
}
