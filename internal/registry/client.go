// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry queries the CRISTIN database of Norwegian scientific
// publications. Author names are resolved to person IDs through the v1
// persons API; publication records come from the ws results endpoint.
// All responses pass through an optional read-through byte cache.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/nmbu-cigene/pubgrab/internal/httputil"
	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPerPage = 50
)

// Query identifies one author lookup with its filters. Constructed once
// per CLI input and never mutated.
type Query struct {
	// Author is a person name, or a numeric CRISTIN person ID.
	Author string

	// FromYear and ToYear bound the publication years; 0 means open.
	FromYear int
	ToYear   int

	// Category restricts results to one hovedkategori code.
	Category string
}

// Validate rejects queries the registry would answer nonsensically.
// Called before any network activity.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Author) == "" {
		return fmt.Errorf("empty author name")
	}
	if q.FromYear > 0 && q.ToYear > 0 && q.FromYear > q.ToYear {
		return fmt.Errorf("invalid year range: from %d is after to %d", q.FromYear, q.ToYear)
	}
	return nil
}

// CacheKey returns the canonical cache key for the query. url.Values
// encoding sorts keys and escapes values, so differently filtered
// queries never collide.
func (q Query) CacheKey() string {
	v := url.Values{}
	v.Set("name", q.Author)
	if q.FromYear > 0 {
		v.Set("fra", strconv.Itoa(q.FromYear))
	}
	if q.ToYear > 0 {
		v.Set("til", strconv.Itoa(q.ToYear))
	}
	if q.Category != "" {
		v.Set("hovedkategori", q.Category)
	}
	return "results?" + v.Encode()
}

func personCacheKey(name string) string {
	v := url.Values{}
	v.Set("name", name)
	return "persons?" + v.Encode()
}

// pageKey derives the cache key for continuation pages. Page 1 uses
// the bare key so single-page responses keep stable keys.
func pageKey(key string, page int) string {
	if page <= 1 {
		return key
	}
	return fmt.Sprintf("%s#page=%d", key, page)
}

// ResponseCache is the byte store consulted before issuing HTTP calls.
// A nil cache disables caching; cache failures degrade to network
// fetches and are never fatal.
type ResponseCache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, payload []byte) error
}

// Client fetches publication records from the registry.
type Client struct {
	http   *http.Client
	cfg    types.RegistryConfig
	store  ResponseCache
	log    zerolog.Logger
	people *gocache.Cache // author name → person ID, in-process memo
}

// NewClient builds a registry client. store may be nil.
func NewClient(cfg types.RegistryConfig, store ResponseCache, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		cfg:    cfg,
		store:  store,
		log:    log,
		people: gocache.New(30*time.Minute, time.Hour),
	}
}

func (c *Client) perPage() int {
	if c.cfg.PerPage > 0 {
		return c.cfg.PerPage
	}
	return defaultPerPage
}

// PersonID resolves an author name to a CRISTIN person ID. Numeric
// input is passed through as an ID. Returns 0 without error when the
// registry knows no such person.
func (c *Client) PersonID(ctx context.Context, author string) (int, error) {
	author = strings.TrimSpace(author)
	if id, err := strconv.Atoi(author); err == nil {
		return id, nil
	}
	if v, ok := c.people.Get(author); ok {
		return v.(int), nil
	}

	params := url.Values{}
	params.Set("name", author)
	params.Set("per_page", strconv.Itoa(c.perPage()))
	rawURL := c.cfg.PersonBaseURL + "?" + params.Encode()

	key := personCacheKey(author)
	for page := 1; rawURL != ""; page++ {
		body, next, err := c.pageGet(ctx, pageKey(key, page), rawURL)
		if err != nil {
			return 0, err
		}
		persons, err := decodePersons(body)
		if err != nil {
			return 0, &ParseError{URL: rawURL, Err: err}
		}
		if len(persons) > 0 {
			id := persons[0].CristinPersonID
			c.people.Set(author, id, gocache.DefaultExpiration)
			return id, nil
		}
		rawURL = next
	}
	return 0, nil
}

// Fetch returns all publication records matching the query, across all
// result pages. Record order is as returned by the registry. An author
// unknown to the registry yields no records and no error.
func (c *Client) Fetch(ctx context.Context, q Query) ([]types.Publication, error) {
	pid, err := c.PersonID(ctx, q.Author)
	if err != nil {
		return nil, err
	}
	if pid == 0 {
		c.log.Debug().Str("author", q.Author).Msg("no registry person found")
		return nil, nil
	}

	params := url.Values{}
	params.Set("lopenr", strconv.Itoa(pid))
	if q.FromYear > 0 {
		params.Set("fra", strconv.Itoa(q.FromYear))
	}
	if q.ToYear > 0 {
		params.Set("til", strconv.Itoa(q.ToYear))
	}
	if q.Category != "" {
		params.Set("hovedkategori", q.Category)
	}
	params.Set("format", "json")
	rawURL := c.cfg.ResultsBaseURL + "?" + params.Encode()

	key := q.CacheKey()
	var pubs []types.Publication
	for page := 1; rawURL != ""; page++ {
		body, next, err := c.pageGet(ctx, pageKey(key, page), rawURL)
		if err != nil {
			// The ws endpoint answers 404 when the person has no
			// registered records.
			var ue *UnavailableError
			if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
				return nil, nil
			}
			return nil, err
		}
		pagePubs, err := decodeResults(body)
		if err != nil {
			return nil, &ParseError{URL: rawURL, Err: err}
		}
		pubs = append(pubs, pagePubs...)
		rawURL = next
	}

	c.log.Debug().Str("author", q.Author).Int("records", len(pubs)).Msg("fetched publications")
	return pubs, nil
}

// pageGet returns one page of response bytes, serving from the cache
// when possible. On a miss it fetches over HTTP and stores the raw
// body; the next-page URL from the Link header is stored under a
// sibling key so cached sequences paginate the same way fresh ones do.
func (c *Client) pageGet(ctx context.Context, key, rawURL string) (body []byte, next string, err error) {
	if c.store != nil {
		cached, ok, err := c.store.Get(key)
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to network")
		} else if ok {
			c.log.Debug().Str("key", key).Msg("cache hit")
			if n, ok, err := c.store.Get(key + ";next"); err == nil && ok {
				return cached, string(n), nil
			}
			return cached, "", nil
		}
	}

	body, next, err = c.httpGet(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}

	if c.store != nil {
		if err := c.store.Put(key, body); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		} else if next != "" {
			if err := c.store.Put(key+";next", []byte(next)); err != nil {
				c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}
	return body, next, nil
}

// httpGet performs one GET with retry and returns the body together
// with the rel="next" target from the Link header, if any.
func (c *Client) httpGet(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, "", &UnavailableError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, "", &UnavailableError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &UnavailableError{URL: rawURL, Err: err}
	}
	return body, nextLink(resp.Header), nil
}

// nextLink extracts the rel="next" target from a Link header
// (e.g. `<https://api.cristin.no/v1/persons?page=2>; rel="next"`).
func nextLink(h http.Header) string {
	for _, link := range h.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			fields := strings.Split(part, ";")
			if len(fields) < 2 {
				continue
			}
			target := strings.Trim(strings.TrimSpace(fields[0]), "<>")
			for _, attr := range fields[1:] {
				if strings.TrimSpace(attr) == `rel="next"` {
					return target
				}
			}
		}
	}
	return ""
}
