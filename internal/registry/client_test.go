// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nmbu-cigene/pubgrab/internal/httputil"
	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

func init() {
	// Keep retry backoff out of test runtime.
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

// memCache is an in-memory ResponseCache with injectable failures.
type memCache struct {
	data   map[string][]byte
	getErr error
	putErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Put(key string, payload []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

func (m *memCache) clear() {
	m.data = make(map[string][]byte)
}

func testClient(ts *httptest.Server, store ResponseCache) *Client {
	cfg := types.RegistryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "pubgrab-test/0.1",
		},
		PersonBaseURL:  ts.URL + "/persons",
		ResultsBaseURL: ts.URL + "/results",
		MaxRetries:     1,
		PerPage:        2,
	}
	return NewClient(cfg, store, zerolog.Nop())
}

// --- Query ---

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"plain name", Query{Author: "Jane Doe"}, false},
		{"empty author", Query{}, true},
		{"blank author", Query{Author: "  "}, true},
		{"valid range", Query{Author: "Jane Doe", FromYear: 2010, ToYear: 2015}, false},
		{"inverted range", Query{Author: "Jane Doe", FromYear: 2015, ToYear: 2010}, true},
		{"open-ended range", Query{Author: "Jane Doe", FromYear: 2010}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryCacheKeyDistinguishesFilters(t *testing.T) {
	base := Query{Author: "Jane Doe"}
	variants := []Query{
		{Author: "Jane Doe", FromYear: 2010},
		{Author: "Jane Doe", ToYear: 2015},
		{Author: "Jane Doe", Category: "BOK"},
		{Author: "Jane Doe", FromYear: 2010, ToYear: 2015, Category: "TIDSSKRIFTPUBL"},
	}
	seen := map[string]bool{base.CacheKey(): true}
	for _, q := range variants {
		key := q.CacheKey()
		if seen[key] {
			t.Errorf("CacheKey collision for %+v: %q", q, key)
		}
		seen[key] = true
	}
}

func TestQueryCacheKeyDeterministic(t *testing.T) {
	q := Query{Author: "Dag Inge Våge", FromYear: 2003, ToYear: 2015, Category: "TIDSSKRIFTPUBL"}
	if q.CacheKey() != q.CacheKey() {
		t.Error("CacheKey not deterministic")
	}
}

// --- PersonID ---

func TestPersonIDNumericPassthrough(t *testing.T) {
	// No server: numeric input must not trigger any lookup.
	c := NewClient(types.RegistryConfig{}, nil, zerolog.Nop())

	id, err := c.PersonID(context.Background(), "22311")
	if err != nil {
		t.Fatalf("PersonID: %v", err)
	}
	if id != 22311 {
		t.Errorf("id = %d, want 22311", id)
	}
}

func TestPersonIDLookupAndMemo(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if got := r.URL.Query().Get("name"); got != "Jon Olav Vik" {
			t.Errorf("name param = %q", got)
		}
		fmt.Fprint(w, `[{"cristin_person_id": 22311, "first_name": "Jon Olav", "surname": "Vik"}]`)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	id, err := c.PersonID(context.Background(), "Jon Olav Vik")
	if err != nil {
		t.Fatalf("PersonID: %v", err)
	}
	if id != 22311 {
		t.Errorf("id = %d, want 22311", id)
	}

	// Second lookup is served from the in-process memo.
	if _, err := c.PersonID(context.Background(), "Jon Olav Vik"); err != nil {
		t.Fatalf("PersonID (memo): %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server calls = %d, want 1", n)
	}
}

func TestPersonIDFollowsPagination(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"cristin_person_id": 7059, "surname": "Gjuvsland"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/persons?name=x&page=2>; rel="next"`, ts.URL))
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	id, err := c.PersonID(context.Background(), "Arne Gjuvsland")
	if err != nil {
		t.Fatalf("PersonID: %v", err)
	}
	if id != 7059 {
		t.Errorf("id = %d, want 7059 from page 2", id)
	}
}

func TestPersonIDNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	id, err := c.PersonID(context.Background(), "Does Not Exist")
	if err != nil {
		t.Fatalf("PersonID: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0 for unknown author", id)
	}
}

// --- Fetch ---

func resultsHandler(t *testing.T, wantParams map[string]string, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, want := range wantParams {
			if got := r.URL.Query().Get(k); got != want {
				t.Errorf("param %s = %q, want %q", k, got, want)
			}
		}
		fmt.Fprint(w, body)
	}
}

func TestFetchRecords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/results", resultsHandler(t, map[string]string{
		"lopenr":        "7059",
		"fra":           "2010",
		"til":           "2014",
		"hovedkategori": "TIDSSKRIFTPUBL",
		"format":        "json",
	}, sampleResultJSON))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(ts, nil)

	pubs, err := c.Fetch(context.Background(), Query{
		Author:   "7059",
		FromYear: 2010,
		ToYear:   2014,
		Category: "TIDSSKRIFTPUBL",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("len(pubs) = %d, want 1", len(pubs))
	}
	if pubs[0].ID != "769189" {
		t.Errorf("ID = %q, want 769189", pubs[0].ID)
	}
}

func TestFetchUnknownAuthorNoRecordsNoError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	pubs, err := c.Fetch(context.Background(), Query{Author: "Does Not Exist"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pubs != nil {
		t.Errorf("pubs = %v, want nil", pubs)
	}
}

func TestFetch404MeansNoRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	pubs, err := c.Fetch(context.Background(), Query{Author: "22311"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(pubs) != 0 {
		t.Errorf("len(pubs) = %d, want 0", len(pubs))
	}
}

func TestFetchServerErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	_, err := c.Fetch(context.Background(), Query{Author: "22311"})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
	if ue.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", ue.Status)
	}
}

func TestFetchTransportFailureIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	ts.Close() // nothing listening

	c := testClient(ts, nil)

	_, err := c.Fetch(context.Background(), Query{Author: "22311"})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
	if ue.Status != 0 {
		t.Errorf("Status = %d, want 0 for transport failure", ue.Status)
	}
}

func TestFetchMalformedBodyIsParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{this is not json`)
	}))
	defer ts.Close()

	c := testClient(ts, nil)

	_, err := c.Fetch(context.Background(), Query{Author: "22311"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

// --- cache read-through ---

func TestFetchReadThroughCache(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, sampleResultJSON)
	}))
	defer ts.Close()

	store := newMemCache()
	q := Query{Author: "7059", FromYear: 2010, ToYear: 2014}

	c := testClient(ts, store)
	first, err := c.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("server calls = %d, want 1", n)
	}

	// Cached payload is byte-identical to the response body.
	cached, ok, err := store.Get(q.CacheKey())
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	if string(cached) != sampleResultJSON {
		t.Error("cached payload differs from response body")
	}

	// A fresh client with the same store must not touch the network.
	c2 := testClient(ts, store)
	second, err := c2.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch (cached): %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server calls = %d, want 1 (cache hit)", n)
	}
	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Error("cached fetch returned different records")
	}
}

func TestFetchAfterClearHitsNetwork(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, sampleResultJSON)
	}))
	defer ts.Close()

	store := newMemCache()
	q := Query{Author: "7059"}

	c := testClient(ts, store)
	if _, err := c.Fetch(context.Background(), q); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	store.clear()

	c2 := testClient(ts, store)
	if _, err := c2.Fetch(context.Background(), q); err != nil {
		t.Fatalf("Fetch (after clear): %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server calls = %d, want 2 after clear", n)
	}
}

func TestFetchCacheFailureFallsBackToNetwork(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, sampleResultJSON)
	}))
	defer ts.Close()

	store := newMemCache()
	store.getErr = errors.New("disk on fire")
	store.putErr = errors.New("disk still on fire")

	c := testClient(ts, store)
	pubs, err := c.Fetch(context.Background(), Query{Author: "7059"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(pubs) != 1 {
		t.Errorf("len(pubs) = %d, want 1 despite cache failures", len(pubs))
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server calls = %d, want 1", n)
	}
}

// --- Link header parsing ---

func TestNextLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"no header", "", ""},
		{"next only", `<https://api.example/persons?page=2>; rel="next"`, "https://api.example/persons?page=2"},
		{
			"next among others",
			`<https://api.example/persons?page=9>; rel="last", <https://api.example/persons?page=2>; rel="next"`,
			"https://api.example/persons?page=2",
		},
		{"last only", `<https://api.example/persons?page=9>; rel="last"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.link != "" {
				h.Set("Link", tt.link)
			}
			if got := nextLink(h); got != tt.want {
				t.Errorf("nextLink() = %q, want %q", got, tt.want)
			}
		})
	}
}
