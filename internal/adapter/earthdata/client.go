// Package earthdata acquires OMNO2d granule files from NASA Earthdata: URS
// token authentication, CMR granule search, and file download into a local
// cache directory. The Acquirer skips the network entirely when matching
// files are already cached.
package earthdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

// dataLinkRel marks downloadable file links in CMR granule entries.
const dataLinkRel = "http://esipfed.org/ns/fedsearch/1.1/data#"

// GranuleRef is one searchable granule with its download location.
type GranuleRef struct {
	Title string
	URL   string
}

// Client talks to the NASA Earthdata endpoints: URS for tokens, CMR for
// granule search, and the archive hosts for downloads. All outbound requests
// go through a shared circuit breaker so a struggling upstream fails fast
// instead of tying up report requests.
type Client struct {
	username   string
	password   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	cmrBaseURL string
	ursBaseURL string
	token      string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Earthdata client. Credentials may be empty; Login then
// fails at call time, which callers convert into the fallback path.
func NewClient(username, password string, timeout time.Duration, cmrBaseURL, ursBaseURL string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:     "earthdata",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		cmrBaseURL: cmrBaseURL,
		ursBaseURL: ursBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// tokenResponse is the URS find_or_create_token payload.
type tokenResponse struct {
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	ExpirationDate string `json:"expiration_date"`
}

// Login obtains a URS bearer token using the configured credentials and
// stores it for subsequent downloads.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("earthdata credentials not configured")
	}

	u := c.ursBaseURL + "/api/users/find_or_create_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.do(req, "login")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("urs login error: status %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("urs login returned empty token")
	}

	c.token = tok.AccessToken
	c.logger.Info("earthdata login succeeded", "expires", tok.ExpirationDate)
	return nil
}

// SearchGranules queries CMR for granules of the named collection matching
// the region and time range. Returns the granules with their download links
// in the order CMR reports them.
func (c *Client) SearchGranules(ctx context.Context, shortName string, region domain.Region, window domain.TimeRange) ([]GranuleRef, error) {
	params := url.Values{
		"short_name": {shortName},
		"temporal": {fmt.Sprintf("%s,%s",
			window.Start.Format("2006-01-02T15:04:05Z"),
			window.End.Format("2006-01-02T15:04:05Z"))},
		"bounding_box": {fmt.Sprintf("%g,%g,%g,%g", region.West, region.South, region.East, region.North)},
		"page_size":    {"200"},
	}

	u := c.cmrBaseURL + "/search/granules.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.do(req, "search")
	if err != nil {
		return nil, fmt.Errorf("granule search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cmr search error: status %d: %s", resp.StatusCode, body)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	refs := make([]GranuleRef, 0, len(sr.Feed.Entry))
	for _, entry := range sr.Feed.Entry {
		for _, link := range entry.Links {
			if link.Rel == dataLinkRel {
				refs = append(refs, GranuleRef{Title: entry.Title, URL: link.Href})
				break
			}
		}
	}
	return refs, nil
}

// Download fetches each granule into dir, authenticating with the bearer
// token from Login. Returns the local paths of the written files. The batch
// is all-or-nothing: on failure, granules already written by this call are
// removed so the cache never holds an incomplete set that later requests
// would mistake for full coverage of the window.
func (c *Client) Download(ctx context.Context, refs []GranuleRef, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		p, err := c.downloadOne(ctx, ref, dir)
		if err != nil {
			for _, written := range paths {
				os.Remove(written)
			}
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (c *Client) downloadOne(ctx context.Context, ref GranuleRef, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.do(req, "download")
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref.Title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", ref.Title, resp.StatusCode)
	}

	name := path.Base(ref.URL)
	if name == "" || name == "." || name == "/" {
		name = ref.Title
	}
	dest := filepath.Join(dir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}

	c.logger.Info("granule downloaded", "file", name)
	return dest, nil
}

// do routes a request through the circuit breaker and records its duration.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	c.metrics.EarthdataAPI.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return resp, err
}

// CMR search response types.

type searchResponse struct {
	Feed struct {
		Entry []struct {
			Title string `json:"title"`
			Links []struct {
				Rel  string `json:"rel"`
				Href string `json:"href"`
			} `json:"links"`
		} `json:"entry"`
	} `json:"feed"`
}
