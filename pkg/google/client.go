// Package google is a client for the Google Custom Search JSON API.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// MaxResults is the largest page the API returns.
const MaxResults = 10

// Client performs Custom Search queries.
type Client interface {
	Search(ctx context.Context, query string, num int) (*SearchResponse, error)
}

// SearchResponse is the subset of the Custom Search response the service uses.
type SearchResponse struct {
	Items             []Item             `json:"items"`
	SearchInformation *SearchInformation `json:"searchInformation,omitempty"`
}

// SearchInformation carries aggregate stats for a query.
type SearchInformation struct {
	TotalResults string  `json:"totalResults"`
	SearchTime   float64 `json:"searchTime"`
}

// Item is a single search result.
type Item struct {
	Title        string  `json:"title"`
	Snippet      string  `json:"snippet"`
	Link         string  `json:"link"`
	DisplayLink  string  `json:"displayLink"`
	FormattedURL string  `json:"formattedUrl"`
	PageMap      PageMap `json:"pagemap"`
}

// PageMap holds structured page data; only the image-bearing parts are decoded.
type PageMap struct {
	CSEThumbnail []Image          `json:"cse_thumbnail"`
	CSEImage     []Image          `json:"cse_image"`
	MetaTags     []map[string]any `json:"metatags"`
}

// Image is a pagemap image entry.
type Image struct {
	Src string `json:"src"`
}

// Thumbnail returns the best image for the item: the CSE thumbnail, then the
// CSE image, then the og:image meta tag. Empty when none is present.
func (it Item) Thumbnail() string {
	if len(it.PageMap.CSEThumbnail) > 0 && it.PageMap.CSEThumbnail[0].Src != "" {
		return it.PageMap.CSEThumbnail[0].Src
	}
	if len(it.PageMap.CSEImage) > 0 && it.PageMap.CSEImage[0].Src != "" {
		return it.PageMap.CSEImage[0].Src
	}
	if len(it.PageMap.MetaTags) > 0 {
		if og, ok := it.PageMap.MetaTags[0]["og:image"].(string); ok {
			return og
		}
	}
	return ""
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return "google: unexpected status " + strconv.Itoa(e.StatusCode) + ": " + e.Message
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey   string
	engineID string
	baseURL  string
	http     *http.Client
}

// NewClient creates a Custom Search client for the given key and engine id (cx).
func NewClient(apiKey, engineID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *httpClient) Search(ctx context.Context, query string, num int) (*SearchResponse, error) {
	if num <= 0 || num > MaxResults {
		num = MaxResults
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}
	return &result, nil
}
