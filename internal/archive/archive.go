// Package archive fetches magazine identifiers from the Internet Archive's
// advanced search API.
package archive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/fetch"
)

const (
	// DefaultBaseURL is the archive.org origin.
	DefaultBaseURL = "https://archive.org"

	// DefaultQuery selects public-domain computer magazines.
	DefaultQuery = "collection:computermagazines AND licenseurl:*publicdomain*"

	// DefaultRows is how many items one search returns.
	DefaultRows = 30
)

// Client implements magstack.ContentSource over advancedsearch.php.
type Client struct {
	http    *fetch.Client
	baseURL string
	query   string
	rows    int
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option        { return func(c *Client) { c.baseURL = u } }
func WithQuery(q string) Option          { return func(c *Client) { c.query = q } }
func WithRows(n int) Option              { return func(c *Client) { c.rows = n } }
func WithLogger(l *log.Logger) Option    { return func(c *Client) { c.logger = l } }
func WithFetcher(f *fetch.Client) Option { return func(c *Client) { c.http = f } }

// NewClient returns a client for the most downloaded public-domain
// computer magazines.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		query:   DefaultQuery,
		rows:    DefaultRows,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = fetch.NewClient()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

type searchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			Identifier string `json:"identifier"`
		} `json:"docs"`
	} `json:"response"`
}

// SearchURL returns the request URL for the client's query.
func (c *Client) SearchURL() string {
	v := url.Values{}
	v.Set("q", c.query)
	v.Add("fl[]", "identifier")
	v.Add("sort[]", "downloads desc")
	v.Set("rows", strconv.Itoa(c.rows))
	v.Set("page", "1")
	v.Set("output", "json")
	return c.baseURL + "/advancedsearch.php?" + v.Encode()
}

// FetchItems returns the search results in ranking order. Documents without
// an identifier are skipped.
func (c *Client) FetchItems(ctx context.Context) ([]magstack.Item, error) {
	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.SearchURL(), &resp); err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}

	items := make([]magstack.Item, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		items = append(items, magstack.NewItem(doc.Identifier))
	}
	c.logger.Debug("archive search", "found", resp.Response.NumFound, "items", len(items))
	return items, nil
}

var _ magstack.ContentSource = (*Client)(nil)
