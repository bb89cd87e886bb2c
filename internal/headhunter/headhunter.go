// Package headhunter is a read-only client of the public hh.ru vacancy search.
// It seeds the local postings table; nothing is ever posted back.
package headhunter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL           = "https://api.hh.ru"
	DefaultUserAgent = "jobswipe/1.0 (jobswipe-importer)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client for the public API. The token is optional; anonymous
// search works with a descriptive User-Agent.
func New(logger *zap.Logger, token, userAgent string) *Client {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Search returns vacancies matching params. A positive limit stops paging once
// that many vacancies have been fetched.
func (c *Client) Search(ctx context.Context, params *SearchParams, limit int) (*Vacancies, error) {
	return c.search(ctx, params, limit)
}
