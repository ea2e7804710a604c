package stooq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/httputil"
	"github.com/wonny/chartguess/pkg/logger"
)

// Client scrapes the Stooq symbol directory
// ⭐ SSOT: Stooq 디렉토리 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Stooq directory client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Directory.BaseURL,
	}
}

// Listing is one symbol in the directory
type Listing struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// MostActive fetches the most-active US symbols listing. Used by the
// random play mode as a pool of symbols the provider is likely to know.
func (c *Client) MostActive(ctx context.Context) ([]Listing, error) {
	fullURL := fmt.Sprintf("%s/t/?i=518", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	listings, err := parseListings(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse directory failed: %w", err)
	}

	c.logger.WithField("count", len(listings)).Debug("Fetched symbol directory")
	return listings, nil
}

// parseListings extracts symbol rows from the directory table HTML.
// Rows that do not look like a listing are skipped, not errors.
func parseListings(html string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var listings []Listing
	doc.Find("table.fth1 tbody tr, table#fth1 tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		symbol := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		if symbol == "" || name == "" {
			return
		}

		// Stooq suffixes US tickers with ".US"
		symbol = strings.TrimSuffix(strings.ToUpper(symbol), ".US")

		listings = append(listings, Listing{Symbol: symbol, Name: name})
	})

	return listings, nil
}
