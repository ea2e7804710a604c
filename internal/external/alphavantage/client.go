package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/httputil"
	"github.com/wonny/chartguess/pkg/logger"
)

// Client handles communication with the Alpha Vantage daily series API
// ⭐ SSOT: Alpha Vantage API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a new Alpha Vantage client.
//
// The free tier allows a handful of requests per minute; the in-process
// limiter spreads calls out instead of burning the quota on bursts. A
// throttled response is not retried; the note must surface to the caller.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	perMinute := cfg.Provider.RequestsPerMinute

	return &Client{
		httpClient: httpClient.DisableRetry(),
		logger:     log,
		baseURL:    cfg.Provider.BaseURL,
		apiKey:     cfg.Provider.APIKey,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// dailyResponse is the wire shape of TIME_SERIES_DAILY
type dailyResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Meta         map[string]string            `json:"Meta Data"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchDaily fetches the raw daily payload for symbol.
//
// Provider-level failure signals (unknown ticker, throttling) are carried
// inside the returned payload, not as errors; ingestion classifies them.
func (c *Client) FetchDaily(ctx context.Context, symbol string) (*series.RawPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", "compact")
	params.Set("apikey", c.apiKey)

	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
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

	payload, err := parseDaily(body)
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"rows":   len(payload.Rows),
	}).Debug("Fetched daily payload")
	return payload, nil
}

// parseDaily decodes the provider JSON into the engine's raw payload shape
func parseDaily(body []byte) (*series.RawPayload, error) {
	var resp dailyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal daily response: %w", err)
	}

	payload := &series.RawPayload{
		ErrorMessage: resp.ErrorMessage,
		Note:         resp.Note,
		HasMeta:      resp.Meta != nil,
		TimeZone:     resp.Meta["5. Time Zone"],
	}

	if resp.TimeSeries != nil {
		payload.Rows = make(map[string]series.RawRow, len(resp.TimeSeries))
		for date, bar := range resp.TimeSeries {
			payload.Rows[date] = series.RawRow{Close: bar["4. close"]}
		}
	}

	return payload, nil
}
