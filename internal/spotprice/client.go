// Package spotprice fetches the reference index close from the Yahoo
// Finance chart API. Lookups are best effort: callers treat a failed
// lookup as "no spot available", never as a submission failure.
package spotprice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"oipulse/internal/config"
	"oipulse/internal/errors"
)

// Quote is one resolved spot price. SourceNote is non-empty when the
// price came from an earlier session than the requested date.
type Quote struct {
	Price      float64
	Date       time.Time
	SourceNote string
}

// Client looks up index closes over HTTP. Requests are rate limited so a
// burst of submissions cannot hammer the upstream quote service.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	symbol     string
	lookback   int
}

// New creates a client from configuration.
func New(cfg config.SpotPriceConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		baseURL:    cfg.BaseURL,
		symbol:     cfg.Symbol,
		lookback:   cfg.Lookback,
	}
}

// chartResponse mirrors the slice of the Yahoo chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// CloseOn returns the index close for the given trading date. When the
// date has no close (holiday, or the feed has not published yet) the most
// recent earlier close within the lookback window is substituted and the
// quote carries a note saying so.
func (c *Client) CloseOn(ctx context.Context, date time.Time) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	from := day.AddDate(0, 0, -c.lookback)
	to := day.AddDate(0, 0, 1)

	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, url.PathEscape(c.symbol), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.NewLookupError("failed to build quote request", err)
	}
	req.Header.Set("User-Agent", "oipulse/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewLookupError("quote request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewLookupError(
			fmt.Sprintf("quote service returned status %d", resp.StatusCode), nil)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewLookupError("failed to decode quote response", err)
	}
	if payload.Chart.Error != nil {
		return nil, errors.NewLookupError(
			fmt.Sprintf("quote service error: %s", payload.Chart.Error.Description), nil)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.NewLookupError("quote response carried no series", nil)
	}

	series := payload.Chart.Result[0]
	closes := series.Indicators.Quote[0].Close

	// Walk the series newest first, skipping null closes, and stop at
	// the first session on or before the requested date.
	for i := len(series.Timestamp) - 1; i >= 0; i-- {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		sessionDay := time.Unix(series.Timestamp[i], 0).UTC().Truncate(24 * time.Hour)
		if sessionDay.After(day) {
			continue
		}
		quote := &Quote{Price: *closes[i], Date: sessionDay}
		if !sessionDay.Equal(day) {
			quote.SourceNote = fmt.Sprintf("spot close taken from %s (no close for %s)",
				sessionDay.Format("2006-01-02"), day.Format("2006-01-02"))
			slog.Warn("spot close substituted from earlier session",
				slog.String("requested", day.Format("2006-01-02")),
				slog.String("used", sessionDay.Format("2006-01-02")))
		}
		return quote, nil
	}

	return nil, errors.NewLookupError(
		fmt.Sprintf("no close found within %d days of %s", c.lookback, day.Format("2006-01-02")), nil)
}
