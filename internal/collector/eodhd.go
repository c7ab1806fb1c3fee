package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"EventStudy/internal/model"
)

const eodhdBaseURL = "https://eodhd.com/api"

// EODHDFetcher implements Fetcher using the EODHD end-of-day REST API.
type EODHDFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewEODHDFetcher creates a rate-limited fetcher with optional proxy support.
func NewEODHDFetcher(baseURL, apiKey, proxyURL string, requestsPerSecond int, timeout time.Duration) *EODHDFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = eodhdBaseURL
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EODHDFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (f *EODHDFetcher) Name() string { return "eodhd" }

// flexFloat accepts numbers that arrive either as JSON numbers or strings.
type flexFloat float64

func (v *flexFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = flexFloat(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot unmarshal %s into float64", string(data))
	}
	if s == "" || s == "N/A" {
		*v = 0
		return nil
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse %q: %w", s, err)
	}
	*v = flexFloat(num)
	return nil
}

// eodBar is the expected JSON shape from the /eod endpoint.
type eodBar struct {
	Date          string    `json:"date"`
	Open          flexFloat `json:"open"`
	High          flexFloat `json:"high"`
	Low           flexFloat `json:"low"`
	Close         flexFloat `json:"close"`
	AdjustedClose flexFloat `json:"adjusted_close"`
	Volume        flexFloat `json:"volume"`
}

func (f *EODHDFetcher) FetchDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceRow, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("from", from.Format(model.DateLayout))
	params.Set("to", to.Format(model.DateLayout))
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("fmt", "json")
	params.Set("api_token", f.APIKey)
	endpoint := fmt.Sprintf("%s/eod/%s?%s", f.BaseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch eod: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("eodhd: %s: %w", symbol, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch eod: status %d, body: %s", resp.StatusCode, string(body))
	}

	var bars []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode eod: %w", err)
	}
	rows := make([]model.PriceRow, 0, len(bars))
	for _, b := range bars {
		d, err := time.Parse(model.DateLayout, b.Date)
		if err != nil {
			return nil, fmt.Errorf("eod date %q: %w", b.Date, err)
		}
		rows = append(rows, model.PriceRow{
			Date:     d,
			Open:     float64(b.Open),
			High:     float64(b.High),
			Low:      float64(b.Low),
			Close:    float64(b.Close),
			AdjClose: float64(b.AdjustedClose),
			Volume:   float64(b.Volume),
		})
	}
	return rows, nil
}
