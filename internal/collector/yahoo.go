package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"StockDash/internal/model"
)

const (
	yahooChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart/"
	yahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

// ErrNoData is returned when the provider answers without any usable bars.
var ErrNoData = errors.New("no data returned")

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	ChartURL  string
	SearchURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		Client:    newHTTPClient(proxyURL, timeout),
		ChartURL:  yahooChartURL,
		SearchURL: yahooSearchURL,
	}
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// FetchSeries returns daily bars in [start, end).
func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", "1d")
	return f.fetchChart(ctx, symbol, q)
}

// FetchIntraday returns bars for a named range such as "1d" at the given interval such as "5m".
func (f *YahooFetcher) FetchIntraday(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", interval)
	return f.fetchChart(ctx, symbol, q)
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "yahoo", Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, q url.Values) ([]model.OHLCV, error) {
	body, err := f.get(ctx, f.ChartURL+url.PathEscape(symbol)+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		// a bar without a close is unusable for every indicator
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), *quote.Close[i]
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return normalize(bars), nil
}

// yahooSearch is the subset of the search response we use.
type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
	} `json:"quotes"`
}

// ResolveSymbol returns the first ticker Yahoo suggests for a company name.
func (f *YahooFetcher) ResolveSymbol(ctx context.Context, companyName string) (string, error) {
	q := url.Values{}
	q.Set("q", companyName)
	q.Set("quotesCount", "1")
	q.Set("newsCount", "0")
	body, err := f.get(ctx, f.SearchURL+"?"+q.Encode())
	if err != nil {
		return "", err
	}
	var res yahooSearch
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("yahoo search decode: %w", err)
	}
	if len(res.Quotes) == 0 || res.Quotes[0].Symbol == "" {
		return "", fmt.Errorf("yahoo search %q: %w", companyName, ErrNoData)
	}
	return res.Quotes[0].Symbol, nil
}

// normalize sorts bars by time and drops duplicate timestamps, keeping the latest.
func normalize(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
