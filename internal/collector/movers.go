package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"StockDash/internal/model"
)

const (
	nseBaseURL     = "https://www.nseindia.com"
	nseGainersPath = "/api/live-analysis-variations?index=gainers"
	growwLosersURL = "https://groww.in/markets/top-losers"
)

// MoversClient fetches the gainers and losers boards.
type MoversClient struct {
	Client         *http.Client
	NSEBaseURL     string
	GrowwLosersURL string
}

// NewMoversClient creates a client with a cookie jar, since NSE rejects
// API calls that do not carry the cookies set by its home page.
func NewMoversClient(proxyURL string, timeout time.Duration) *MoversClient {
	client := newHTTPClient(proxyURL, timeout)
	jar, _ := cookiejar.New(nil)
	client.Jar = jar
	return &MoversClient{
		Client:         client,
		NSEBaseURL:     nseBaseURL,
		GrowwLosersURL: growwLosersURL,
	}
}

func (m *MoversClient) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", m.NSEBaseURL+"/")
	return m.Client.Do(req)
}

// nseRow is one entry of an NSE gainers table.
type nseRow struct {
	Symbol    string  `json:"symbol"`
	OpenPrice float64 `json:"open_price"`
	HighPrice float64 `json:"high_price"`
	LowPrice  float64 `json:"low_price"`
	LTP       float64 `json:"ltp"`
	PrevPrice float64 `json:"prev_price"`
	PerChange float64 `json:"perChange"`
}

// NSEGainers returns the top gainers grouped by legend.
func (m *MoversClient) NSEGainers(ctx context.Context) (*model.GainerBoard, error) {
	// Prime cookies.
	if resp, err := m.get(ctx, m.NSEBaseURL); err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	resp, err := m.get(ctx, m.NSEBaseURL+nseGainersPath)
	if err != nil {
		return nil, fmt.Errorf("fetch gainers: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Provider: "nse", Code: resp.StatusCode, Body: string(body)}
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode gainers: %w", err)
	}
	var legends [][]string
	if err := json.Unmarshal(raw["legends"], &legends); err != nil {
		return nil, fmt.Errorf("decode gainer legends: %w", err)
	}

	board := &model.GainerBoard{Tables: make(map[string][]model.Mover)}
	for _, l := range legends {
		if len(l) == 0 {
			continue
		}
		key := l[0]
		var table struct {
			Data []nseRow `json:"data"`
		}
		if err := json.Unmarshal(raw[key], &table); err != nil {
			continue
		}
		board.Legends = append(board.Legends, key)
		rows := make([]model.Mover, 0, len(table.Data))
		for _, r := range table.Data {
			rows = append(rows, model.Mover{
				Company:       r.Symbol,
				Symbol:        r.Symbol,
				Open:          null.FloatFrom(r.OpenPrice),
				High:          null.FloatFrom(r.HighPrice),
				Low:           null.FloatFrom(r.LowPrice),
				PreviousClose: null.FloatFrom(r.PrevPrice),
				Close:         null.FloatFrom(r.LTP),
				ChangePercent: null.FloatFrom(r.PerChange),
			})
		}
		board.Tables[key] = rows
	}
	if len(board.Legends) == 0 {
		return nil, fmt.Errorf("gainers: %w", ErrNoData)
	}
	return board, nil
}

// GrowwLosers scrapes the first table of the top losers page. Each row maps
// header text to cell text.
func (m *MoversClient) GrowwLosers(ctx context.Context) ([]map[string]string, error) {
	resp, err := m.get(ctx, m.GrowwLosersURL)
	if err != nil {
		return nil, fmt.Errorf("fetch losers: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "groww", Code: resp.StatusCode}
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse losers page: %w", err)
	}
	return parseFirstTable(doc), nil
}

func parseFirstTable(doc *html.Node) []map[string]string {
	table := findElement(doc, "table")
	if table == nil {
		return nil
	}
	var headers []string
	var rows []map[string]string
	walk(table, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "th":
			headers = append(headers, textContent(n))
			return false
		case "tr":
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "td" {
					cells = append(cells, textContent(c))
				}
			}
			if len(cells) > 0 {
				row := make(map[string]string, len(cells))
				for i, v := range cells {
					if i < len(headers) {
						row[headers[i]] = v
					}
				}
				rows = append(rows, row)
			}
		}
		return true
	})
	return rows
}

func findElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && c.Data == tag {
			found = c
			return false
		}
		return true
	})
	return found
}

// walk visits n and its descendants depth first; fn returning false skips children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// EnrichLosers resolves each scraped company to a ticker and attaches its quote.
// Companies that cannot be resolved keep null price fields.
func EnrichLosers(ctx context.Context, src *Source, rows []map[string]string) []model.Mover {
	out := make([]model.Mover, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, row := range rows {
		g.Go(func() error {
			mv := model.Mover{Company: row["Company"]}
			if ticker, ok := src.ResolveSymbol(gctx, mv.Company); ok {
				q := src.Quote(gctx, ticker)
				mv.Symbol = q.Symbol
				mv.Open, mv.High, mv.Low = q.Open, q.High, q.Low
				mv.PreviousClose, mv.Close, mv.ChangePercent = q.PreviousClose, q.Close, q.ChangePercent
			}
			out[i] = mv
			return nil
		})
	}
	_ = g.Wait()
	return out
}
