// Package translate renders settings page text in the reader's language
// through the MyMemory translation API.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"StockDash/internal/observability"
)

const defaultEndpoint = "https://api.mymemory.translated.net/get"

// Language is one entry of the language selector.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Languages is the selector order; English comes first and is the source language.
var Languages = []Language{
	{"English", "en"},
	{"Spanish", "es"},
	{"French", "fr"},
	{"German", "de"},
	{"Chinese (Simplified)", "zh"},
	{"Chinese (Traditional)", "zh-tw"},
	{"Hindi", "hi"},
	{"Tamil", "ta"},
	{"Telugu", "te"},
	{"Bengali", "bn"},
	{"Kannada", "kn"},
	{"Marathi", "mr"},
	{"Gujarati", "gu"},
	{"Malayalam", "ml"},
	{"Punjabi", "pa"},
	{"Arabic", "ar"},
	{"Dutch", "nl"},
	{"Greek", "el"},
	{"Hebrew", "he"},
	{"Hungarian", "hu"},
	{"Indonesian", "id"},
	{"Italian", "it"},
	{"Japanese", "ja"},
	{"Korean", "ko"},
	{"Malay", "ms"},
	{"Norwegian", "no"},
	{"Polish", "pl"},
	{"Portuguese", "pt"},
	{"Romanian", "ro"},
	{"Russian", "ru"},
	{"Serbian", "sr"},
	{"Swedish", "sv"},
	{"Thai", "th"},
	{"Turkish", "tr"},
	{"Ukrainian", "uk"},
	{"Vietnamese", "vi"},
}

// Supported reports whether code is in Languages.
func Supported(code string) bool {
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Client translates English text and caches every successful result.
type Client struct {
	Endpoint string
	// Email raises the anonymous daily quota when set.
	Email   string
	HTTP    *http.Client
	Metrics *observability.Metrics

	mu    sync.RWMutex
	cache map[string]string
}

// NewClient creates a Client. An empty endpoint uses the public MyMemory API.
func NewClient(endpoint, email string, timeout time.Duration, m *observability.Metrics) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		Endpoint: endpoint,
		Email:    email,
		HTTP:     &http.Client{Timeout: timeout},
		Metrics:  m,
		cache:    make(map[string]string),
	}
}

type response struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

// Translate returns text in lang. On any failure the original text is
// returned together with the error, so callers can always render something.
func (c *Client) Translate(ctx context.Context, text, lang string) (string, error) {
	if strings.TrimSpace(text) == "" || lang == "" || lang == "en" {
		return text, nil
	}
	if !Supported(lang) {
		return text, fmt.Errorf("unsupported language %q", lang)
	}

	key := lang + "\x00" + text
	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	start := time.Now()
	out, err := c.fetch(ctx, text, lang)
	c.Metrics.ObserveFetch("mymemory", "translate", start, err)
	if err != nil {
		return text, err
	}

	c.mu.Lock()
	c.cache[key] = out
	c.mu.Unlock()
	return out, nil
}

func (c *Client) fetch(ctx context.Context, text, lang string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", "en|"+lang)
	if c.Email != "" {
		q.Set("de", c.Email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate API error: status %d", resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if r.ResponseStatus != "" && r.ResponseStatus != "200" {
		return "", fmt.Errorf("translate API error: status %s: %s", r.ResponseStatus, r.ResponseDetails)
	}
	if r.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}
	return r.ResponseData.TranslatedText, nil
}

// CacheSize returns the number of cached translations.
func (c *Client) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
