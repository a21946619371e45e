package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		switch q.Get("q") {
		case "quota":
			fmt.Fprint(w, `{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":"429","responseDetails":"quota exceeded"}`)
		case "boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprintf(w, `{"responseData":{"translatedText":"[%s] %s"},"responseStatus":200}`, q.Get("langpair"), q.Get("q"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranslateCaches(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls)
	c := NewClient(srv.URL, "", time.Second, nil)

	for i := 0; i < 3; i++ {
		got, err := c.Translate(context.Background(), "Submit", "fr")
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if got != "[en|fr] Submit" {
			t.Errorf("got %q", got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if c.CacheSize() != 1 {
		t.Errorf("cache size = %d, want 1", c.CacheSize())
	}
}

func TestTranslateFallsBackToOriginal(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls)
	c := NewClient(srv.URL, "", time.Second, nil)

	tests := []struct {
		text, lang string
		wantErr    bool
	}{
		{"boom", "de", true},
		{"quota", "de", true},
		{"hello", "xx", true},
		{"hello", "en", false},
		{"", "de", false},
	}
	for _, tt := range tests {
		got, err := c.Translate(context.Background(), tt.text, tt.lang)
		if got != tt.text {
			t.Errorf("Translate(%q, %q) = %q, want original", tt.text, tt.lang, got)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("Translate(%q, %q) err = %v, wantErr %v", tt.text, tt.lang, err, tt.wantErr)
		}
	}
	if c.CacheSize() != 0 {
		t.Errorf("failures were cached")
	}
}

func TestLanguages(t *testing.T) {
	if len(Languages) != 36 {
		t.Errorf("len(Languages) = %d, want 36", len(Languages))
	}
	if Languages[0].Code != "en" || Languages[len(Languages)-1].Code != "vi" {
		t.Errorf("unexpected order: first %v last %v", Languages[0], Languages[len(Languages)-1])
	}
	if !Supported("zh-tw") || Supported("klingon") {
		t.Error("Supported mismatch")
	}
}
