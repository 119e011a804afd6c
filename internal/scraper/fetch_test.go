package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"upperlimit/internal/utils"

	"golang.org/x/text/encoding/korean"
)

func testFetcherConfig() *utils.Config {
	config := utils.DefaultConfig()
	config.Scraper.Timeout = 5
	config.Scraper.Delay = 0
	return config
}

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	b, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	return b
}

func TestHTTPFetcherDecodesConfiguredEncoding(t *testing.T) {
	page := marketPage(stockRow(1, "가나전자", "12,340", "+29.97%"))
	body := eucKR(t, page)

	var gotUA, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	defer server.Close()

	config := testFetcherConfig()
	f := NewHTTPFetcher(config)

	for _, label := range []string{"euc-kr", "cp949", "CP949"} {
		t.Run(label, func(t *testing.T) {
			html, err := f.Fetch(context.Background(), utils.Source{Name: "KOSPI", URL: server.URL, Encoding: label})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !strings.Contains(html, "가나전자") {
				t.Errorf("Expected decoded Korean text in body")
			}
		})
	}

	if gotUA != config.Scraper.UserAgent {
		t.Errorf("Expected browser user agent, got %q", gotUA)
	}
	if !strings.HasPrefix(gotLang, "ko-KR") {
		t.Errorf("Expected Korean Accept-Language, got %q", gotLang)
	}
}

func TestHTTPFetcherUsesContentTypeCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write(eucKR(t, "<p>삼성전자</p>"))
	}))
	defer server.Close()

	html, err := NewHTTPFetcher(testFetcherConfig()).Fetch(context.Background(), utils.Source{Name: "x", URL: server.URL})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(html, "삼성전자") {
		t.Errorf("Expected decoded body, got %q", html)
	}
}

func TestHTTPFetcherNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(testFetcherConfig()).Fetch(context.Background(), utils.Source{Name: "KOSPI", URL: server.URL})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected status 403 error, got %v", err)
	}
}

func TestHTTPFetcherUnknownEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>ok</p>"))
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(testFetcherConfig()).Fetch(context.Background(), utils.Source{Name: "x", URL: server.URL, Encoding: "klingon"})
	if err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}

func TestHTTPFetcherCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>ok</p>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPFetcher(testFetcherConfig()).Fetch(ctx, utils.Source{Name: "x", URL: server.URL}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
