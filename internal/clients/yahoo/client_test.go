package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

const chartBody = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"SLV","chartPreviousClose":30.0},
"indicators":{"quote":[{"close":[30.1,null,30.6,null]}]}}],"error":null}}`

func TestGetChart_Query(t *testing.T) {
	var gotPath, gotInterval, gotRange, gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotRange = r.URL.Query().Get("range")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	chart, err := client.GetChart(context.Background(), "SLV", "1m", "1d")
	if err != nil {
		t.Fatalf("GetChart failed: %v", err)
	}

	if gotPath != "/chart/SLV" {
		t.Errorf("expected path /chart/SLV, got %s", gotPath)
	}
	if gotInterval != "1m" || gotRange != "1d" {
		t.Errorf("expected interval=1m range=1d, got interval=%s range=%s", gotInterval, gotRange)
	}
	if !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Errorf("expected browser user agent, got %q", gotUA)
	}

	if chart.Currency != "USD" {
		t.Errorf("expected USD, got %s", chart.Currency)
	}
	if chart.PreviousClose == nil || *chart.PreviousClose != 30.0 {
		t.Errorf("expected previous close 30, got %v", chart.PreviousClose)
	}
	if len(chart.Closes) != 4 {
		t.Fatalf("expected 4 bars, got %d", len(chart.Closes))
	}
	if chart.Closes[1] != nil {
		t.Errorf("expected null bar to decode as nil")
	}
	latest, ok := chart.LatestClose()
	if !ok || latest != 30.6 {
		t.Errorf("expected latest close 30.6, got %v (ok=%v)", latest, ok)
	}
}

func TestGetChart_EscapesSymbol(t *testing.T) {
	var gotRawPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawPath = r.URL.EscapedPath()
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	if _, err := NewClient(WithBaseURL(srv.URL)).GetChart(context.Background(), "^GSPC", "1m", "1d"); err != nil {
		t.Fatalf("GetChart failed: %v", err)
	}
	if gotRawPath != "/chart/%5EGSPC" {
		t.Errorf("expected escaped caret, got %s", gotRawPath)
	}
}

func TestGetChart_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetChart(context.Background(), "NOPE", "1m", "1d")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "No data found, symbol may be delisted" {
		t.Errorf("expected chart error description, got %q", apiErr.Message)
	}
}

func TestGetChart_ServerErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetChart(context.Background(), "SLV", "1m", "1d")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != http.StatusText(http.StatusInternalServerError) {
		t.Errorf("expected status text, got %q", apiErr.Message)
	}
}

func TestGetChart_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetChart(context.Background(), "SLV", "1m", "1d")
	if err == nil || !strings.Contains(err.Error(), "no chart data for SLV") {
		t.Errorf("expected no chart data error, got %v", err)
	}
}

func TestGetChart_BreakerOpensOnOutage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(
		WithBaseURL(srv.URL),
		WithBreaker(BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute}),
	)

	for i := 0; i < 5; i++ {
		if _, err := client.GetChart(context.Background(), "SLV", "1m", "1d"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := client.GetChart(context.Background(), "SLV", "1m", "1d")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if hits.Load() != 5 {
		t.Errorf("expected open breaker to skip the request, got %d hits", hits.Load())
	}
}

func TestGetChart_UnknownSymbolDoesNotTrip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(
		WithBaseURL(srv.URL),
		WithBreaker(BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute}),
	)

	for i := 0; i < 8; i++ {
		_, err := client.GetChart(context.Background(), "NOPE", "1m", "1d")
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("call %d: breaker opened on 404", i)
		}
	}
	if hits.Load() != 8 {
		t.Errorf("expected every call to reach the server, got %d", hits.Load())
	}
}
