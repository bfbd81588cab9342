package tefas

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetPriceHistory_PostsForm(t *testing.T) {
	var gotPath, gotMethod, gotContentType, gotUA string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"fontip":   r.PostForm.Get("fontip"),
			"fonkod":   r.PostForm.Get("fonkod"),
			"bastarih": r.PostForm.Get("bastarih"),
			"bittarih": r.PostForm.Get("bittarih"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"TARIH":"1760486400000","FONKODU":"DFI","FONUNVAN":"DFI FON","FIYAT":2.5}]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	rows, err := client.GetPriceHistory(context.Background(), "dfi", "15.10.2026", "15.10.2026")
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/BindHistoryInfo" {
		t.Errorf("expected path /BindHistoryInfo, got %s", gotPath)
	}
	if gotContentType != "application/x-www-form-urlencoded; charset=UTF-8" {
		t.Errorf("unexpected content type %q", gotContentType)
	}
	if gotUA != "curl/8.7.1" {
		t.Errorf("unexpected user agent %q", gotUA)
	}

	want := map[string]string{"fontip": "YAT", "fonkod": "DFI", "bastarih": "15.10.2026", "bittarih": "15.10.2026"}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form %s: expected %q, got %q", k, v, gotForm[k])
		}
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].FundCode != "DFI" || rows[0].FundName != "DFI FON" {
		t.Errorf("unexpected row identity: %+v", rows[0])
	}
	if rows[0].Date != "1760486400000" {
		t.Errorf("expected numeric TARIH kept as text, got %q", rows[0].Date)
	}
	if rows[0].Price != 2.5 {
		t.Errorf("expected price 2.5, got %v", rows[0].Price)
	}
}

func TestGetPriceHistory_PriceEncodings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"TARIH":"15.10.2026","FONKODU":"IOG","FIYAT":"2.769,7345"},
			{"TARIH":"14.10.2026","FONKODU":"IOG","FIYAT":null},
			{"TARIH":"13.10.2026","FONKODU":"IOG","FIYAT":"abc"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithFundType("EMK"))
	rows, err := client.GetPriceHistory(context.Background(), "IOG", "13.10.2026", "15.10.2026")
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if math.Abs(rows[0].Price-2769.7345) > 1e-9 {
		t.Errorf("expected 2769.7345, got %v", rows[0].Price)
	}
	if !math.IsNaN(rows[1].Price) {
		t.Errorf("expected NaN for null price, got %v", rows[1].Price)
	}
	if !math.IsNaN(rows[2].Price) {
		t.Errorf("expected NaN for unparseable price, got %v", rows[2].Price)
	}
}

func TestGetPriceHistory_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	rows, err := NewClient(WithBaseURL(srv.URL)).GetPriceHistory(context.Background(), "ZJI", "11.10.2026", "11.10.2026")
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestGetPriceHistory_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetPriceHistory(context.Background(), "DFI", "15.10.2026", "15.10.2026")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "upstream down" {
		t.Errorf("expected body in message, got %q", apiErr.Message)
	}
}

func TestGetPriceHistory_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetPriceHistory(context.Background(), "DFI", "15.10.2026", "15.10.2026")
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGetPriceHistory_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(WithBaseURL(srv.URL)).GetPriceHistory(ctx, "DFI", "15.10.2026", "15.10.2026")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
