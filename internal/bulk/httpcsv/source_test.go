package httpcsv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"stock-dashboard/internal/cache"
)

var fastRetry = &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}

func TestFetchWritesFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aapl.csv":
			w.Write([]byte("Date,Close\n2020-01-01,100\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := New(NewClient(), nil, []Target{
		{Name: "AAPL", URL: srv.URL + "/aapl.csv"},
		{Name: "GONE", URL: srv.URL + "/gone.csv"},
	}, fastRetry)

	dir := t.TempDir()
	paths, err := s.Fetch(context.Background(), dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, "AAPL.csv") {
		t.Fatalf("Expected only AAPL.csv, got %v", paths)
	}
	data, _ := os.ReadFile(paths[0])
	if string(data) != "Date,Close\n2020-01-01,100\n" {
		t.Errorf("Unexpected body %q", string(data))
	}
}

func TestFetchAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := New(NewClient(), nil, []Target{{Name: "X", URL: srv.URL + "/x.csv"}}, fastRetry)
	if _, err := s.Fetch(context.Background(), t.TempDir()); err == nil {
		t.Error("Expected error when every download fails")
	}
}

func TestGetWithRetryRecoversFromServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewClient().GetWithRetry(context.Background(), srv.URL, fastRetry)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Expected ok, got %s", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestGetWithRetryDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().GetWithRetry(context.Background(), srv.URL, fastRetry)
	if err == nil {
		t.Fatal("Expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestFetchUsesDownloadCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("Date,Close\n2020-01-01,1\n"))
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	s := New(NewClient(), fc, []Target{{Name: "A", URL: srv.URL}}, fastRetry)

	for i := 0; i < 2; i++ {
		if _, err := s.Fetch(context.Background(), t.TempDir()); err != nil {
			t.Fatal(err)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
}
