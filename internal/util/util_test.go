package util

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestHuman(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{3 << 20, "3.00 MB"},
		{5 << 30, "5.00 GB"},
		{2048 << 30, "2048.00 GB"},
	}

	for _, tc := range tests {
		if got := Human(tc.in); got != tc.want {
			t.Fatalf("Human(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClientKeepsRequestUserAgent(t *testing.T) {
	t.Parallel()
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent") + "|" + r.Header.Get("Cookie"))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPClientOptions{Timeout: 5 * time.Second, UserAgent: "default-ua", Cookie: "a=1"})
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "profile-ua")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if v := got.Load().(string); v != "profile-ua|a=1" {
		t.Fatalf("server saw %q", v)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err = c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if v := got.Load().(string); v != "default-ua|a=1" {
		t.Fatalf("server saw %q", v)
	}
}

func TestDoWithRetry(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := DoWithRetry(srv.Client(), req, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("DoWithRetry: %v", err)
	}
	resp.Body.Close()
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}

	calls.Store(-10)
	if _, err := DoWithRetry(srv.Client(), req, 2, time.Millisecond); err == nil {
		t.Fatalf("DoWithRetry returned nil error after persistent 5xx")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if _, err := DoWithRetry(srv.Client(), req, 3, time.Second); err == nil {
		t.Fatalf("DoWithRetry ignored a cancelled context")
	}
}

func TestCreateCBZAndCleanup(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tmp := filepath.Join(dir, "ch1"+TempSuffix)
	if err := os.Mkdir(tmp, 0755); err != nil {
		t.Fatal(err)
	}

	var files []string
	for _, name := range []string{"002.jpg", "001.jpg"} {
		p := filepath.Join(tmp, name)
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		files = append(files, p)
	}

	out := filepath.Join(dir, "ch1.cbz")
	if err := CreateCBZ(files, out); err != nil {
		t.Fatalf("CreateCBZ: %v", err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	if len(zr.File) != 2 || zr.File[0].Name != "001.jpg" || zr.File[1].Name != "002.jpg" {
		t.Fatalf("archive entries out of order")
	}

	removed, err := CleanupUnfinishedTempFolders(dir)
	if err != nil || len(removed) != 1 || removed[0] != tmp {
		t.Fatalf("CleanupUnfinishedTempFolders = %v, %v", removed, err)
	}

	empty := filepath.Join(dir, "empty")
	_ = os.Mkdir(empty, 0755)
	if !RemoveIfEmpty(empty) {
		t.Fatalf("RemoveIfEmpty did not remove an empty dir")
	}
	if RemoveIfEmpty(dir) {
		t.Fatalf("RemoveIfEmpty removed a non-empty dir")
	}
}
