package dochandler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type fakeFetcher struct {
	calls int
	body  []byte
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, accept string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func TestEnsureCached_FetchesOnceThenReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{body: []byte("hello")}

	b, err := ensureCached(context.Background(), fetcher, "text/html", dir, "part03.xhtml", Options{URL: "http://example/part03"})
	if err != nil {
		t.Fatalf("ensureCached: %v", err)
	}
	if string(b) != "hello" {
		t.Errorf("ensureCached: got %q, want %q", b, "hello")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher.calls: got %d, want 1", fetcher.calls)
	}

	b, err = ensureCached(context.Background(), fetcher, "text/html", dir, "part03.xhtml", Options{URL: "http://example/part03"})
	if err != nil {
		t.Fatalf("ensureCached: %v", err)
	}
	if string(b) != "hello" {
		t.Errorf("ensureCached: got %q, want %q", b, "hello")
	}
	if fetcher.calls != 1 {
		t.Errorf("second call must read from cache, not fetch again: fetcher.calls = %d, want 1", fetcher.calls)
	}

	if _, err := os.Stat(filepath.Join(dir, "standard", "part03.xhtml")); err != nil {
		t.Errorf("cached file missing: %v", err)
	}
}

func TestEnsureCached_ForceDownloadRefetches(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{body: []byte("v1")}

	if _, err := ensureCached(context.Background(), fetcher, "text/html", dir, "doc.xhtml", Options{URL: "http://x"}); err != nil {
		t.Fatalf("ensureCached: %v", err)
	}

	fetcher.body = []byte("v2")
	b, err := ensureCached(context.Background(), fetcher, "text/html", dir, "doc.xhtml", Options{URL: "http://x", ForceDownload: true})
	if err != nil {
		t.Fatalf("ensureCached: %v", err)
	}
	if string(b) != "v2" {
		t.Errorf("ensureCached: got %q, want %q", b, "v2")
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher.calls: got %d, want 2", fetcher.calls)
	}
}

func TestEnsureCached_MissingURLWhenNotCached(t *testing.T) {
	dir := t.TempDir()
	if _, err := ensureCached(context.Background(), &fakeFetcher{}, "text/html", dir, "doc.xhtml", Options{}); err == nil {
		t.Error("ensureCached: got nil error, want non-nil")
	}
}

func TestEnsureCachedCleaned_StripsZeroWidthAndNormalizesNBSP(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{body: []byte("a​b c")}

	b, err := ensureCachedCleaned(context.Background(), fetcher, "text/html", dir, "doc.xhtml", Options{URL: "http://x"})
	if err != nil {
		t.Fatalf("ensureCachedCleaned: %v", err)
	}
	if string(b) != "ab c" {
		t.Errorf("ensureCachedCleaned: got %q, want %q", b, "ab c")
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "standard", "doc.xhtml"))
	if err != nil {
		t.Fatalf("os.ReadFile: %v", err)
	}
	if string(onDisk) != "ab c" {
		t.Errorf("on-disk content: got %q, want %q", onDisk, "ab c")
	}
}
