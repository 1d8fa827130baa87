package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/booking-harvester/internal/config"
	"github.com/samvad-hq/booking-harvester/pkg/publishers"
)

const bookingBody = `{"available_days":["2024-01-01"],"current_day":"2024-01-01","restaurant":{"id":1,"restaurant_name":"Test","opening_time":"09:00","closing_time":"22:00","timezone":"UTC"},"tables":[]}`

func bookingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writePublishersFile(t *testing.T, hookURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	content := fmt.Sprintf("publishers:\n  - id: hook\n    type: http\n    http:\n      url: %s\n", hookURL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}
	return path
}

func testConfig(t *testing.T, bookingURL, publishersFile string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "booking-harvester",
		Env:                    "test",
		BookingURL:             bookingURL,
		PublishersFile:         publishersFile,
		PollInterval:           20 * time.Millisecond,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(t.TempDir(), "snapshots.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func TestHarvesterPublishesChangedSnapshotOnce(t *testing.T) {
	booking, bookingHits := bookingServer(t, http.StatusOK, bookingBody)

	events := make(chan publishers.Event, 8)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		events <- evt
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hook.Close()

	cfg := testConfig(t, booking.URL, writePublishersFile(t, hook.URL))
	h, err := NewHarvester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	select {
	case evt := <-events:
		if evt.Type != publishers.EventTypeSnapshot || evt.Snapshot.SourceURL != booking.URL {
			t.Fatalf("unexpected event %#v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no event published")
	}

	deadline := time.Now().Add(5 * time.Second)
	for bookingHits.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if bookingHits.Load() < 3 {
		t.Fatalf("expected repeated polls, got %d", bookingHits.Load())
	}
	if n := len(events); n != 0 {
		t.Fatalf("unchanged snapshot republished %d times", n)
	}
}

func TestHarvesterSurvivesFailedPolls(t *testing.T) {
	booking, hits := bookingServer(t, http.StatusInternalServerError, `{"error":"down"}`)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("nothing should be published")
	}))
	defer hook.Close()

	cfg := testConfig(t, booking.URL, writePublishersFile(t, hook.URL))
	h, err := NewHarvester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := h.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hits.Load() < 2 {
		t.Fatalf("expected the loop to keep polling after failures, got %d", hits.Load())
	}
}

func TestNewHarvesterRequiresPublishers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	if err := os.WriteFile(path, []byte("publishers: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewHarvester(context.Background(), testConfig(t, "http://127.0.0.1", path), nil); err == nil {
		t.Fatalf("expected error without publishers")
	}
}

func TestNewHarvesterRejectsUnknownStorage(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1", writePublishersFile(t, "http://127.0.0.1"))
	cfg.StorageType = "cassandra"
	if _, err := NewHarvester(context.Background(), cfg, nil); err == nil || !strings.Contains(err.Error(), "storage") {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestFetcherWritesIndentedJSON(t *testing.T) {
	booking, _ := bookingServer(t, http.StatusOK, bookingBody)
	f, err := NewFetcher(&config.Config{BookingURL: booking.URL}, nil)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	var out bytes.Buffer
	if err := f.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var want bytes.Buffer
	_ = json.Indent(&want, []byte(bookingBody), "", "  ")
	want.WriteByte('\n')
	if out.String() != want.String() {
		t.Fatalf("output mismatch:\n%s", out.String())
	}
}

func TestFetcherPropagatesFetchError(t *testing.T) {
	booking, _ := bookingServer(t, http.StatusOK, "not json")
	f, _ := NewFetcher(&config.Config{BookingURL: booking.URL}, nil)

	var out bytes.Buffer
	if err := f.Run(context.Background(), &out); err == nil {
		t.Fatalf("expected decode error")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be written on failure, got %q", out.String())
	}
}

func TestHarvesterRunOnce(t *testing.T) {
	booking, hits := bookingServer(t, http.StatusOK, bookingBody)
	var delivered atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		delivered.Add(1)
	}))
	defer hook.Close()

	h, err := NewHarvester(context.Background(), testConfig(t, booking.URL, writePublishersFile(t, hook.URL)), nil)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}
	if err := h.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if hits.Load() != 1 || delivered.Load() != 1 {
		t.Fatalf("hits=%d delivered=%d", hits.Load(), delivered.Load())
	}
}
