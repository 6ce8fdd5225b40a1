package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/pkg/log"
)

func newTestClient(url string) *Client {
	return New(nil, Config{
		URL:            url,
		Attempts:       3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, log.NewNoopLogger())
}

func TestSynthesize(t *testing.T) {
	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello & welcome", "Amy")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(data) != "ID3-audio" {
		t.Errorf("data = %q", data)
	}
	q := <-queries
	if q.Get("voice") != "Amy" || q.Get("text") != "hello & welcome" {
		t.Errorf("query voice=%q text=%q", q.Get("voice"), q.Get("text"))
	}
}

func TestSynthesizeDefaultVoice(t *testing.T) {
	voices := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		voices <- r.URL.Query().Get("voice")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Synthesize(context.Background(), "hi", ""); err != nil {
		t.Fatal(err)
	}
	if gotVoice := <-voices; gotVoice != domain.DefaultVoice {
		t.Errorf("voice = %q, want %q", gotVoice, domain.DefaultVoice)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	tests := []struct {
		name  string
		text  string
		voice string
		want  error
	}{
		{"empty text", "", "Brian", domain.ErrNarrationRequired},
		{"too long", strings.Repeat("a", domain.MaxNarrationLength+1), "Brian", domain.ErrNarrationTooLong},
		{"unknown voice", "hello", "Robot", domain.ErrUnknownVoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Synthesize(context.Background(), tt.text, tt.voice)
			if !errors.Is(err, tt.want) {
				t.Errorf("Synthesize = %v, want %v", err, tt.want)
			}
		})
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("invalid requests reached the server %d times", n)
	}
}

func TestSynthesizeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello", "Brian")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(data) != "ok" || calls.Load() != 3 {
		t.Errorf("data %q after %d calls", data, calls.Load())
	}
}

func TestSynthesizeClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad voice", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello", "Brian")
	if !errors.Is(err, domain.ErrResourceUnavailable) {
		t.Fatalf("Synthesize = %v, want ErrResourceUnavailable", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q does not mention the status", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSynthesizeGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello", "Brian")
	if !errors.Is(err, domain.ErrResourceUnavailable) {
		t.Fatalf("Synthesize = %v, want ErrResourceUnavailable", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSynthesizeEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Synthesize(context.Background(), "hello", "Brian"); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestBackoff(t *testing.T) {
	b := newBackoff(time.Millisecond, 4*time.Millisecond)
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond}
	for i, w := range want {
		if got := b.Current(); got != w {
			t.Fatalf("step %d: current = %v, want %v", i, got, w)
		}
		if !b.Sleep(context.Background()) {
			t.Fatalf("step %d: Sleep returned false", i)
		}
	}
	b.Reset()
	if b.Current() != time.Millisecond {
		t.Errorf("after reset current = %v", b.Current())
	}
}

func TestBackoffCanceled(t *testing.T) {
	b := newBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if b.Sleep(ctx) {
		t.Error("Sleep returned true on canceled context")
	}
	if b.Current() != time.Hour {
		t.Error("canceled sleep advanced the backoff")
	}
}
