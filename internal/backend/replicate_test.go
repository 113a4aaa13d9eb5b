package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/backoff"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

func staticToken(tok string) TokenSource { return func() string { return tok } }

func newTestClient(srv *httptest.Server, tok string) Client {
	return NewReplicateClient(Options{
		BaseURL:    srv.URL,
		Token:      staticToken(tok),
		HTTPClient: srv.Client(),
		PollPolicy: backoff.Fixed,
		PollBase:   time.Millisecond,
		PollMax:    time.Millisecond,
	})
}

func TestRun_ModelEndpointSucceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/black-forest-labs/flux-schnell/predictions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer r8_test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.Header.Get("Prefer") != "wait" {
			t.Errorf("expected Prefer: wait")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		input, _ := body["input"].(map[string]any)
		if input["prompt"] != "a red fox" {
			t.Errorf("unexpected input %v", body)
		}
		_, _ = io.WriteString(w, `{"id":"p1","status":"succeeded","output":["https://cdn/x.webp","https://cdn/y.webp"]}`)
	}))
	defer srv.Close()

	out, err := newTestClient(srv, "r8_test").Run(context.Background(), "black-forest-labs/flux-schnell", map[string]any{"prompt": "a red fox"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ref, err := out.ImageReference()
	if err != nil || ref != "https://cdn/x.webp" {
		t.Fatalf("expected first array element, got %q (%v)", ref, err)
	}
}

func TestRun_VersionedEndpointPolls(t *testing.T) {
	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["version"] != "abc123" {
				t.Errorf("expected version abc123, got %v", body["version"])
			}
			_, _ = io.WriteString(w, `{"id":"p2","status":"starting","urls":{"get":"`+srv.URL+`/predictions/p2"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/p2":
			if polls.Add(1) < 3 {
				_, _ = io.WriteString(w, `{"id":"p2","status":"processing","urls":{"get":"`+srv.URL+`/predictions/p2"}}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":"p2","status":"succeeded","output":"https://cdn/z.png"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out, err := newTestClient(srv, "tok").Run(context.Background(), "bytedance/sdxl-lightning-4step:abc123", map[string]any{"prompt": "p"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ref, _ := out.ImageReference(); ref != "https://cdn/z.png" {
		t.Fatalf("unexpected reference %q", ref)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", polls.Load())
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusUnauthorized, `{"detail":"Invalid token."}`, "Invalid token."},
		{"prediction failed", http.StatusOK, `{"id":"p3","status":"failed","error":"NSFW content detected"}`, "NSFW"},
		{"missing poll url", http.StatusOK, `{"id":"p4","status":"starting"}`, "missing poll url"},
		{"invalid json", http.StatusOK, `not json`, "invalid json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()
			_, err := newTestClient(srv, "tok").Run(context.Background(), "owner/model", map[string]any{"prompt": "p"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRun_MissingTokenAndBadModel(t *testing.T) {
	c := NewReplicateClient(Options{BaseURL: "http://127.0.0.1:1", Token: staticToken("  ")})
	if _, err := c.Run(context.Background(), "owner/model", nil); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	c = NewReplicateClient(Options{BaseURL: "http://127.0.0.1:1", Token: staticToken("tok")})
	for _, id := range []string{"nomodel", "owner/model:", ":v1"} {
		if _, err := c.Run(context.Background(), id, nil); err == nil || !strings.Contains(err.Error(), "invalid model id") {
			t.Errorf("%q: expected invalid model id, got %v", id, err)
		}
	}
}

func TestRun_ContextCanceledWhilePolling(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"p5","status":"processing","urls":{"get":"`+srv.URL+`/predictions/p5"}}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(srv, "tok").Run(ctx, "owner/model", nil)
	if err == nil || ctx.Err() == nil {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestOutputNormalization(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"https://a/b.png"`, "https://a/b.png", false},
		{`["https://a/1.png","https://a/2.png"]`, "https://a/1.png", false},
		{`[]`, "", true},
		{`null`, "", true},
		{`""`, "", true},
		{`{"url":"x"}`, "", true},
	}
	for _, tt := range tests {
		got, err := NewOutput(tt.raw).ImageReference()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("%s: got %q, err %v", tt.raw, got, err)
		}
	}

	if got := NewOutput(`["Hello", ", ", "world"]`).Text(); got != "Hello, world" {
		t.Errorf("Text() = %q", got)
	}
	if got := NewOutput(`"single"`).Text(); got != "single" {
		t.Errorf("Text() = %q", got)
	}
	if got := (Output{}).Text(); got != "" {
		t.Errorf("zero Output Text() = %q", got)
	}
}
