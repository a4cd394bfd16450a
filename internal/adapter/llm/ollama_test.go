package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vaibhav2543/deep-researcher/config"
)

func newTestClient(url string) *OllamaClient {
	return NewOllamaClient(config.GenerationConfig{
		BaseURL:   url,
		Model:     "test-model",
		MaxTokens: 100,
	})
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "<think>reasoning</think> The answer is 42."}`))
	}))
	defer srv.Close()

	answer, err := newTestClient(srv.URL).Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "The answer is 42." {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestGenerateAlternateField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "from the text field"}`))
	}))
	defer srv.Close()

	answer, err := newTestClient(srv.URL).Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "from the text field" {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestClient(srv.URL).Generate(ctx, "question")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("timeout not enforced promptly, took %v", elapsed)
	}
}

func TestGenerateConnectionRefused(t *testing.T) {
	// Open then immediately close a server so the port is dead.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Generate(context.Background(), "question")
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("connection failure must not classify as a timeout")
	}
}

func TestGenerateServiceStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "question")
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestGenerateMalformedEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": ""}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "question")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGenerateStripsThinkContent(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"multiline block", `{"response": "<think>step one\nstep two</think>Only this."}`, "Only this."},
		{"two blocks", `{"response": "<think>a</think>Keep.<think>b</think>"}`, "Keep."},
		{"unclosed block", `{"response": "The answer.<think>cut off mid"}`, "The answer."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			answer, err := newTestClient(srv.URL).Generate(context.Background(), "question")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if answer != tc.want {
				t.Errorf("got %q, want %q", answer, tc.want)
			}
		})
	}
}

func TestGenerateKeepsBulletLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "- first point\n-  second   point\n\n- third point"}`))
	}))
	defer srv.Close()

	answer, err := newTestClient(srv.URL).Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "- first point\n- second point\n- third point"
	if answer != want {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestGenerateBareTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a plain text completion"))
	}))
	defer srv.Close()

	answer, err := newTestClient(srv.URL).Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "a plain text completion" {
		t.Errorf("unexpected answer: %q", answer)
	}
}
