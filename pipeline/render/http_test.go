package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPRenderer_Valid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/render" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var body struct {
			Document string `json:"document"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if body.Document != "cv: ..." {
			t.Errorf("document = %q", body.Document)
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"url": "out/final.pdf"})
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, srv.Client())
	result, err := r.Validate(context.Background(), "cv: ...")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Error("expected valid result")
	}
	if result.Handle != "out/final.pdf" {
		t.Errorf("Handle = %q", result.Handle)
	}
}

func TestHTTPRenderer_Invalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing cv.name"})
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, srv.Client())
	result, err := r.Validate(context.Background(), "cv: {}")
	if err != nil {
		t.Fatalf("Invalid candidate must not be a transport error: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid result")
	}
	if result.Issue != "missing cv.name" {
		t.Errorf("Issue = %q", result.Issue)
	}
}

func TestHTTPRenderer_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, srv.Client())
	if _, err := r.Validate(context.Background(), "cv: ..."); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestHTTPRenderer_Unreachable(t *testing.T) {
	r := NewHTTPRenderer("http://127.0.0.1:1", nil)
	if _, err := r.Validate(context.Background(), "cv: ..."); err == nil {
		t.Error("expected error for unreachable service")
	}
}

func TestHTTPRenderer_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewHTTPRenderer(srv.URL, srv.Client())
	if _, err := r.Validate(ctx, "cv: ..."); err == nil {
		t.Error("expected error for cancelled context")
	}
}
