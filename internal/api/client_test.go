package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_endpointFor_AppendsPath(t *testing.T) {
	c := Client{BaseURL: "http://example.test/base/"}
	got, err := c.endpointFor("/login")
	if err != nil {
		t.Fatalf("endpointFor: %v", err)
	}
	if got != "http://example.test/base/login" {
		t.Fatalf("unexpected endpoint: %q", got)
	}
}

func TestClient_endpointFor_Unconfigured(t *testing.T) {
	c := Client{BaseURL: "  "}
	if _, err := c.endpointFor("/login"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_endpointFor_RejectsNonHTTP(t *testing.T) {
	c := Client{BaseURL: "ftp://example.test"}
	if _, err := c.endpointFor("/login"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestClient_Login_SendsCredentialsAndHeaders(t *testing.T) {
	var got LoginRequest
	var gotCT, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotCT = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Login successful!"})
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	out, err := c.Login(context.Background(), "user", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.Message != "Login successful!" {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if got.Username != "user" || got.Password != "password123" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if gotCT != "application/json" {
		t.Fatalf("unexpected content-type: %q", gotCT)
	}
	if strings.TrimSpace(gotReqID) == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestClient_Login_StatusErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Invalid username or password"}`)
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Login(context.Background(), "user", "nope")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T (%v)", err, err)
	}
	if se.StatusCode != http.StatusUnauthorized || se.Detail != "Invalid username or password" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestClient_ProcessHomework_SendsSnakeCasePayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process_homework" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"output": "X"})
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	out, err := c.ProcessHomework(context.Background(), ProcessRequest{
		StudyContent: "notes",
		Prompt:       "summarize",
		APIChoice:    "llama",
	})
	if err != nil {
		t.Fatalf("ProcessHomework: %v", err)
	}
	if out.Output != "X" {
		t.Fatalf("unexpected output: %q", out.Output)
	}
	if got["study_content"] != "notes" || got["prompt"] != "summarize" || got["api_choice"] != "llama" {
		t.Fatalf("unexpected payload: %#v", got)
	}
}

func TestClient_ProcessHomework_MissingOutputIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":"X"}`)
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.ProcessHomework(context.Background(), ProcessRequest{StudyContent: "a", Prompt: "b", APIChoice: "gemini"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_ProcessHomework_NonJSONSuccessIsUndecodable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>ok</html>")
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.ProcessHomework(context.Background(), ProcessRequest{StudyContent: "a", Prompt: "b", APIChoice: "gemini"})
	if !errors.Is(err, ErrUndecodableBody) || errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrUndecodableBody only, got %v", err)
	}

	_, err = c.Login(context.Background(), "u", "p")
	if !errors.Is(err, ErrUndecodableBody) {
		t.Fatalf("expected ErrUndecodableBody from login, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := Client{BaseURL: base}
	_, err := c.Login(context.Background(), "u", "p")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if _, ok := Detail(err); ok {
		t.Fatalf("transport error must not look like a status error: %v", err)
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("unexpected classification: %v", err)
	}
}

func TestParseDetail(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"detail":"bad input"}`, "bad input"},
		{`{"detail":[{"loc":["body","prompt"],"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{`{"error":"x"}`, ""},
		{`not json`, ""},
		{`{"detail":42}`, ""},
	}
	for _, tc := range cases {
		if got := parseDetail([]byte(tc.body)); got != tc.want {
			t.Fatalf("parseDetail(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
