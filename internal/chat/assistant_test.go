package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPAssistant_Ask(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"There are 42 orders.","sql":"SELECT COUNT(*) FROM orders"}`))
	}))
	defer srv.Close()

	a, err := NewHTTPAssistant(srv.URL+"/ask", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPAssistant: %v", err)
	}
	reply, err := a.Ask(context.Background(), "how many orders?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if gotBody["message"] != "how many orders?" {
		t.Errorf("request message = %q", gotBody["message"])
	}
	if reply.Text != "There are 42 orders." {
		t.Errorf("Text = %q", reply.Text)
	}
	if reply.SQL != "SELECT COUNT(*) FROM orders" {
		t.Errorf("SQL = %q", reply.SQL)
	}
}

func TestHTTPAssistant_NullSQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"Hello!","sql":null}`))
	}))
	defer srv.Close()

	a, _ := NewHTTPAssistant(srv.URL, nil)
	reply, err := a.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply.SQL != "" {
		t.Errorf("SQL = %q, want empty", reply.SQL)
	}
}

func TestHTTPAssistant_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrBadStatus},
		{"bad request", http.StatusBadRequest, `{"error":"Missing \"message\""}`, ErrBadStatus},
		{"invalid json", http.StatusOK, `<html>oops</html>`, ErrMalformedReply},
		{"missing text", http.StatusOK, `{"sql":"SELECT 1"}`, ErrMalformedReply},
		{"blank text", http.StatusOK, `{"text":"   "}`, ErrMalformedReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a, _ := NewHTTPAssistant(srv.URL, srv.Client())
			_, err := a.Ask(context.Background(), "x")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPAssistant_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	a, _ := NewHTTPAssistant(url, nil)
	_, err := a.Ask(context.Background(), "x")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(err.Error(), "chat: send") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "chat: send")
	}
}

func TestNewHTTPAssistant_RequiresURL(t *testing.T) {
	if _, err := NewHTTPAssistant("", nil); err == nil {
		t.Fatal("expected error for empty url")
	}
}
