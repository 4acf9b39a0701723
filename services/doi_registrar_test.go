package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPRegistrarClientSuccess(t *testing.T) {
	var gotPath, gotMethod string
	var gotReq DepositRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode deposit payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"doi": "10.1234/jrnl.2026.42", "batch_id": "b-1"}`))
	}))
	defer server.Close()

	client := NewHTTPRegistrarClient(server.URL, nil)
	result, err := client.SubmitDeposit(context.Background(), &DepositRequest{
		ManuscriptCode: "MS-2026-ABCDEF12",
		Title:          "On Testing",
		Authors:        []string{"A. Author"},
		Year:           2026,
	})
	if err != nil {
		t.Fatalf("SubmitDeposit returned error: %v", err)
	}

	if result.Doi != "10.1234/jrnl.2026.42" {
		t.Errorf("unexpected doi %q", result.Doi)
	}
	if gotMethod != http.MethodPost || gotPath != "/deposits" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotReq.ManuscriptCode != "MS-2026-ABCDEF12" {
		t.Errorf("payload lost manuscript code: %+v", gotReq)
	}
}

func TestHTTPRegistrarClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPRegistrarClient(server.URL, nil)
	_, err := client.SubmitDeposit(context.Background(), &DepositRequest{Title: "x"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestHTTPRegistrarClientMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"missing doi", `{"status": "queued"}`},
		{"blank doi", `{"doi": "  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHTTPRegistrarClient(server.URL, nil)
			if _, err := client.SubmitDeposit(context.Background(), &DepositRequest{Title: "x"}); err == nil {
				t.Error("expected error for malformed response")
			}
		})
	}
}

func TestHTTPRegistrarClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := NewHTTPRegistrarClient(server.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.SubmitDeposit(ctx, &DepositRequest{Title: "x"}); err == nil {
		t.Fatal("expected error when the context deadline passes")
	}
}

func TestHTTPRegistrarClientUnconfigured(t *testing.T) {
	t.Setenv("DOI_REGISTRAR_URL", "")

	client := NewHTTPRegistrarClient("", nil)
	if _, err := client.SubmitDeposit(context.Background(), &DepositRequest{Title: "x"}); err == nil {
		t.Fatal("expected error when no registrar URL is configured")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate should pass short strings through, got %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("unexpected truncation %q", got)
	}
}
